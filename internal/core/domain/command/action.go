package command

import (
	"context"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/port"
	"picbridge/internal/core/service"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Action forwards one worker action. Positional arguments are mapped onto the action's parameters, so
// "/rotate 90 false 0,0,0" becomes {"action":"rotate","angle":90,"expand":false,"fill_color":[0,0,0]}.
type Action struct {
	spec      domain.ActionSpec
	images    port.ImageService
	presenter *Presenter
	auth      service.Authorizer
}

func NewAction(spec domain.ActionSpec, images port.ImageService, presenter *Presenter,
	auth service.Authorizer) *Action {
	return &Action{spec: spec, images: images, presenter: presenter, auth: auth}
}

func (a *Action) GetCommand() string {
	return "/" + a.spec.Name
}

func (a *Action) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", a.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !a.auth.IsAuthorized(ctx, message.ChatID) {
		l.Debug().Msg("not authorized")
		return nil
	}

	params, err := a.spec.ParseArgs(strings.Fields(ParseCommandArgs(message.Text)))
	if err != nil {
		return a.presenter.Text(ctx, message, err.Error())
	}

	go a.presenter.textSender.SendChatAction(ctx, message.ChatID, domain.Typing)

	resp, err := a.images.Call(ctx, a.spec.Name, params)
	return a.presenter.Present(ctx, message, resp, err)
}

// ActionCommands returns a command for every catalog action that has no dedicated command.
func ActionCommands(images port.ImageService, presenter *Presenter, auth service.Authorizer) []port.Command {
	var commands []port.Command
	for _, spec := range domain.Catalog {
		if spec.Category == domain.CategoryFile && spec.Name != domain.ActionGetBase64 {
			continue
		}
		if spec.Category == domain.CategorySystem {
			continue
		}
		commands = append(commands, NewAction(spec, images, presenter, auth))
	}
	return commands
}
