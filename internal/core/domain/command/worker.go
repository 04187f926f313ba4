package command

import (
	"context"
	"fmt"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/port"
	"picbridge/internal/core/service"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Simple runs a worker call that takes no arguments, such as /reset or /ping.
type Simple struct {
	call      func(ctx context.Context) (domain.Envelope, error)
	presenter *Presenter
	auth      service.Authorizer
	command   string
}

func NewSimple(call func(ctx context.Context) (domain.Envelope, error), presenter *Presenter,
	auth service.Authorizer, command string) *Simple {
	return &Simple{call: call, presenter: presenter, auth: auth, command: command}
}

func (c *Simple) GetCommand() string {
	return c.command
}

func (c *Simple) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	log.Info().Int64("chatId", message.ChatID).Str("command", c.GetCommand()).Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.auth.IsAuthorized(ctx, message.ChatID) {
		return nil
	}

	resp, err := c.call(ctx)
	return c.presenter.Present(ctx, message, resp, err)
}

// Actions lists what the worker can do, grouped by category.
type Actions struct {
	images    port.ImageService
	presenter *Presenter
	auth      service.Authorizer
	command   string
}

func NewActions(images port.ImageService, presenter *Presenter, auth service.Authorizer, command string) *Actions {
	return &Actions{images: images, presenter: presenter, auth: auth, command: command}
}

func (c *Actions) GetCommand() string {
	return c.command
}

func (c *Actions) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.auth.IsAuthorized(ctx, message.ChatID) {
		return nil
	}

	resp, err := c.images.ListActions(ctx)
	if err != nil || !resp.Success() {
		return c.presenter.Present(ctx, message, resp, err)
	}

	return c.presenter.Text(ctx, message, FormatActions(resp))
}

// FormatActions renders a list_actions response as usage lines per category.
func FormatActions(resp domain.Envelope) string {
	categories := map[string]map[string]any{}
	switch v := resp["actions"].(type) {
	case map[string]map[string]any:
		categories = v
	case map[string]any:
		for name, actions := range v {
			if m, ok := actions.(map[string]any); ok {
				categories[name] = m
			}
		}
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, category := range names {
		b.WriteString(category + ":\n")

		actions := make([]string, 0, len(categories[category]))
		for action := range categories[category] {
			actions = append(actions, action)
		}
		sort.Strings(actions)

		for _, action := range actions {
			b.WriteString("  /" + action)
			desc, _ := categories[category][action].(map[string]any)
			for _, p := range paramNames(desc["params"]) {
				if optional, ok := strings.CutSuffix(p, "?"); ok {
					b.WriteString(" [" + optional + "]")
				} else {
					b.WriteString(" <" + p + ">")
				}
			}
			if text, ok := desc["desc"].(string); ok && text != "" {
				b.WriteString(" - " + text)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func paramNames(v any) []string {
	switch params := v.(type) {
	case []string:
		return params
	case []any:
		out := make([]string, 0, len(params))
		for _, p := range params {
			if s, ok := p.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Restart replaces the worker process. Requests still pending on the old worker fail.
type Restart struct {
	control    port.WorkerControl
	status     port.WorkerStatus
	textSender port.TextSender
	auth       service.Authorizer
	command    string
}

func NewRestart(control port.WorkerControl, status port.WorkerStatus, textSender port.TextSender,
	auth service.Authorizer, command string) *Restart {
	return &Restart{control: control, status: status, textSender: textSender, auth: auth, command: command}
}

func (c *Restart) GetCommand() string {
	return c.command
}

func (c *Restart) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int64("chatId", message.ChatID).
		Str("command", c.GetCommand()).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.auth.IsAuthorized(ctx, message.ChatID) {
		return nil
	}

	l.Info().Str("worker", c.status.WorkerID()).Msg("restarting worker on request")

	if err := c.control.Restart(ctx); err != nil {
		return c.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error restarting worker: %w", err), message)
	}

	_, err := c.textSender.SendMessageReply(ctx, message, fmt.Sprintf("worker %s is %s", c.status.WorkerID(),
		c.status.State()))
	return err
}

// Help lists the registered commands.
type Help struct {
	registry   port.CommandRegistry
	textSender port.TextSender
	command    string
}

func NewHelp(registry port.CommandRegistry, textSender port.TextSender, command string) *Help {
	return &Help{registry: registry, textSender: textSender, command: command}
}

func (c *Help) GetCommand() string {
	return c.command
}

func (c *Help) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	commands := c.registry.ListCommands()

	_, err := c.textSender.SendMessageReply(ctx, message, "commands: "+strings.Join(commands, " "))
	return err
}
