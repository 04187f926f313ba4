package handler

import (
	"context"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/domain/command"
	"picbridge/internal/core/port"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// Command routes Telegram updates to registered commands. A chat with a command in flight is told to wait.
type Command struct {
	commandRegistry port.CommandRegistry
	textSender      port.TextSender
	timeout         time.Duration
	busy            sync.Map
}

func NewCommand(commandRegistry port.CommandRegistry, textSender port.TextSender, timeout time.Duration) *Command {
	return &Command{commandRegistry: commandRegistry, textSender: textSender, timeout: timeout}
}

func (c *Command) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message

	text := msg.Text
	if msg.Photo != nil {
		text = msg.Caption
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := command.ParseCommand(text)
	commandHandler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	message := &domain.Message{
		ID:       msg.ID,
		ChatID:   msg.Chat.ID,
		Username: getUserNameFromMessage(msg.From),
		Text:     text,
	}

	if _, running := c.busy.LoadOrStore(message.ChatID, struct{}{}); running {
		log.Debug().Int64("chatId", message.ChatID).Str("command", cmd).Msg("chat busy, refusing command")
		if _, err := c.textSender.SendMessageReply(ctx, message, domain.ErrBusy.Error()); err != nil {
			log.Err(err).Msg("failed to send busy notice")
		}
		return
	}

	go func() {
		defer c.busy.Delete(message.ChatID)

		message.ImageURL = getOptionalImage(ctx, b, msg)

		err := commandHandler.Respond(context.Background(), c.timeout, message)
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

func getOptionalImage(ctx context.Context, b *bot.Bot, msg *models.Message) string {
	var photos []models.PhotoSize

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.Photo != nil {
		photos = msg.ReplyToMessage.Photo
	}

	if msg.Photo != nil {
		photos = msg.Photo
	}

	if len(photos) == 0 || b == nil {
		return ""
	}

	f, err := b.GetFile(ctx, &bot.GetFileParams{FileID: findLargestImage(photos)})
	if err != nil {
		log.Error().Err(err).Msg("error getting file from telegram api")
		return ""
	}

	return b.FileDownloadLink(f)
}

// Telegram refuses bot downloads above 20 MB.
const maxPhotoSize = 20 * 1024 * 1024

// findLargestImage picks the largest photo size the bot may still download. Sizes are ordered smallest first.
func findLargestImage(photos []models.PhotoSize) string {
	for i := len(photos) - 1; i >= 0; i-- {
		if photos[i].FileSize <= maxPhotoSize {
			return photos[i].FileID
		}
	}

	return photos[0].FileID
}

func getUserNameFromMessage(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
