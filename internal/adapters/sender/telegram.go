package sender

import (
	"bytes"
	"context"
	"fmt"
	"picbridge/internal/core/domain"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

const (
	TelegramMessageLimit = 4096
	TelegramCaptionLimit = 1024
)

// TelegramBot is the part of the go-telegram client the sender needs.
type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

type Telegram struct {
	bot TelegramBot
}

func NewTelegram(bot TelegramBot) *Telegram {
	return &Telegram{bot: bot}
}

// SendMessageReply splits text into chunks that fit a Telegram message and replies with each of them. It returns
// the ID of the last message sent.
func (s *Telegram) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	var id int
	for _, chunk := range chunk(text, TelegramMessageLimit) {
		params := &bot.SendMessageParams{
			ChatID: message.ChatID,
			Text:   chunk,
		}
		if message.ID != 0 {
			params.ReplyParameters = &models.ReplyParameters{MessageID: message.ID, ChatID: message.ChatID}
		}

		sent, err := s.bot.SendMessage(ctx, params)
		if err != nil {
			log.Error().Err(err).Int64("chatId", message.ChatID).Msg("failed to send message")
			return id, fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
		}
		if sent != nil {
			id = sent.ID
		}
	}

	return id, nil
}

func (s *Telegram) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	_, sendErr := s.SendMessageReply(ctx, message, "error: "+err.Error())
	if sendErr != nil {
		return sendErr
	}

	return err
}

func (s *Telegram) SendImageURLReply(ctx context.Context, message *domain.Message, url string) error {
	params := &bot.SendPhotoParams{
		ChatID: message.ChatID,
		ReplyParameters: &models.ReplyParameters{
			MessageID: message.ID,
			ChatID:    message.ChatID,
		},
		Photo: &models.InputFileString{Data: url},
	}

	_, err := s.bot.SendPhoto(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("failed to send photo response")
		return err
	}

	return nil
}

func (s *Telegram) SendImageFileReply(ctx context.Context, message *domain.Message, file []byte,
	caption string) error {
	captions := chunk(caption, TelegramCaptionLimit)

	params := &bot.SendPhotoParams{
		ChatID: message.ChatID,
		Photo: &models.InputFileUpload{Filename: fmt.Sprintf("%d.jpg", message.ID),
			Data: bytes.NewReader(file)},
		ReplyParameters: &models.ReplyParameters{
			MessageID: message.ID,
			ChatID:    message.ChatID,
		},
	}
	if len(captions) > 0 {
		params.Caption = captions[0]
	}

	_, err := s.bot.SendPhoto(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("failed to send photo response")
		return err
	}

	return nil
}

const ChatActionRepeatSeconds = 5

func (s *Telegram) SendChatAction(ctx context.Context, chatID int64, action domain.Action) {
	chatAction := models.ChatActionTyping
	if action == domain.SendingPhoto {
		chatAction = models.ChatActionUploadPhoto
	}

	log.Debug().Int64("chatID", chatID).Msg("starting action routine")

	ticker := time.NewTicker(ChatActionRepeatSeconds * time.Second)
	defer ticker.Stop()

	for {
		log.Debug().Int64("chatID", chatID).Msg("transmitting action")
		_, err := s.bot.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: chatAction,
		})
		if err != nil {
			log.Err(err).Msg("error sending chat action")
			return
		}

		select {
		case <-ctx.Done():
			log.Debug().Int64("chatID", chatID).Msg("done, stopping action routine")
			return
		case <-ticker.C:
		}
	}
}

// chunk splits text into pieces of at most limit bytes without cutting a rune in half.
func chunk(text string, limit int) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return append(chunks, text)
}
