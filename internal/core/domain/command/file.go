package command

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/port"
	"picbridge/internal/core/service"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxListedFiles = 20

// Load loads a file path on the worker's machine or, when the message carries a photo, the downloaded photo.
type Load struct {
	images    port.ImageService
	fetcher   port.FileFetcher
	presenter *Presenter
	auth      service.Authorizer
	command   string
}

func NewLoad(images port.ImageService, fetcher port.FileFetcher, presenter *Presenter, auth service.Authorizer,
	command string) *Load {
	return &Load{images: images, fetcher: fetcher, presenter: presenter, auth: auth, command: command}
}

func (c *Load) GetCommand() string {
	return c.command
}

func (c *Load) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("imageURL", message.ImageURL).
		Str("command", c.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.auth.IsAuthorized(ctx, message.ChatID) {
		l.Debug().Msg("not authorized")
		return nil
	}

	go c.presenter.textSender.SendChatAction(ctx, message.ChatID, domain.SendingPhoto)

	if message.ImageURL != "" {
		data, err := c.fetcher.Fetch(ctx, message.ImageURL)
		if err != nil {
			return c.presenter.Fail(ctx, message, fmt.Errorf("error downloading image: %w", err))
		}

		l.Debug().Int("bytes", len(data)).Msg("loading attached image")
		resp, err := c.images.LoadBase64(ctx, base64.StdEncoding.EncodeToString(data))
		return c.presenter.Present(ctx, message, resp, err)
	}

	path := strings.TrimSpace(ParseCommandArgs(message.Text))
	if path == "" {
		return c.presenter.Fail(ctx, message, errors.New("send a photo or a path: /load <path>"))
	}

	resp, err := c.images.LoadFile(ctx, path)
	return c.presenter.Present(ctx, message, resp, err)
}

type Save struct {
	images    port.ImageService
	presenter *Presenter
	auth      service.Authorizer
	command   string
}

func NewSave(images port.ImageService, presenter *Presenter, auth service.Authorizer, command string) *Save {
	return &Save{images: images, presenter: presenter, auth: auth, command: command}
}

func (c *Save) GetCommand() string {
	return c.command
}

const defaultQuality = 95

func (c *Save) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", c.GetCommand()).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.auth.IsAuthorized(ctx, message.ChatID) {
		l.Debug().Msg("not authorized")
		return nil
	}

	args := strings.Fields(ParseCommandArgs(message.Text))
	if len(args) == 0 || len(args) > 2 {
		return c.presenter.Fail(ctx, message, errors.New("usage: /save <path> [quality]"))
	}

	quality := defaultQuality
	if len(args) == 2 {
		q, err := strconv.Atoi(args[1])
		if err != nil {
			return c.presenter.Fail(ctx, message, fmt.Errorf("invalid quality: %w", err))
		}
		quality = q
	}

	l.Info().Str("path", args[0]).Int("quality", quality).Msg("saving image")

	resp, err := c.images.SaveFile(ctx, args[0], quality)
	return c.presenter.Present(ctx, message, resp, err)
}

type Batch struct {
	images    port.ImageService
	presenter *Presenter
	auth      service.Authorizer
	command   string
}

func NewBatch(images port.ImageService, presenter *Presenter, auth service.Authorizer, command string) *Batch {
	return &Batch{images: images, presenter: presenter, auth: auth, command: command}
}

func (c *Batch) GetCommand() string {
	return c.command
}

func (c *Batch) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.auth.IsAuthorized(ctx, message.ChatID) {
		return nil
	}

	folder := strings.TrimSpace(ParseCommandArgs(message.Text))
	if folder == "" {
		return c.presenter.Fail(ctx, message, errors.New("usage: /batch <folder>"))
	}

	resp, err := c.images.BatchLoad(ctx, folder)
	if err != nil || !resp.Success() {
		return c.presenter.Present(ctx, message, resp, err)
	}

	return c.presenter.Text(ctx, message, FormatFiles(resp))
}

// FormatFiles renders the batch_load response, one file per line.
func FormatFiles(resp domain.Envelope) string {
	var files []string
	switch v := resp["files"].(type) {
	case []string:
		files = v
	case []any:
		for _, f := range v {
			if s, ok := f.(string); ok {
				files = append(files, s)
			}
		}
	}

	if len(files) == 0 {
		return "no images found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d images:\n", len(files))
	for i, f := range files {
		if i == maxListedFiles {
			fmt.Fprintf(&b, "... and %d more", len(files)-maxListedFiles)
			break
		}
		b.WriteString(f + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
