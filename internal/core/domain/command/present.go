package command

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/port"
	"strings"
)

// Presenter turns worker responses into chat replies. Responses carrying an image are sent as a photo with the
// message as caption, everything else as text.
type Presenter struct {
	textSender  port.TextSender
	imageSender port.ImageSender
}

func NewPresenter(textSender port.TextSender, imageSender port.ImageSender) *Presenter {
	return &Presenter{textSender: textSender, imageSender: imageSender}
}

// Present replies to message with the outcome of one worker call. Router failures are reported to the chat and
// returned; a success=false response is a normal reply.
func (p *Presenter) Present(ctx context.Context, message *domain.Message, resp domain.Envelope, err error) error {
	if err != nil {
		return p.textSender.NotifyAndReturnError(ctx, describeError(err), message)
	}

	if !resp.Success() {
		_, err = p.textSender.SendMessageReply(ctx, message, "failed: "+resp.ErrorMessage())
		return err
	}

	caption := Caption(resp)

	if preview := resp.Preview(); preview != "" {
		data, err := base64.StdEncoding.DecodeString(preview)
		if err != nil {
			return p.textSender.NotifyAndReturnError(ctx, fmt.Errorf("worker sent a broken image: %w", err), message)
		}

		if err := p.imageSender.SendImageFileReply(ctx, message, data, caption); err != nil {
			return p.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending image: %w", err), message)
		}
		return nil
	}

	if caption == "" {
		caption = "done"
	}
	_, err = p.textSender.SendMessageReply(ctx, message, caption)
	return err
}

// Text sends a plain reply.
func (p *Presenter) Text(ctx context.Context, message *domain.Message, text string) error {
	_, err := p.textSender.SendMessageReply(ctx, message, text)
	return err
}

func (p *Presenter) Fail(ctx context.Context, message *domain.Message, err error) error {
	return p.textSender.NotifyAndReturnError(ctx, err, message)
}

// Caption renders the text part of a successful response.
func Caption(resp domain.Envelope) string {
	var lines []string
	if msg := resp.Message(); msg != "" {
		lines = append(lines, msg)
	}
	if info, ok := resp.Info(); ok {
		lines = append(lines, FormatInfo(info))
	}
	if path, ok := resp["path"].(string); ok && path != "" && !strings.Contains(resp.Message(), path) {
		lines = append(lines, path)
	}
	return strings.Join(lines, "\n")
}

func FormatInfo(info domain.ImageInfo) string {
	return fmt.Sprintf("%dx%d %s (%s)", info.Width, info.Height, info.Mode, info.Format)
}

func describeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTransportUnavailable):
		return fmt.Errorf("image worker is not running, use /restart: %w", err)
	case errors.Is(err, domain.ErrRequestTimeout):
		return fmt.Errorf("image worker did not answer in time: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("request took too long: %w", err)
	default:
		return err
	}
}
