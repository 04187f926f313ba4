package sender

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"picbridge/internal/adapters/file"
	"picbridge/internal/core/domain"
	"sync"

	"github.com/rs/zerolog/log"
)

const previewFile = "preview.jpg"

// Console prints replies for the interactive shell. Images are written to disk and their path is printed.
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	previewDir string
}

// NewConsole writes replies to out. An empty previewDir stores previews as temp files.
func NewConsole(out io.Writer, previewDir string) *Console {
	return &Console{out: out, previewDir: previewDir}
}

func (c *Console) SendMessageReply(_ context.Context, message *domain.Message, text string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintln(c.out, text); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}
	return message.ID, nil
}

func (c *Console) SendChatAction(_ context.Context, chatID int64, action domain.Action) {
	log.Debug().Int64("chatID", chatID).Str("action", string(action)).Msg("working")
}

func (c *Console) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	if _, sendErr := c.SendMessageReply(ctx, message, "error: "+err.Error()); sendErr != nil {
		return sendErr
	}
	return err
}

func (c *Console) SendImageURLReply(ctx context.Context, message *domain.Message, url string) error {
	_, err := c.SendMessageReply(ctx, message, "image: "+url)
	return err
}

func (c *Console) SendImageFileReply(ctx context.Context, message *domain.Message, data []byte,
	caption string) error {
	path, err := c.writePreview(data)
	if err != nil {
		return err
	}

	if caption != "" {
		if _, err := c.SendMessageReply(ctx, message, caption); err != nil {
			return err
		}
	}
	_, err = c.SendMessageReply(ctx, message, "preview: "+path)
	return err
}

func (c *Console) writePreview(data []byte) (string, error) {
	if c.previewDir == "" {
		return file.SaveTempFile(data, filepath.Ext(previewFile))
	}

	if err := os.MkdirAll(c.previewDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating preview dir: %w", err)
	}

	path := filepath.Join(c.previewDir, previewFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing preview: %w", err)
	}

	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("wrote preview")
	return path, nil
}
