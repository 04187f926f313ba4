package handler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/domain/command"
	"picbridge/internal/core/port"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const prompt = "picbridge> "

// Console is the interactive shell. It runs one command at a time, so it never has to refuse one as busy.
type Console struct {
	commandRegistry port.CommandRegistry
	textSender      port.TextSender
	timeout         time.Duration
}

func NewConsole(commandRegistry port.CommandRegistry, textSender port.TextSender, timeout time.Duration) *Console {
	return &Console{commandRegistry: commandRegistry, textSender: textSender, timeout: timeout}
}

// Run reads commands from in until it is exhausted, the user quits or ctx is cancelled. The leading slash of a
// command is optional.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	id := 0
	for {
		_, _ = fmt.Fprint(out, prompt)

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			_, _ = fmt.Fprintln(out)
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		if !strings.HasPrefix(line, "/") {
			line = "/" + line
		}

		id++
		c.dispatch(ctx, &domain.Message{ID: id, Username: "console", Text: line})
	}
}

func (c *Console) dispatch(ctx context.Context, message *domain.Message) {
	cmd := command.ParseCommand(message.Text)

	handler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		if _, err := c.textSender.SendMessageReply(ctx, message, "unknown command "+cmd+", try /help"); err != nil {
			log.Err(err).Msg("failed to write reply")
		}
		return
	}

	if err := handler.Respond(ctx, c.timeout, message); err != nil {
		log.Debug().Err(err).Str("command", cmd).Msg("command failed")
	}
}
