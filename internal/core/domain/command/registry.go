package command

import (
	"errors"
	"fmt"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/port"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

// Registry maps command names like "/rotate" to their handlers. Both the Telegram handler and the console look
// commands up here, so names are normalized on the way in and on the way out.
type Registry struct {
	commands map[string]port.Command
}

func (r *Registry) Register(handler port.Command) {
	if r.commands == nil {
		r.commands = make(map[string]port.Command)
	}

	name := NormalizeCommand(handler.GetCommand())
	if _, exists := r.commands[name]; exists {
		log.Warn().Str("handler", name).Msg("replacing registered command handler")
	}

	log.Debug().Str("handler", name).Msg("adding command handler to registry")
	r.commands[name] = handler
}

func (r *Registry) Get(command string) (port.Command, error) {
	name := NormalizeCommand(command)
	log.Debug().Str("command", name).Msg("fetching command handler from registry")

	if r.commands == nil {
		return nil, errors.New("can't fetch command, registry not initialized")
	}

	handler, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCommand, name)
	}

	return handler, nil
}

// ListCommands returns the registered command names in sorted order.
func (r *Registry) ListCommands() []string {
	keys := make([]string, 0, len(r.commands))
	for k := range r.commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// NormalizeCommand lowercases a command, strips the "@botname" suffix Telegram adds in group chats and adds the
// leading slash the console lets users omit.
func NormalizeCommand(command string) string {
	name, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(command)), "@")
	if name == "" || strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

func ParseCommandArgs(args string) string {
	trimmed := strings.TrimSpace(args)
	i := strings.IndexFunc(trimmed, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(trimmed[i:])
}

func ParseCommand(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
