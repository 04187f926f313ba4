package action

import (
	"context"
	"errors"
	"fmt"
	"picbridge/internal/core/domain"
	"sort"

	"github.com/rs/zerolog/log"
)

// Handler executes one worker action against the worker's image state.
type Handler interface {
	// Name returns the action discriminator the handler answers to.
	Name() string
	// Handle runs the action. Returned errors become success=false responses.
	Handle(ctx context.Context, request domain.Envelope) (domain.Envelope, error)
}

type Registry struct {
	handlers map[string]Handler
}

func (r *Registry) Register(handler Handler) {
	if r.handlers == nil {
		r.handlers = make(map[string]Handler)
	}

	log.Debug().Str("action", handler.Name()).Msg("adding action handler to registry")
	r.handlers[handler.Name()] = handler
}

func (r *Registry) Get(name string) (Handler, error) {
	if r.handlers == nil {
		return nil, errors.New("can't fetch action, registry not initialized")
	}

	handler, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown action: %s", name)
	}

	return handler, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler for the request's action and always returns exactly one response envelope, including
// when the handler panics.
func (r *Registry) Dispatch(ctx context.Context, request domain.Envelope) (response domain.Envelope) {
	name := request.Action()
	l := log.With().Str("action", name).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			l.Error().Interface("panic", rec).Msg("action panicked")
			response = domain.Failure(fmt.Errorf("internal error: %v", rec))
		}
	}()

	handler, err := r.Get(name)
	if err != nil {
		l.Warn().Err(err).Msg("rejecting request")
		return domain.Failure(err)
	}

	resp, err := handler.Handle(ctx, request)
	if err != nil {
		l.Info().Err(err).Msg("action failed")
		return domain.Failure(err)
	}

	l.Debug().Msg("action done")
	return domain.Success(resp)
}
