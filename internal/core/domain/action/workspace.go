package action

import (
	"context"
	"fmt"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/port"
)

// Workspace is what the handlers of one worker process share.
type Workspace struct {
	State    *domain.ImageState
	Codec    port.ImageCodec
	WorkerID string
}

func NewWorkspace(codec port.ImageCodec, workerID string) *Workspace {
	return &Workspace{State: &domain.ImageState{}, Codec: codec, WorkerID: workerID}
}

// show builds the response of every action that changes the current image.
func (w *Workspace) show(pic *domain.Picture, message string) (domain.Envelope, error) {
	preview, err := w.Codec.Preview(pic)
	if err != nil {
		return nil, err
	}

	return domain.Envelope{
		"message": message,
		"info":    pic.Info(),
		"preview": preview,
	}, nil
}

// operation is a parsed pixel operation ready to run against the current picture.
type operation func(pic *domain.Picture) (*domain.Picture, error)

// parseFunc validates the request parameters and returns the operation and the success message.
type parseFunc func(request domain.Envelope) (operation, string, error)

// mutation is a handler that replaces the current image. Parameters are validated before the image is looked
// up, so a bad parameter is reported even when no image is loaded.
type mutation struct {
	name  string
	ws    *Workspace
	parse parseFunc
}

func newMutation(ws *Workspace, name string, parse parseFunc) *mutation {
	return &mutation{name: name, ws: ws, parse: parse}
}

func (m *mutation) Name() string {
	return m.name
}

func (m *mutation) Handle(_ context.Context, request domain.Envelope) (domain.Envelope, error) {
	op, message, err := m.parse(request)
	if err != nil {
		return nil, err
	}

	current, err := m.ws.State.Current()
	if err != nil {
		return nil, err
	}

	next, err := op(current)
	if err != nil {
		return nil, err
	}

	m.ws.State.Replace(next)
	return m.ws.show(next, message)
}

// simple wraps a parameterless operation.
func simple(op operation, message string) parseFunc {
	return func(domain.Envelope) (operation, string, error) {
		return op, message, nil
	}
}

func requireString(request domain.Envelope, key string) (string, error) {
	s, err := request.String(key, "")
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("missing %s parameter", key)
	}
	return s, nil
}

func requireInt(request domain.Envelope, key string) (int, error) {
	if !request.Has(key) {
		return 0, fmt.Errorf("missing %s parameter", key)
	}
	return request.Int(key, 0)
}
