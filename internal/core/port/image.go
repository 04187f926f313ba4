package port

import (
	"context"
	"picbridge/internal/core/domain"
)

// ImageService is the presentation-facing view of the worker. Every call returns the worker's response envelope
// unchanged; the error is only set for router failures.
type ImageService interface {
	Call(ctx context.Context, action string, params domain.Envelope) (domain.Envelope, error)
	LoadFile(ctx context.Context, path string) (domain.Envelope, error)
	LoadBase64(ctx context.Context, data string) (domain.Envelope, error)
	SaveFile(ctx context.Context, path string, quality int) (domain.Envelope, error)
	GetInfo(ctx context.Context) (domain.Envelope, error)
	BatchLoad(ctx context.Context, folder string) (domain.Envelope, error)
	Reset(ctx context.Context) (domain.Envelope, error)
	Clear(ctx context.Context) (domain.Envelope, error)
	ListActions(ctx context.Context) (domain.Envelope, error)
	Ping(ctx context.Context) (domain.Envelope, error)
}

type FileFetcher interface {
	// Fetch downloads the file behind url.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
