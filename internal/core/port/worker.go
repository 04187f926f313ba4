package port

import (
	"context"
	"io"
	"picbridge/internal/core/domain"
)

// WorkerProcess is a running worker child with its three standard streams.
type WorkerProcess interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process has exited. It must only be called after Stdout and Stderr are drained.
	Wait() error
	Kill() error
	Pid() int
}

type Launcher interface {
	// Launch starts a new worker process tagged with the given worker ID.
	Launch(ctx context.Context, workerID string) (WorkerProcess, error)
}

type Submitter interface {
	// Submit sends one request to the worker and blocks until its response, a timeout, cancellation of ctx or the
	// death of the worker.
	Submit(ctx context.Context, request domain.Envelope) (domain.Envelope, error)
}

type Dispatcher interface {
	// Dispatch executes one request in the worker and always produces a response envelope.
	Dispatch(ctx context.Context, request domain.Envelope) domain.Envelope
}

type WorkerStatus interface {
	State() domain.WorkerState
	Pending() int
	WorkerID() string
}

type WorkerControl interface {
	// EnsureReady starts the worker if it is not running yet.
	EnsureReady(ctx context.Context) error
	// Restart stops the current worker, if any, and starts a fresh one.
	Restart(ctx context.Context) error
}

type ImageCodec interface {
	// Open reads and decodes an image file.
	Open(path string) (*domain.Picture, error)
	// Decode decodes an encoded image held in memory.
	Decode(data []byte) (*domain.Picture, error)
	// Save encodes the picture into path, choosing the format from the file extension.
	Save(picture *domain.Picture, path string, quality int) error
	// Encode returns the picture encoded in the named format.
	Encode(picture *domain.Picture, format string) ([]byte, error)
	// Preview returns a downscaled JPEG of the picture as base64.
	Preview(picture *domain.Picture) (string, error)
	// ListImages returns the image files found directly inside dir.
	ListImages(dir string) ([]string, error)
}
