package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")
	ErrBusy               = errors.New("still working on the previous request")
	ErrUnknownCommand     = errors.New("unknown command")

	// Router failures. Domain failures come back as success=false envelopes instead.
	ErrTransportUnavailable = errors.New("worker transport unavailable")
	ErrWriteFailed          = errors.New("failed writing request to worker")
	ErrRequestTimeout       = errors.New("worker request timed out")
	ErrDecodeFailed         = errors.New("failed decoding worker response")
	ErrWorkerExited         = fmt.Errorf("worker process exited: %w", ErrTransportUnavailable)
	ErrRouterClosed         = fmt.Errorf("router closed: %w", ErrTransportUnavailable)

	ErrNoImage    = errors.New("no image loaded")
	ErrNoOriginal = errors.New("no original image to reset to")
)
