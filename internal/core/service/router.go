package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"picbridge/internal/core/domain"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type outcome struct {
	response domain.Envelope
	err      error
}

type pendingRequest struct {
	action string
	line   []byte
	done   chan outcome
	timer  *time.Timer
}

// Router pairs requests written to a worker's stdin with the lines it prints on stdout. Responses carry no
// correlation ID: every JSON line answers the oldest pending request.
type Router struct {
	timeout time.Duration

	mu       sync.Mutex
	state    domain.WorkerState
	workerID string
	gen      uint64
	stdin    io.WriteCloser
	// queue holds every request waiting for a response, oldest first. outbox is the subset not yet written.
	queue  []*pendingRequest
	outbox []*pendingRequest
	wake   chan struct{}
	stop   chan struct{}
}

func NewRouter(timeout time.Duration) *Router {
	return &Router{timeout: timeout, state: domain.WorkerNotStarted}
}

// Submit writes one request line and waits for the matching response line. A worker-side failure comes back as
// a regular envelope with success=false; only transport problems produce an error.
func (r *Router) Submit(ctx context.Context, request domain.Envelope) (domain.Envelope, error) {
	line, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed encoding request: %w", err)
	}
	line = append(line, '\n')

	p := &pendingRequest{action: request.Action(), line: line, done: make(chan outcome, 1)}

	r.mu.Lock()
	if r.state != domain.WorkerReady {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: worker is %s", domain.ErrTransportUnavailable, state)
	}

	r.queue = append(r.queue, p)
	r.outbox = append(r.outbox, p)
	if r.timeout > 0 {
		p.timer = time.AfterFunc(r.timeout, func() {
			r.abandon(p, fmt.Errorf("%w after %s", domain.ErrRequestTimeout, r.timeout))
		})
	}
	wake := r.wake
	pending := len(r.queue)
	r.mu.Unlock()

	log.Debug().Str("action", p.action).Int("pending", pending).Msg("submitted request")

	select {
	case wake <- struct{}{}:
	default:
	}

	select {
	case out := <-p.done:
		return out.response, out.err
	case <-ctx.Done():
		r.abandon(p, ctx.Err())
		out := <-p.done
		return out.response, out.err
	}
}

// Attach hands a freshly started worker to the router. The returned channel is closed once the worker's stdout
// reaches EOF and the pending queue has been flushed.
func (r *Router) Attach(workerID string, stdin io.WriteCloser, stdout io.Reader) (<-chan struct{}, error) {
	r.mu.Lock()
	if r.state == domain.WorkerReady {
		r.mu.Unlock()
		return nil, fmt.Errorf("router is already attached to worker %s", r.workerID)
	}

	r.gen++
	gen := r.gen
	r.state = domain.WorkerReady
	r.workerID = workerID
	r.stdin = stdin
	r.wake = make(chan struct{}, 1)
	r.stop = make(chan struct{})
	wake, stop := r.wake, r.stop
	r.mu.Unlock()

	done := make(chan struct{})
	go r.readLoop(gen, workerID, stdout, done)
	go r.writeLoop(gen, stdin, wake, stop)

	log.Info().Str("worker", workerID).Msg("worker attached")

	return done, nil
}

// Close fails every pending request and closes the worker's stdin. The router can be attached again afterwards.
func (r *Router) Close() error {
	r.mu.Lock()
	var flushed []*pendingRequest
	stdin := r.stdin
	switch r.state {
	case domain.WorkerReady:
		flushed = r.detachLocked()
	case domain.WorkerStarting:
		r.state = domain.WorkerExited
	}
	r.stdin = nil
	r.mu.Unlock()

	deliver(flushed, domain.ErrRouterClosed)

	if stdin == nil {
		return nil
	}
	if err := stdin.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("failed closing worker stdin: %w", err)
	}
	return nil
}

func (r *Router) State() domain.WorkerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Pending reports how many requests are waiting for a response.
func (r *Router) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *Router) WorkerID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workerID
}

func (r *Router) markStarting() {
	r.mu.Lock()
	r.state = domain.WorkerStarting
	r.mu.Unlock()
}

func (r *Router) markLaunchFailed() {
	r.mu.Lock()
	if r.state == domain.WorkerStarting {
		r.state = domain.WorkerExited
	}
	r.mu.Unlock()
}

// markExited flushes the queue when the worker of generation gen goes away. Stale generations are ignored.
func (r *Router) markExited(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || r.state != domain.WorkerReady {
		r.mu.Unlock()
		return
	}
	flushed := r.detachLocked()
	workerID := r.workerID
	r.mu.Unlock()

	log.Warn().Str("worker", workerID).Int("flushed", len(flushed)).Msg("worker exited")
	deliver(flushed, domain.ErrWorkerExited)
}

func (r *Router) detachLocked() []*pendingRequest {
	flushed := r.queue
	r.queue = nil
	r.outbox = nil
	r.state = domain.WorkerExited
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
	return flushed
}

// abandon removes p from the queue and fails it with err. It is a no-op when p has already been resolved.
func (r *Router) abandon(p *pendingRequest, err error) {
	r.mu.Lock()
	found := false
	for i, q := range r.queue {
		if q == p {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			found = true
			break
		}
	}
	for i, q := range r.outbox {
		if q == p {
			r.outbox = append(r.outbox[:i], r.outbox[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if !found {
		return
	}

	stopTimer(p)
	log.Warn().Err(err).Str("action", p.action).Msg("request abandoned")
	p.done <- outcome{err: err}
}

func (r *Router) nextOutgoing(gen uint64) (*pendingRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen || r.state != domain.WorkerReady {
		return nil, false
	}
	if len(r.outbox) == 0 {
		return nil, true
	}

	p := r.outbox[0]
	r.outbox = r.outbox[1:]
	return p, true
}

func (r *Router) writeLoop(gen uint64, stdin io.Writer, wake <-chan struct{}, stop <-chan struct{}) {
	for {
		p, ok := r.nextOutgoing(gen)
		if !ok {
			return
		}
		if p == nil {
			select {
			case <-wake:
			case <-stop:
				return
			}
			continue
		}

		if _, err := stdin.Write(p.line); err != nil {
			r.abandon(p, fmt.Errorf("%w: %w", domain.ErrWriteFailed, err))
		}
	}
}

func (r *Router) readLoop(gen uint64, workerID string, stdout io.Reader, done chan struct{}) {
	defer close(done)

	l := log.With().Str("worker", workerID).Logger()
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if len(bytes.TrimSpace(line)) > 0 {
				l.Warn().Str("line", string(line)).Msg("dropping unterminated output")
			}
			if !errors.Is(err, io.EOF) {
				l.Error().Err(err).Msg("failed reading worker output")
			}
			r.markExited(gen)
			return
		}

		r.handleLine(gen, workerID, line)
	}
}

func (r *Router) handleLine(gen uint64, workerID string, line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	if line[0] != '{' {
		log.Info().Str("worker", workerID).Str("line", string(line)).Msg("worker output")
		return
	}

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	if len(r.queue) == 0 {
		r.mu.Unlock()
		log.Warn().Str("worker", workerID).Msg("dropping response without a pending request")
		return
	}
	p := r.queue[0]
	r.queue = r.queue[1:]
	r.mu.Unlock()

	stopTimer(p)

	var response domain.Envelope
	if err := json.Unmarshal(line, &response); err != nil {
		p.done <- outcome{err: fmt.Errorf("%w: %w", domain.ErrDecodeFailed, err)}
		return
	}

	log.Debug().Str("action", p.action).Bool("success", response.Success()).Msg("matched response")
	p.done <- outcome{response: response}
}

func deliver(flushed []*pendingRequest, err error) {
	for _, p := range flushed {
		stopTimer(p)
		p.done <- outcome{err: err}
	}
}

func stopTimer(p *pendingRequest) {
	if p.timer != nil {
		p.timer.Stop()
	}
}
