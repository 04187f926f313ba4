package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/port"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxStderrLine = 1024 * 1024

// WorkerManager starts worker processes, attaches them to the router and tears them down. It never restarts a
// worker on its own.
type WorkerManager struct {
	launcher  port.Launcher
	router    *Router
	handshake bool
	stopGrace time.Duration

	mu      sync.Mutex
	current *workerHandle
}

type workerHandle struct {
	id     string
	proc   port.WorkerProcess
	exited chan struct{}
	err    error
}

func NewWorkerManager(launcher port.Launcher, router *Router, handshake bool, stopGrace time.Duration) *WorkerManager {
	return &WorkerManager{
		launcher:  launcher,
		router:    router,
		handshake: handshake,
		stopGrace: stopGrace,
	}
}

// EnsureReady starts a worker unless one is already attached and alive.
func (m *WorkerManager) EnsureReady(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ensureLocked(ctx)
}

// Restart stops the current worker, if any, and starts a new one.
func (m *WorkerManager) Restart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stopLocked(ctx); err != nil {
		log.Warn().Err(err).Msg("error stopping worker before restart")
	}
	return m.ensureLocked(ctx)
}

// Stop fails all pending requests, closes the worker's stdin and waits for it to exit. The worker is killed once
// the grace period runs out.
func (m *WorkerManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stopLocked(ctx)
}

func (m *WorkerManager) ensureLocked(ctx context.Context) error {
	if m.router.State() == domain.WorkerReady {
		return nil
	}

	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed generating worker id: %w", err)
	}
	workerID := id.String()
	l := log.With().Str("worker", workerID).Logger()

	m.router.markStarting()
	l.Debug().Msg("launching worker")

	proc, err := m.launcher.Launch(ctx, workerID)
	if err != nil {
		m.router.markLaunchFailed()
		return fmt.Errorf("failed launching worker: %w", err)
	}

	readerDone, err := m.router.Attach(workerID, proc.Stdin(), proc.Stdout())
	if err != nil {
		m.router.markLaunchFailed()
		_ = proc.Kill()
		return fmt.Errorf("failed attaching worker: %w", err)
	}

	h := &workerHandle{id: workerID, proc: proc, exited: make(chan struct{})}
	m.current = h

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		logStderr(l, proc.Stderr())
	}()
	go h.reap(l, readerDone, stderrDone)

	if m.handshake {
		if err := m.ping(ctx, workerID); err != nil {
			if stopErr := m.stopLocked(ctx); stopErr != nil {
				l.Warn().Err(stopErr).Msg("error stopping worker after failed handshake")
			}
			return fmt.Errorf("worker handshake failed: %w", err)
		}
	}

	l.Info().Int("pid", proc.Pid()).Msg("worker ready")
	return nil
}

func (m *WorkerManager) ping(ctx context.Context, workerID string) error {
	resp, err := m.router.Submit(ctx, domain.NewRequest(domain.ActionPing))
	if err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("ping failed: %s", resp.ErrorMessage())
	}

	// workers that do not know their id leave it out
	if got, ok := resp["worker_id"].(string); ok && got != "" && got != workerID {
		return fmt.Errorf("ping answered by worker %s, expected %s", got, workerID)
	}
	return nil
}

func (m *WorkerManager) stopLocked(ctx context.Context) error {
	closeErr := m.router.Close()

	h := m.current
	m.current = nil
	if h == nil {
		return closeErr
	}

	l := log.With().Str("worker", h.id).Logger()

	timer := time.NewTimer(m.stopGrace)
	defer timer.Stop()

	select {
	case <-h.exited:
		l.Debug().Msg("worker stopped")
		return closeErr
	case <-timer.C:
		l.Warn().Dur("grace", m.stopGrace).Msg("worker did not exit in time, killing")
	case <-ctx.Done():
		l.Warn().Err(ctx.Err()).Msg("stop cancelled, killing worker")
	}

	if err := h.proc.Kill(); err != nil {
		l.Error().Err(err).Msg("failed to kill worker")
		return fmt.Errorf("failed killing worker: %w", err)
	}
	<-h.exited

	return closeErr
}

// reap waits for the process once both of its output streams are drained.
func (h *workerHandle) reap(l zerolog.Logger, readerDone, stderrDone <-chan struct{}) {
	<-readerDone
	<-stderrDone

	h.err = h.proc.Wait()
	close(h.exited)

	if h.err != nil {
		l.Warn().Err(h.err).Msg("worker process ended")
		return
	}
	l.Info().Msg("worker process ended")
}

func logStderr(l zerolog.Logger, stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), maxStderrLine)

	for scanner.Scan() {
		relayLogLine(l, scanner.Bytes())
	}

	if err := scanner.Err(); err != nil {
		l.Warn().Err(err).Msg("stopped parsing worker stderr")
		// keep draining so the worker never blocks on a full pipe
		_, _ = io.Copy(io.Discard, stderr)
	}
}

// relayLogLine re-logs one line of worker stderr. Lines written by the worker's own zerolog keep their level,
// message and fields. Anything else is logged verbatim at info.
func relayLogLine(l zerolog.Logger, line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var entry map[string]any
	if line[0] != '{' || json.Unmarshal(line, &entry) != nil {
		l.Info().Str("line", string(line)).Msg("worker stderr")
		return
	}

	level := zerolog.InfoLevel
	if s, ok := entry[zerolog.LevelFieldName].(string); ok {
		if parsed, err := zerolog.ParseLevel(s); err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
	}
	msg, _ := entry[zerolog.MessageFieldName].(string)

	delete(entry, zerolog.LevelFieldName)
	delete(entry, zerolog.MessageFieldName)
	delete(entry, zerolog.TimestampFieldName)

	l.WithLevel(level).Fields(entry).Msg(msg)
}
