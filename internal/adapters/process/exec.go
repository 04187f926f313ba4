package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"picbridge/internal/core/port"

	"github.com/rs/zerolog/log"
)

// WorkerIDEnv carries the worker instance ID into the child so it can answer pings with it.
const WorkerIDEnv = "PICBRIDGE_WORKER_ID"

// ExecLauncher starts workers as child processes.
type ExecLauncher struct {
	runtime Runtime
	env     []string
}

// NewExecLauncher runs runtime with the parent's environment plus env.
func NewExecLauncher(runtime Runtime, env ...string) *ExecLauncher {
	return &ExecLauncher{runtime: runtime, env: env}
}

// Launch starts the worker. ctx only bounds the start itself; the child outlives it and is stopped through its
// stdin or Kill.
func (l *ExecLauncher) Launch(_ context.Context, workerID string) (port.WorkerProcess, error) {
	cmd := exec.Command(l.runtime.Path, l.runtime.Args...)
	cmd.Env = append(append(os.Environ(), l.env...), WorkerIDEnv+"="+workerID)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed starting %s: %w", l.runtime.Path, err)
	}

	log.Debug().Str("worker", workerID).Str("path", l.runtime.Path).Int("pid", cmd.Process.Pid).
		Msg("worker process started")

	return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *execProcess) Stdout() io.Reader     { return p.stdout }
func (p *execProcess) Stderr() io.Reader     { return p.stderr }
func (p *execProcess) Pid() int              { return p.cmd.Process.Pid }

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *execProcess) Kill() error {
	err := p.cmd.Process.Kill()
	if err != nil && err != os.ErrProcessDone {
		return err
	}
	return nil
}
