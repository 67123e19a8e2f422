package worker

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Process is a started worker.
type Process interface {
	Pid() int
	// Terminate asks the process to exit.
	Terminate() error
	Kill() error
	// Wait blocks until the process exits and returns its exit code.
	Wait() (int, error)
}

// Starter launches worker processes.
type Starter interface {
	Start(path, dir string, args []string) (Process, error)
}

// ExecStarter starts real operating system processes.
type ExecStarter struct{}

func (ExecStarter) Start(path, dir string, args []string) (Process, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Terminate() error {
	return terminate(p.cmd.Process)
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("failed to wait for worker: %w", err)
}
