// Package worker supervises the deej process that does the actual mixing.
package worker

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultStopTimeout is how long a terminated worker gets before it is killed.
const DefaultStopTimeout = 3 * time.Second

// Options configures a Supervisor.
type Options struct {
	// Path of the worker executable and the directory it runs in.
	Path string
	Dir  string
	Args []string

	StopTimeout time.Duration
	Starter     Starter

	// OnExit is called when the worker exits without being asked to.
	OnExit func(pid, exitCode int)
}

type running struct {
	proc Process
	done chan struct{}
}

// Supervisor owns at most one worker process.
type Supervisor struct {
	opts   Options
	logger zerolog.Logger

	mu       sync.Mutex
	current  *running
	lastCode int
	lastTime time.Time

	wg sync.WaitGroup
}

func NewSupervisor(opts Options, logger zerolog.Logger) *Supervisor {
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.Starter == nil {
		opts.Starter = ExecStarter{}
	}
	return &Supervisor{
		opts:   opts,
		logger: logger.With().Str("component", "supervisor").Logger(),
	}
}

// OnDevicePresent starts the worker unless one is already running.
// On failure nothing is recorded, so the next call retries.
func (s *Supervisor) OnDevicePresent() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.logger.Debug().Int("pid", s.current.proc.Pid()).Msg("worker already running")
		return nil
	}

	proc, err := s.opts.Starter.Start(s.opts.Path, s.opts.Dir, s.opts.Args)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.opts.Path).Msg("failed to start worker")
		return fmt.Errorf("failed to start %s: %w", s.opts.Path, err)
	}

	r := &running{proc: proc, done: make(chan struct{})}
	s.current = r
	s.logger.Info().Int("pid", proc.Pid()).Str("path", s.opts.Path).Msg("worker started")

	s.wg.Add(1)
	go s.reap(r)
	return nil
}

// OnDeviceAbsent terminates the running worker, if any.
func (s *Supervisor) OnDeviceAbsent() {
	s.mu.Lock()
	r := s.current
	s.current = nil
	s.mu.Unlock()

	if r == nil {
		return
	}

	pid := r.proc.Pid()
	s.logger.Info().Int("pid", pid).Msg("terminating worker")
	if err := r.proc.Terminate(); err != nil {
		s.logger.Warn().Err(err).Int("pid", pid).Msg("failed to terminate worker")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(s.opts.StopTimeout)
		defer timer.Stop()
		select {
		case <-r.done:
		case <-timer.C:
			s.logger.Warn().Int("pid", pid).Msg("worker did not exit, killing")
			if err := r.proc.Kill(); err != nil {
				s.logger.Error().Err(err).Int("pid", pid).Msg("failed to kill worker")
			}
		}
	}()
}

// Shutdown stops the worker and waits for it to go away.
func (s *Supervisor) Shutdown() {
	s.OnDeviceAbsent()
	s.wg.Wait()
}

// Running reports whether a worker is owned.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// PID returns the running worker's pid, or 0.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0
	}
	return s.current.proc.Pid()
}

// LastExit returns the exit code and time of the last worker that exited.
func (s *Supervisor) LastExit() (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCode, s.lastTime
}

func (s *Supervisor) reap(r *running) {
	defer s.wg.Done()

	pid := r.proc.Pid()
	code, err := r.proc.Wait()
	close(r.done)
	if err != nil {
		s.logger.Warn().Err(err).Int("pid", pid).Msg("worker wait failed")
	}

	s.mu.Lock()
	s.lastCode = code
	s.lastTime = time.Now()
	unexpected := s.current == r
	if unexpected {
		s.current = nil
	}
	s.mu.Unlock()

	if !unexpected {
		s.logger.Info().Int("pid", pid).Int("exit_code", code).Msg("worker stopped")
		return
	}

	s.logger.Warn().Int("pid", pid).Int("exit_code", code).Msg("worker exited on its own")
	if s.opts.OnExit != nil {
		s.opts.OnExit(pid, code)
	}
}
