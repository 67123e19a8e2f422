package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"deej-manager/apps"
	"deej-manager/config"
	"deej-manager/device"
	"deej-manager/logging"
	"deej-manager/worker"

	"github.com/rs/zerolog"
)

// appContext owns everything that lives for the whole program.
type appContext struct {
	settings   settings
	logger     zerolog.Logger
	store      *config.Store
	detector   *device.Detector
	watcher    *device.Watcher
	supervisor *worker.Supervisor
	apps       apps.Lister

	// devicePath is the last path delivered by the watcher; only the event consumer touches it.
	devicePath string

	// workerExited is called from the supervisor's goroutine when deej dies on its own.
	workerExited func(pid, code int)
}

func newAppContext(s settings, logger zerolog.Logger, ports device.PortLister, starter worker.Starter) *appContext {
	a := &appContext{
		settings: s,
		logger:   logger,
		apps:     apps.New(),
	}
	a.store = config.NewStore(s.ConfigPath, logger)
	a.detector = device.NewDetector(ports, device.DefaultMatcher, logger)
	a.watcher = device.NewWatcher(a.detector, a.store, s.PollInterval, logger)
	a.supervisor = worker.NewSupervisor(worker.Options{
		Path:    s.WorkerPath,
		Dir:     s.DeejDir,
		Starter: starter,
		OnExit: func(pid, code int) {
			if a.workerExited != nil {
				a.workerExited(pid, code)
			}
		},
	}, logger)
	return a
}

// newLogger writes to stderr and, when configured, to the log file.
func newLogger(s settings) (zerolog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if s.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.LogFile), 0755); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeFn = func() { _ = f.Close() }
	}
	return logging.New(s.LogLevel, w), closeFn, nil
}

// handleEvent applies a device transition to the supervisor. The returned
// errors are for the user; they never stop the watcher.
func (a *appContext) handleEvent(ev device.Event) []error {
	var errs []error
	switch ev.Kind {
	case device.DevicePresent:
		a.devicePath = ev.Path
		if ev.PersistErr != nil {
			errs = append(errs, fmt.Errorf("failed to save device port to %s: %w", a.store.Path(), ev.PersistErr))
		}
		if err := a.supervisor.OnDevicePresent(); err != nil {
			errs = append(errs, err)
		}
	case device.DeviceAbsent:
		a.devicePath = ""
		a.supervisor.OnDeviceAbsent()
	}
	return errs
}

// runHeadless drives the supervisor from device events until ctx is done.
func (a *appContext) runHeadless(ctx context.Context) {
	go a.watcher.Run(ctx)
	go func() {
		if err := a.store.Watch(ctx, func() {
			a.logger.Info().Msg("config.yaml edited; deej picks up changes itself")
		}); err != nil {
			a.logger.Warn().Err(err).Msg("config watch disabled")
		}
	}()

	for ev := range a.watcher.Events() {
		for _, err := range a.handleEvent(ev) {
			a.logger.Error().Err(err).Msg("device event")
		}
	}
	a.supervisor.Shutdown()
	a.logger.Info().Msg("stopped")
}
