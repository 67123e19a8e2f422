package device

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is how often the watcher polls for the device.
const DefaultInterval = 5 * time.Second

const eventBuffer = 8

// EventKind tags a device presence transition.
type EventKind int

const (
	DevicePresent EventKind = iota + 1
	DeviceAbsent
)

func (k EventKind) String() string {
	switch k {
	case DevicePresent:
		return "present"
	case DeviceAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Event is emitted once per presence transition.
type Event struct {
	Kind EventKind
	Path string
	// PersistErr is set when saving Path to the config failed.
	PersistErr error
}

// PortRecorder persists the path of a newly detected device.
type PortRecorder interface {
	SaveCOMPort(path string) error
}

// Transition compares two consecutive poll results. It returns the event to
// emit, or false when nothing changed.
func Transition(prev, cur string) (Event, bool) {
	if prev == cur {
		return Event{}, false
	}
	if cur == "" {
		return Event{Kind: DeviceAbsent}, true
	}
	return Event{Kind: DevicePresent, Path: cur}, true
}

// Watcher polls a Detector and publishes presence transitions.
type Watcher struct {
	detector *Detector
	recorder PortRecorder
	interval time.Duration
	events   chan Event
	logger   zerolog.Logger
}

func NewWatcher(detector *Detector, recorder PortRecorder, interval time.Duration, logger zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		detector: detector,
		recorder: recorder,
		interval: interval,
		events:   make(chan Event, eventBuffer),
		logger:   logger.With().Str("component", "watcher").Logger(),
	}
}

// Events returns the channel transitions are delivered on. It is closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run polls immediately and then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	w.logger.Info().Dur("interval", w.interval).Msg("watching for device")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var last string
	for {
		cur, _ := w.detector.Detect()
		if ev, ok := Transition(last, cur); ok {
			if ev.Kind == DevicePresent && w.recorder != nil {
				if err := w.recorder.SaveCOMPort(cur); err != nil {
					w.logger.Error().Err(err).Str("port", cur).Msg("failed to save device port")
					ev.PersistErr = err
				}
			}
			w.logger.Info().Stringer("event", ev.Kind).Str("port", cur).Msg("device state changed")
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return
			}
			last = cur
		}

		select {
		case <-ctx.Done():
			w.logger.Debug().Msg("watcher stopped")
			return
		case <-ticker.C:
		}
	}
}
