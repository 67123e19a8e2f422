package device

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// maxSliderValue is the highest raw reading the firmware sends.
const maxSliderValue = 1023

// ErrMonitorRunning is returned by Start when the monitor is already reading.
var ErrMonitorRunning = errors.New("monitor already running")

// SliderMoveEvent is a slider position reported by the mixer.
type SliderMoveEvent struct {
	SliderID     int
	PercentValue float32
}

// NoiseThreshold returns the minimum change in percent a slider must move
// before it is reported, for the config's noise_reduction setting.
func NoiseThreshold(level string) float32 {
	switch strings.ToLower(level) {
	case "low":
		return 0.015
	case "high":
		return 0.035
	default:
		return 0.025
	}
}

// ParseLine parses one "v0|v1|...|vN" line into percentages. invert flips
// every value.
func ParseLine(line string, invert bool) ([]float32, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, errors.New("empty line")
	}
	parts := strings.Split(line, "|")
	out := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > maxSliderValue {
			return nil, fmt.Errorf("invalid slider value %q", p)
		}
		pct := float32(v) / maxSliderValue
		if invert {
			pct = 1 - pct
		}
		out[i] = pct
	}
	return out, nil
}

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	BaudRate       int
	InvertSliders  bool
	NoiseReduction string
}

// Monitor reads slider positions straight from the mixer. It cannot run
// while deej holds the port.
type Monitor struct {
	mu      sync.Mutex
	port    serial.Port
	opts    MonitorOptions
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{} // closed when the reader goroutine exits
	logger  zerolog.Logger
}

func NewMonitor(opts MonitorOptions, logger zerolog.Logger) *Monitor {
	if opts.BaudRate == 0 {
		opts.BaudRate = 9600
	}
	return &Monitor{
		opts:   opts,
		logger: logger.With().Str("component", "monitor").Logger(),
	}
}

// Open connects to the serial port.
func (m *Monitor) Open(portName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.port != nil {
		return fmt.Errorf("port already open")
	}

	mode := &serial.Mode{
		BaudRate: m.opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", portName, err)
	}
	if err := p.SetReadTimeout(100 * time.Millisecond); err != nil {
		p.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}
	m.port = p
	m.logger.Info().Str("port", portName).Int("baud", m.opts.BaudRate).Msg("port opened")
	return nil
}

// Close stops reading and closes the port.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.running {
		close(m.stopCh)
		m.running = false
	}
	done := m.doneCh
	port := m.port
	m.port = nil
	m.mu.Unlock()

	if done != nil {
		<-done
	}
	if port != nil {
		port.Close()
	}
}

// Start reads lines in a goroutine and sends significant slider moves on the
// returned channel. A read error is sent on the error channel and ends reading.
func (m *Monitor) Start() (<-chan SliderMoveEvent, <-chan error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.port == nil {
		return nil, nil, fmt.Errorf("port not open")
	}
	if m.running {
		return nil, nil, ErrMonitorRunning
	}

	events := make(chan SliderMoveEvent, 64)
	errCh := make(chan error, 1)
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.running = true

	go m.read(m.port, m.stopCh, m.doneCh, events, errCh)
	return events, errCh, nil
}

func (m *Monitor) read(port serial.Port, stop, done chan struct{}, events chan<- SliderMoveEvent, errCh chan<- error) {
	defer close(done)
	defer close(events)

	filter := newMoveFilter(NoiseThreshold(m.opts.NoiseReduction))
	buf := make([]byte, 256)
	var partial []byte

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := port.Read(buf)
		if n > 0 {
			partial = append(partial, buf[:n]...)
			for {
				idx := bytes.IndexByte(partial, '\n')
				if idx < 0 {
					break
				}
				line := string(partial[:idx])
				partial = partial[idx+1:]

				values, perr := ParseLine(line, m.opts.InvertSliders)
				if perr != nil {
					// Lines are often cut in half right after connecting.
					m.logger.Debug().Err(perr).Msg("skipping line")
					continue
				}
				for _, ev := range filter.moves(values) {
					select {
					case events <- ev:
					case <-stop:
						return
					}
				}
			}
		}

		if err != nil {
			select {
			case <-stop:
				return
			default:
			}
			errCh <- err
			return
		}
	}
}

// moveFilter suppresses slider jitter below a threshold.
type moveFilter struct {
	threshold float32
	last      []float32
}

func newMoveFilter(threshold float32) *moveFilter {
	return &moveFilter{threshold: threshold}
}

func (f *moveFilter) moves(values []float32) []SliderMoveEvent {
	if len(f.last) != len(values) {
		f.last = make([]float32, len(values))
		for i := range f.last {
			f.last[i] = -1
		}
	}
	var out []SliderMoveEvent
	for i, v := range values {
		if !f.significant(f.last[i], v) {
			continue
		}
		f.last[i] = v
		out = append(out, SliderMoveEvent{SliderID: i, PercentValue: v})
	}
	return out
}

// significant reports whether a move from prev to cur should be reported.
// Reaching either end always counts so sliders can hit 0 and 100.
func (f *moveFilter) significant(prev, cur float32) bool {
	if prev < 0 {
		return true
	}
	if cur == prev {
		return false
	}
	if (cur == 0 || cur == 1) && prev != cur {
		return true
	}
	return float32(math.Abs(float64(cur-prev))) >= f.threshold
}
