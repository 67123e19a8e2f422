package device

import (
	"github.com/rs/zerolog"
	"go.bug.st/serial/enumerator"
)

// PortLister enumerates the serial ports currently attached.
type PortLister interface {
	Ports() ([]*enumerator.PortDetails, error)
}

// PortListerFunc adapts a function to PortLister.
type PortListerFunc func() ([]*enumerator.PortDetails, error)

func (f PortListerFunc) Ports() ([]*enumerator.PortDetails, error) { return f() }

// SystemPorts lists ports through the platform enumerator.
var SystemPorts PortLister = PortListerFunc(enumerator.GetDetailedPortsList)

// PortInfo is an enumerated port and whether it matched.
type PortInfo struct {
	Name        string
	Description string
	VID         string
	PID         string
	Matched     bool
}

// Detector looks for the mixer among the attached serial ports.
type Detector struct {
	lister  PortLister
	matcher Matcher
	logger  zerolog.Logger
}

func NewDetector(lister PortLister, matcher Matcher, logger zerolog.Logger) *Detector {
	if lister == nil {
		lister = SystemPorts
	}
	return &Detector{
		lister:  lister,
		matcher: matcher,
		logger:  logger.With().Str("component", "detector").Logger(),
	}
}

// Detect returns the path of the first matching port. Enumeration errors are
// logged and reported as no device.
func (d *Detector) Detect() (string, bool) {
	ports, err := d.lister.Ports()
	if err != nil {
		d.logger.Warn().Err(err).Msg("failed to enumerate serial ports")
		return "", false
	}
	for _, p := range ports {
		if d.matcher.Match(p) {
			return p.Name, true
		}
	}
	return "", false
}

// Ports returns every enumerated port with its match result.
func (d *Detector) Ports() ([]PortInfo, error) {
	ports, err := d.lister.Ports()
	if err != nil {
		return nil, err
	}
	out := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		if p == nil {
			continue
		}
		out = append(out, PortInfo{
			Name:        p.Name,
			Description: Description(p),
			VID:         p.VID,
			PID:         p.PID,
			Matched:     d.matcher.Match(p),
		})
	}
	return out, nil
}
