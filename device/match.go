// Package device finds the mixer's serial port and reports when it comes and goes.
package device

import (
	"strconv"
	"strings"

	"go.bug.st/serial/enumerator"
)

// USBID identifies a USB serial adapter. A zero PID with AnyPID set matches
// every product of the vendor.
type USBID struct {
	VID    uint16
	PID    uint16
	AnyPID bool
}

// Matcher decides whether a serial port belongs to the mixer.
type Matcher struct {
	Keywords []string
	IDs      []USBID
}

// DefaultMatcher recognises Arduino boards and the common CH340 and FTDI adapters.
var DefaultMatcher = Matcher{
	Keywords: []string{"Arduino", "CH340"},
	IDs: []USBID{
		{VID: 0x1A86, PID: 0x7523},  // CH340
		{VID: 0x2341, AnyPID: true}, // Arduino
		{VID: 0x0403, PID: 0x6001},  // FTDI
	},
}

// Description is the text searched for keywords: the USB product string,
// or the port name when the platform reports none.
func Description(p *enumerator.PortDetails) string {
	if p.Product != "" {
		return p.Product
	}
	return p.Name
}

// Match reports whether p is a recognised device.
func (m Matcher) Match(p *enumerator.PortDetails) bool {
	if p == nil {
		return false
	}
	desc := Description(p)
	for _, kw := range m.Keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}

	vid, vok := parseID(p.VID)
	pid, pok := parseID(p.PID)
	if !vok || !pok {
		return false
	}
	for _, id := range m.IDs {
		if id.VID == vid && (id.AnyPID || id.PID == pid) {
			return true
		}
	}
	return false
}

// parseID parses the hex VID/PID strings reported by the enumerator.
func parseID(s string) (uint16, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}
