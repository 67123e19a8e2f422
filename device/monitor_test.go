package device

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	values, err := ParseLine("0|1023|512\r", false)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, float32(0), values[0])
	assert.Equal(t, float32(1), values[1])
	assert.InDelta(t, 0.5, values[2], 0.001)

	values, err = ParseLine("0|1023", true)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, values)
}

func TestParseLineRejectsGarbage(t *testing.T) {
	for _, line := range []string{"", "12|", "abc", "1024|0", "-1", "3|4|x"} {
		_, err := ParseLine(line, false)
		assert.Error(t, err, line)
	}
}

func TestNoiseThreshold(t *testing.T) {
	assert.Equal(t, float32(0.015), NoiseThreshold("low"))
	assert.Equal(t, float32(0.025), NoiseThreshold("default"))
	assert.Equal(t, float32(0.035), NoiseThreshold("HIGH"))
	assert.Equal(t, float32(0.025), NoiseThreshold(""))
}

func TestMoveFilter(t *testing.T) {
	f := newMoveFilter(0.025)

	// First reading reports every slider.
	assert.Len(t, f.moves([]float32{0.5, 0.2}), 2)

	// Jitter is dropped.
	assert.Empty(t, f.moves([]float32{0.51, 0.21}))

	// Real moves are reported.
	got := f.moves([]float32{0.6, 0.21})
	assert.Equal(t, []SliderMoveEvent{{SliderID: 0, PercentValue: 0.6}}, got)

	// Ends always count.
	f = newMoveFilter(0.025)
	f.moves([]float32{0.99})
	assert.Equal(t, []SliderMoveEvent{{SliderID: 0, PercentValue: 1}}, f.moves([]float32{1}))

	// A different slider count resets.
	assert.Len(t, f.moves([]float32{0.3, 0.3, 0.3}), 3)
}

func TestMonitorStartWithoutPort(t *testing.T) {
	m := NewMonitor(MonitorOptions{}, zerolog.Nop())
	assert.Equal(t, 9600, m.opts.BaudRate)

	_, _, err := m.Start()
	assert.Error(t, err)
	m.Close()
}

func TestMonitorOpenMissingPort(t *testing.T) {
	m := NewMonitor(MonitorOptions{BaudRate: 9600}, zerolog.Nop())
	err := m.Open("/dev/does-not-exist-deej")
	assert.Error(t, err)
}
