package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "deej", "config.yaml"), zerolog.Nop())
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), doc)
	for i := 0; i < SliderCount; i++ {
		assert.Empty(t, doc.SliderMapping.Targets(i))
	}
	assert.Equal(t, DefaultBaudRate, doc.BaudRate)
	assert.Equal(t, DefaultNoiseReduction, doc.NoiseReduction)
	assert.Empty(t, doc.COMPort)
}

func TestLoadEmptyFileReturnsDefault(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("\n"), 0644))

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), doc)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	doc := Default()
	require.NoError(t, doc.SliderMapping.Add(0, TargetMaster))
	require.NoError(t, doc.SliderMapping.Add(1, "chrome.exe", "spotify.exe", "chrome.exe"))
	require.NoError(t, doc.SliderMapping.Add(4, TargetUnmapped, TargetMic))
	doc.InvertSliders = true
	doc.COMPort = "COM4"

	require.NoError(t, s.Save(doc))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{TargetMaster}, loaded.SliderMapping.Targets(0))
	assert.Equal(t, []string{"chrome.exe", "spotify.exe"}, loaded.SliderMapping.Targets(1))
	assert.Empty(t, loaded.SliderMapping.Targets(2))
	assert.Empty(t, loaded.SliderMapping.Targets(3))
	assert.Equal(t, []string{TargetUnmapped, TargetMic}, loaded.SliderMapping.Targets(4))
	assert.True(t, loaded.InvertSliders)
	assert.Equal(t, "COM4", loaded.COMPort)
	assert.Equal(t, DefaultBaudRate, loaded.BaudRate)
	assert.Equal(t, DefaultNoiseReduction, loaded.NoiseReduction)
}

func TestSaveWritesAllSliders(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(&Document{SliderMapping: SliderMapping{}}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	text := string(data)
	for _, key := range []string{"0: []", "4: []", "baud_rate: 9600", "noise_reduction: default", "invert_sliders: false"} {
		assert.Contains(t, text, key)
	}
}

func TestLoadAcceptsSingleNameAndDuplicates(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	raw := `slider_mapping:
  0: master
  1:
    - firefox.exe
    - firefox.exe
    - discord.exe
  2:
  7:
    - ignored.exe
invert_sliders: true
`
	require.NoError(t, os.WriteFile(s.Path(), []byte(raw), 0644))

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"master"}, doc.SliderMapping.Targets(0))
	assert.Equal(t, []string{"firefox.exe", "discord.exe"}, doc.SliderMapping.Targets(1))
	assert.Empty(t, doc.SliderMapping.Targets(2))
	assert.Len(t, doc.SliderMapping, SliderCount)
	assert.True(t, doc.InvertSliders)
}

func TestLoadMalformedFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("slider_mapping: [unclosed"), 0644))

	_, err := s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestSaveCOMPortCreatesFile(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveCOMPort("/dev/ttyUSB0"))

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", doc.COMPort)
}

func TestSaveCOMPortPreservesOtherFields(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	raw := `# master volume on the first slider
slider_mapping:
  0:
    - master
  1:
    - chrome.exe
invert_sliders: true
com_port: COM1
process_refresh_frequency: 5
`
	require.NoError(t, os.WriteFile(s.Path(), []byte(raw), 0644))

	require.NoError(t, s.SaveCOMPort("COM7"))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# master volume on the first slider")
	assert.Contains(t, text, "process_refresh_frequency: 5")
	assert.Contains(t, text, "com_port: COM7")
	assert.NotContains(t, text, "COM1")

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"master"}, doc.SliderMapping.Targets(0))
	assert.Equal(t, []string{"chrome.exe"}, doc.SliderMapping.Targets(1))
	assert.True(t, doc.InvertSliders)
	assert.Equal(t, "COM7", doc.COMPort)
}

func TestSaveCOMPortRejectsNonMapping(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("- just\n- a list\n"), 0644))

	err := s.SaveCOMPort("COM3")
	require.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("x", "deej", "config.yaml"), DefaultPath(filepath.Join("x", "deej")))
}
