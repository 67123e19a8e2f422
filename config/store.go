// Package config reads and writes deej's config.yaml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	deejDirName    = "deej"
	configFileName = "config.yaml"

	// DefaultBaudRate and DefaultNoiseReduction are fixed; the manager never lets users change them.
	DefaultBaudRate       = 9600
	DefaultNoiseReduction = "default"
)

// Document is the persisted deej configuration.
type Document struct {
	SliderMapping  SliderMapping `yaml:"slider_mapping"`
	InvertSliders  bool          `yaml:"invert_sliders"`
	BaudRate       int           `yaml:"baud_rate"`
	NoiseReduction string        `yaml:"noise_reduction"`
	COMPort        string        `yaml:"com_port"`
}

// Default returns the document used when no config file exists.
func Default() *Document {
	return &Document{
		SliderMapping:  NewSliderMapping(),
		BaudRate:       DefaultBaudRate,
		NoiseReduction: DefaultNoiseReduction,
	}
}

func (d *Document) normalize() {
	d.SliderMapping = d.SliderMapping.normalize()
	if d.BaudRate == 0 {
		d.BaudRate = DefaultBaudRate
	}
	if d.NoiseReduction == "" {
		d.NoiseReduction = DefaultNoiseReduction
	}
}

// DefaultDeejDir returns ~/deej, where deej and its config live.
func DefaultDeejDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(home, deejDirName), nil
}

// DefaultPath returns the config file path inside deejDir.
func DefaultPath(deejDir string) string {
	return filepath.Join(deejDir, configFileName)
}

// Store loads and saves a Document at a fixed path.
type Store struct {
	path   string
	logger zerolog.Logger

	mu    sync.Mutex
	known []byte // last content read or written by this store
}

func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "config").Logger(),
	}
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document from disk. Returns the default document if the file doesn't exist.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug().Str("path", s.path).Msg("config file missing, using defaults")
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	doc := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	doc.normalize()
	s.remember(data)

	s.logger.Debug().Str("path", s.path).Msg("config loaded")
	return doc, nil
}

// Save overwrites the config file with doc.
func (s *Store) Save(doc *Document) error {
	out := *doc
	out.SliderMapping = doc.SliderMapping.Clone()
	out.normalize()

	data, err := encode(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := s.write(data); err != nil {
		return err
	}

	s.logger.Info().Str("path", s.path).Msg("config saved")
	return nil
}

// SaveCOMPort sets com_port in the existing file, keeping every other key,
// its order and its comments.
func (s *Store) SaveCOMPort(port string) error {
	var root yaml.Node
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if root.Kind == 0 {
		root = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("failed to update config: top level is not a mapping")
	}

	setString(root.Content[0], "com_port", port)

	out, err := encode(&root)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := s.write(out); err != nil {
		return err
	}

	s.logger.Info().Str("com_port", port).Msg("device port saved")
	return nil
}

func setString(mapping *yaml.Node, key, value string) {
	v := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			v.LineComment = mapping.Content[i+1].LineComment
			mapping.Content[i+1] = v
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Store) write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	s.remember(data)
	return nil
}

func (s *Store) remember(data []byte) {
	s.mu.Lock()
	s.known = append(s.known[:0], data...)
	s.mu.Unlock()
}

// changed reports whether data differs from what the store last read or wrote,
// and records it as known.
func (s *Store) changed(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(data, s.known) {
		return false
	}
	s.known = append(s.known[:0], data...)
	return true
}
