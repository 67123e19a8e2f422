package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SliderCount is the number of physical sliders on the mixer.
const SliderCount = 5

// ErrInvalidSlider is returned for slider indexes outside 0..SliderCount-1.
var ErrInvalidSlider = errors.New("invalid slider index")

// Targets is the ordered list of target identifiers bound to one slider.
// deej accepts either a single name or a list, so both decode.
type Targets []string

func (t *Targets) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || value.Value == "" {
			*t = Targets{}
			return nil
		}
		*t = Targets{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*t = Targets(list)
		return nil
	default:
		return fmt.Errorf("slider targets must be a name or a list, got line %d", value.Line)
	}
}

// SliderMapping maps a slider index to its targets.
type SliderMapping map[int]Targets

// NewSliderMapping returns a mapping with every slider present and empty.
func NewSliderMapping() SliderMapping {
	m := make(SliderMapping, SliderCount)
	for i := 0; i < SliderCount; i++ {
		m[i] = Targets{}
	}
	return m
}

func checkSlider(slider int) error {
	if slider < 0 || slider >= SliderCount {
		return fmt.Errorf("%w: %d", ErrInvalidSlider, slider)
	}
	return nil
}

// Add appends targets to a slider and drops any duplicates, keeping first occurrences.
func (m SliderMapping) Add(slider int, targets ...string) error {
	if err := checkSlider(slider); err != nil {
		return err
	}
	m[slider] = Dedupe(append(m[slider], targets...))
	return nil
}

// Remove deletes target from a slider. Removing an absent target is a no-op.
func (m SliderMapping) Remove(slider int, target string) error {
	if err := checkSlider(slider); err != nil {
		return err
	}
	current := m[slider]
	out := make(Targets, 0, len(current))
	for _, id := range current {
		if id != target {
			out = append(out, id)
		}
	}
	m[slider] = out
	return nil
}

// Set replaces a slider's targets.
func (m SliderMapping) Set(slider int, targets []string) error {
	if err := checkSlider(slider); err != nil {
		return err
	}
	m[slider] = Dedupe(targets)
	return nil
}

// Targets returns a copy of the targets bound to slider.
func (m SliderMapping) Targets(slider int) []string {
	out := make([]string, len(m[slider]))
	copy(out, m[slider])
	return out
}

// Clone returns a deep copy of the mapping.
func (m SliderMapping) Clone() SliderMapping {
	out := make(SliderMapping, len(m))
	for k, v := range m {
		out[k] = append(Targets{}, v...)
	}
	return out
}

// normalize fills missing sliders, drops out of range ones and deduplicates.
func (m SliderMapping) normalize() SliderMapping {
	out := NewSliderMapping()
	for i := 0; i < SliderCount; i++ {
		out[i] = Dedupe(m[i])
	}
	return out
}

// Dedupe returns targets with blanks and repeated entries removed, order preserved.
func Dedupe(targets []string) Targets {
	seen := make(map[string]struct{}, len(targets))
	out := make(Targets, 0, len(targets))
	for _, id := range targets {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
