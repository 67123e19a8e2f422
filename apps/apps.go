// Package apps lists the applications a slider can be bound to.
package apps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Lister returns candidate application names for the current platform.
type Lister interface {
	List() ([]string, error)
}

// ListOrEmpty calls l and logs any error, returning an empty list instead.
func ListOrEmpty(l Lister, logger zerolog.Logger) []string {
	if l == nil {
		return []string{}
	}
	names, err := l.List()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to list applications")
		return []string{}
	}
	return names
}

// DirLister lists directory entries with a given suffix, such as
// the bundles in /Applications.
type DirLister struct {
	Dir    string
	Suffix string
}

func (d DirLister) List() ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.Dir, err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), d.Suffix) {
			names = append(names, e.Name())
		}
	}
	return normalize(names), nil
}

// emptyLister is used on platforms without an application source.
type emptyLister struct{}

func (emptyLister) List() ([]string, error) { return []string{}, nil }

// normalize drops blank and "Unknown" names, removes duplicates and sorts.
func normalize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || n == "Unknown" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// applicationsDir is where macOS keeps installed bundles.
var applicationsDir = filepath.FromSlash("/Applications")
