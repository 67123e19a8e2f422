//go:build !darwin && !windows

package apps

// New returns a lister with no applications; there is no portable way to
// find audio-producing programs here.
func New() Lister {
	return emptyLister{}
}
