//go:build darwin

package apps

// New returns the installed .app bundles lister.
func New() Lister {
	return DirLister{Dir: applicationsDir, Suffix: ".app"}
}
