//go:build windows

package worker

import "os"

// Windows has no SIGTERM; Kill calls TerminateProcess.
func terminate(p *os.Process) error {
	return p.Kill()
}
