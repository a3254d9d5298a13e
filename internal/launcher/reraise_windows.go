//go:build windows

package launcher

import (
	"os"
	"syscall"
)

// Reraise approximates signal-death exit status on Windows, which has no
// way to kill the current process with a specific signal.
func Reraise(sig syscall.Signal) {
	os.Exit(128 + int(sig))
}
