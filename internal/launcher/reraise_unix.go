//go:build !windows

package launcher

import (
	"os"
	"os/signal"
	"syscall"
)

// Reraise resets the handler for sig and re-raises it against the current
// process, so the parent's death reflects the same cause as the child's and
// shell signal semantics are preserved for scripting. The exit call below
// only runs if delivery races.
func Reraise(sig syscall.Signal) {
	signal.Reset(sig)
	_ = syscall.Kill(syscall.Getpid(), sig)
	os.Exit(128 + int(sig))
}
