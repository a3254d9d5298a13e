package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// ExitStatus describes how the supervised child terminated. Signaled is set
// when the child died from a signal rather than exiting with a code.
type ExitStatus struct {
	Code     int
	Signal   syscall.Signal
	Signaled bool
}

// Supervisor runs the server process with inherited standard streams and
// the full parent environment, forwards termination signals to it, and
// reports its exit state so the parent can mirror it.
type Supervisor struct {
	cmd     *exec.Cmd
	signals chan os.Signal
}

// NewSupervisor prepares a child process invocation. The child runs in the
// caller's working directory so externally-supplied paths and secrets reach
// it unmodified.
func NewSupervisor(name string, args ...string) *Supervisor {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	return &Supervisor{
		cmd:     cmd,
		signals: make(chan os.Signal, 1),
	}
}

// Start launches the child and begins listening for interrupt and
// termination signals addressed to the parent.
func (s *Supervisor) Start() error {
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.cmd.Path, err)
	}
	signal.Notify(s.signals, os.Interrupt, syscall.SIGTERM)
	return nil
}

// Wait blocks until the child exits. Signals received while waiting are
// forwarded to the child; the parent itself keeps waiting for the child's
// exit event rather than dying on signal receipt.
func (s *Supervisor) Wait() ExitStatus {
	done := make(chan error, 1)
	go func() {
		done <- s.cmd.Wait()
	}()

	for {
		select {
		case sig := <-s.signals:
			// No-op if the child already exited
			_ = s.cmd.Process.Signal(sig)
		case err := <-done:
			signal.Stop(s.signals)
			return exitStatus(err)
		}
	}
}

// exitStatus translates a Wait error into the child's termination state.
// A missing exit code defaults to 0.
func exitStatus(err error) ExitStatus {
	if err == nil {
		return ExitStatus{}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return ExitStatus{Signal: ws.Signal(), Signaled: true}
		}
		code := exitErr.ExitCode()
		if code < 0 {
			code = 0
		}
		return ExitStatus{Code: code}
	}

	return ExitStatus{Code: 1}
}
