package main

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/auggie-mcp/auggie-mcp/internal/config"
	"github.com/auggie-mcp/auggie-mcp/internal/launcher"
	"github.com/joho/godotenv"
)

var (
	loadDotEnv     = godotenv.Load
	runtimeVersion = runtime.Version
	findInterp     = launcher.FindInterpreter
	newRunner      = func() launcher.CommandRunner { return &launcher.RealCommandRunner{} }
	newSupervisor  = launcher.NewSupervisor
	reraise        = launcher.Reraise
	osExit         = os.Exit
)

// options is the launcher's CLI surface; unrecognized arguments are ignored
// so the wrapped server's own flags can pass through a shared command line.
type options struct {
	setupOnly bool
	httpMode  bool
}

func parseArgs(args []string) options {
	var opts options
	for _, arg := range args {
		switch arg {
		case "--setup-only":
			opts.setupOnly = true
		case "--http":
			opts.httpMode = true
		}
	}
	return opts
}

func main() {
	status, err := run(os.Args[1:])
	if err != nil {
		log.Fatalf("[Auggie MCP] %v", err)
	}
	if status.Signaled {
		// Mirror a signal-killed child by dying from the same signal
		reraise(status.Signal)
	}
	osExit(status.Code)
}

func run(args []string) (launcher.ExitStatus, error) {
	var zero launcher.ExitStatus
	opts := parseArgs(args)

	// Best-effort runtime gate, before any filesystem interaction. An
	// unparseable version proceeds; a definite below-minimum is fatal.
	if err := launcher.CheckRuntime(runtimeVersion()); err != nil {
		return zero, err
	}

	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return zero, fmt.Errorf("failed to load configuration: %w", err)
	}

	// The script check precedes provisioning so a broken install never
	// triggers venv creation.
	if _, err := os.Stat(cfg.ServerScript); err != nil {
		return zero, fmt.Errorf("server script not found: %s", cfg.ServerScript)
	}

	interp, err := findInterp()
	if err != nil {
		return zero, err
	}
	log.Printf("[Auggie MCP] Using interpreter: %s", interp.Path)

	prov := &launcher.Provisioner{
		Root:         cfg.Root,
		VenvDir:      cfg.VenvDir,
		Requirements: cfg.Requirements,
		Runner:       newRunner(),
	}
	venvPython, err := prov.Ensure(interp)
	if err != nil {
		return zero, err
	}

	if opts.setupOnly {
		log.Printf("[Auggie MCP] Setup complete")
		return zero, nil
	}

	serverArgs := []string{cfg.ServerScript}
	if !opts.httpMode {
		serverArgs = append(serverArgs, "stdio")
	}

	sup := newSupervisor(venvPython, serverArgs...)
	if err := sup.Start(); err != nil {
		return zero, err
	}
	return sup.Wait(), nil
}
