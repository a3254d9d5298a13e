package launcher

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// markerFile gates the dependency install step. Its presence, not its
// content, is what matters; it is never invalidated automatically, so a
// manifest change requires deleting the venv directory by hand.
const markerFile = ".deps-installed"

// Provisioner creates the virtualenv and installs the dependency manifest
// exactly once. Repeated invocations with no state change perform no setup
// commands at all.
type Provisioner struct {
	// Root is the package root all setup commands run in
	Root string

	// VenvDir is where the isolated environment lives
	VenvDir string

	// Requirements is the dependency manifest passed to pip
	Requirements string

	// Runner executes setup commands (mockable in tests)
	Runner CommandRunner
}

// Ensure guarantees a working venv interpreter with dependencies installed
// and returns its path. Setup command failures are fatal and surface the
// failing command line; no cleanup of partial state is attempted.
func (p *Provisioner) Ensure(interp Interpreter) (string, error) {
	venvPython := p.VenvPython()

	if _, err := os.Stat(venvPython); err != nil {
		log.Printf("[Launcher] Creating virtualenv at %s", p.VenvDir)
		name, args := interp.Command("-m", "venv", p.VenvDir)
		if output, err := p.Runner.RunInDir(p.Root, name, args...); err != nil {
			return "", fmt.Errorf("%s %s failed: %w\nOutput: %s", name, strings.Join(args, " "), err, string(output))
		}
	}

	marker := filepath.Join(p.VenvDir, markerFile)
	if _, err := os.Stat(marker); err != nil {
		log.Printf("[Launcher] Installing dependencies from %s", p.Requirements)
		args := []string{"-m", "pip", "install", "-r", p.Requirements}
		if output, err := p.Runner.RunInDir(p.Root, venvPython, args...); err != nil {
			return "", fmt.Errorf("%s %s failed: %w\nOutput: %s", venvPython, strings.Join(args, " "), err, string(output))
		}

		// Best-effort: the install already succeeded, a failed marker write
		// only means the next run repeats it.
		content := time.Now().Format(time.RFC3339) + "\n"
		if err := os.WriteFile(marker, []byte(content), 0644); err != nil {
			log.Printf("[Launcher] Warning: failed to write marker %s: %v", marker, err)
		}
	}

	return venvPython, nil
}

// VenvPython returns the expected interpreter path inside the venv,
// following the platform's layout convention.
func (p *Provisioner) VenvPython() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(p.VenvDir, "Scripts", "python.exe")
	}
	return filepath.Join(p.VenvDir, "bin", "python")
}
