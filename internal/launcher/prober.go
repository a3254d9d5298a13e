package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Minimum Go toolchain the launcher is expected to run under.
const (
	minGoMajor = 1
	minGoMinor = 21
)

// Interpreter is a resolved Python entrypoint. SelectorArgs carries the
// version selector needed by the Windows `py` launcher (`py -3`); it is
// empty for plain python binaries.
type Interpreter struct {
	Path         string
	SelectorArgs []string
}

// Command builds the argv for invoking the interpreter with extra arguments,
// keeping the selector args in front.
func (i Interpreter) Command(extra ...string) (string, []string) {
	args := make([]string, 0, len(i.SelectorArgs)+len(extra))
	args = append(args, i.SelectorArgs...)
	args = append(args, extra...)
	return i.Path, args
}

// CheckRuntime gates on the Go runtime version the binary was built with.
// The check is best-effort: an unparseable version string (devel builds,
// release candidates) is not an error and the launcher proceeds. A version
// that definitely falls below the minimum is fatal to the caller.
func CheckRuntime(version string) error {
	major, minor, ok := parseGoVersion(version)
	if !ok {
		return nil
	}
	if major < minGoMajor || (major == minGoMajor && minor < minGoMinor) {
		return fmt.Errorf("unsupported Go runtime %s: go%d.%d or newer required", version, minGoMajor, minGoMinor)
	}
	return nil
}

// parseGoVersion extracts major/minor from strings like "go1.25.1"
func parseGoVersion(version string) (major, minor int, ok bool) {
	v := strings.TrimPrefix(version, "go")
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

type candidate struct {
	name     string
	selector []string
}

// candidates returns interpreter command names in priority order. The
// Windows py launcher comes last and needs the -3 selector.
func candidates() []candidate {
	cands := []candidate{
		{name: "python3"},
		{name: "python"},
	}
	if runtime.GOOS == "windows" {
		cands = append(cands, candidate{name: "py", selector: []string{"-3"}})
	}
	return cands
}

// FindInterpreter locates a usable Python interpreter on PATH. Candidates
// are tried strictly in priority order: a lower-priority name appearing
// earlier on PATH never wins over a higher-priority name found later.
func FindInterpreter() (Interpreter, error) {
	names := make([]string, 0, 3)
	for _, c := range candidates() {
		names = append(names, c.name)
		if path, ok := lookupExecutable(c.name); ok {
			return Interpreter{Path: path, SelectorArgs: c.selector}, nil
		}
	}
	return Interpreter{}, fmt.Errorf("no Python interpreter found in PATH (tried: %s)", strings.Join(names, ", "))
}

// lookupExecutable scans every PATH entry for an executable match,
// honoring PATHEXT on Windows.
func lookupExecutable(name string) (string, bool) {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}
		for _, ext := range executableExtensions() {
			path := filepath.Join(dir, name+ext)
			if isExecutable(path) {
				return path, true
			}
		}
	}
	return "", false
}

// executableExtensions returns the recognized executable suffixes for the
// host platform. Unix binaries carry no extension.
func executableExtensions() []string {
	if runtime.GOOS != "windows" {
		return []string{""}
	}
	pathext := os.Getenv("PATHEXT")
	if pathext == "" {
		pathext = ".COM;.EXE;.BAT;.CMD"
	}
	exts := make([]string, 0, 4)
	for _, ext := range strings.Split(pathext, ";") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, strings.ToLower(ext))
	}
	return exts
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		// Extension match is sufficient on Windows
		return true
	}
	return info.Mode()&0111 != 0
}
