package auggie

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// statusPattern matches one `git status --porcelain` line and captures the path
var statusPattern = regexp.MustCompile(`^\s*[AMDR?]{1,2}\s+(.*)$`)

// Git runs git subcommands in a single workspace directory
type Git struct {
	dir    string
	runner Runner
}

// NewGit creates a git helper rooted at dir
func NewGit(dir string) *Git {
	return &Git{dir: dir, runner: ExecRunner{}}
}

// WithRunner swaps the command runner (useful for testing)
func (g *Git) WithRunner(r Runner) *Git {
	g.runner = r
	return g
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	stdout, stderr, err := g.runner.Run(ctx, g.dir, nil, "git", args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = strings.TrimSpace(string(stdout))
		}
		return "", fmt.Errorf("git %s failed: %s", strings.Join(args, " "), msg)
	}
	return string(stdout), nil
}

// CheckoutBranch creates or resets the named branch and switches to it
func (g *Git) CheckoutBranch(ctx context.Context, name string) error {
	_, err := g.run(ctx, "checkout", "-B", name)
	return err
}

// ChangedFiles lists paths with uncommitted changes, untracked included
func (g *Git) ChangedFiles(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	files := []string{}
	for _, line := range strings.Split(out, "\n") {
		if m := statusPattern.FindStringSubmatch(line); m != nil {
			files = append(files, m[1])
		}
	}
	return files, nil
}

// Diff returns the unstaged diff for the workspace
func (g *Git) Diff(ctx context.Context) (string, error) {
	return g.run(ctx, "diff")
}

// CommitAll stages everything, commits with the given message, and returns
// the new commit SHA
func (g *Git) CommitAll(ctx context.Context, message string) (string, error) {
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return "", err
	}
	if _, err := g.run(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	sha, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sha), nil
}
