package auggie

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// preflightTimeout bounds the node/auggie availability probes
const preflightTimeout = 5 * time.Second

// Runner executes a command and returns stdout and stderr separately.
// Tool results carry stdout while failures surface stderr, so the streams
// are kept apart unlike the launcher's combined-output runner.
type Runner interface {
	Run(ctx context.Context, dir string, env []string, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner is the production implementation using os/exec. A nil env
// inherits the full parent environment.
type ExecRunner struct{}

// Run executes a command, capturing stdout and stderr independently
func (ExecRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// InstructionOptions describes one auggie invocation
type InstructionOptions struct {
	Instruction   string
	WorkspaceRoot string
	Model         string
	RulesPath     string
	Quiet         bool
	Env           []string // nil inherits the parent environment
}

// Client invokes the external auggie CLI. It makes no assumptions about
// auggie's behavior beyond its argv contract and exit status.
type Client struct {
	bin          string
	model        string
	rulesPath    string
	minNodeMajor int
	runner       Runner
}

// New creates a client with defaults applied to every invocation unless
// overridden per call.
func New(bin, model, rulesPath string, minNodeMajor int) *Client {
	return &Client{
		bin:          bin,
		model:        model,
		rulesPath:    rulesPath,
		minNodeMajor: minNodeMajor,
		runner:       ExecRunner{},
	}
}

// WithRunner swaps the command runner (useful for testing)
func (c *Client) WithRunner(r Runner) *Client {
	c.runner = r
	return c
}

// Preflight verifies Node and the auggie binary are usable. It runs at tool
// invocation time, not server startup, so the server can advertise its tools
// even when dependencies are missing on the host.
func (c *Client) Preflight(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	out, _, err := c.runner.Run(ctx, "", nil, "node", "-v")
	if err != nil {
		return fmt.Errorf("node not available: %w", err)
	}
	version := strings.TrimSpace(string(out))
	major, ok := parseNodeMajor(version)
	if !ok || major < c.minNodeMajor {
		return fmt.Errorf("Node %d+ required, found %s", c.minNodeMajor, version)
	}

	if _, _, err := c.runner.Run(ctx, "", nil, c.bin, "--version"); err != nil {
		return fmt.Errorf("%s not available: %w", c.bin, err)
	}
	return nil
}

// parseNodeMajor extracts the major version from `node -v` output ("v18.19.0")
func parseNodeMajor(version string) (int, bool) {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	parts := strings.Split(version, ".")
	if len(parts) == 0 || parts[0] == "" {
		return 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	return major, true
}

// baseArgs builds the auggie argv for one instruction. Quiet mode suppresses
// interactive output; --print keeps it for debugging.
func (c *Client) baseArgs(opts InstructionOptions) []string {
	args := make([]string, 0, 8)
	if opts.Quiet {
		args = append(args, "--quiet")
	} else {
		args = append(args, "--print")
	}
	if opts.WorkspaceRoot != "" {
		args = append(args, "--workspace-root", opts.WorkspaceRoot)
	}
	model := opts.Model
	if model == "" {
		model = c.model
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	rules := opts.RulesPath
	if rules == "" {
		rules = c.rulesPath
	}
	if rules != "" {
		args = append(args, "--rules", rules)
	}
	args = append(args, opts.Instruction)
	return args
}

// RunInstruction executes auggie with the given instruction in the workspace
// and returns its trimmed stdout. Timeout enforcement is the caller's job
// via ctx.
func (c *Client) RunInstruction(ctx context.Context, opts InstructionOptions) (string, error) {
	args := c.baseArgs(opts)
	log.Printf("[Auggie] Running: %s %s", c.bin, strings.Join(args, " "))

	start := time.Now()
	stdout, stderr, err := c.runner.Run(ctx, opts.WorkspaceRoot, opts.Env, c.bin, args...)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("auggie timed out after %v", duration.Round(time.Millisecond))
		}
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = strings.TrimSpace(string(stdout))
		}
		return "", fmt.Errorf("auggie failed: %s", msg)
	}

	log.Printf("[Auggie] Command completed in %v", duration)
	return strings.TrimSpace(string(stdout)), nil
}
