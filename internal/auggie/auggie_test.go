package auggie

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// mockCall records one runner invocation
type mockCall struct {
	Dir  string
	Env  []string
	Name string
	Args []string
}

// mockRunner is a test runner returning predefined responses per command name
type mockRunner struct {
	responses map[string]mockResponse
	calls     []mockCall
}

type mockResponse struct {
	stdout string
	stderr string
	err    error
}

func newMockRunner() *mockRunner {
	return &mockRunner{responses: make(map[string]mockResponse)}
}

func (m *mockRunner) respond(name, stdout, stderr string, err error) {
	m.responses[name] = mockResponse{stdout: stdout, stderr: stderr, err: err}
}

func (m *mockRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, []byte, error) {
	m.calls = append(m.calls, mockCall{Dir: dir, Env: env, Name: name, Args: args})
	resp := m.responses[name]
	return []byte(resp.stdout), []byte(resp.stderr), resp.err
}

func healthyPreflight(m *mockRunner) {
	m.respond("node", "v18.19.0\n", "", nil)
	m.respond("auggie", "1.4.0\n", "", nil)
}

func TestPreflight(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*mockRunner)
		wantErr string
	}{
		{
			name:  "node and auggie available",
			setup: healthyPreflight,
		},
		{
			name: "node missing",
			setup: func(m *mockRunner) {
				m.respond("node", "", "", fmt.Errorf("executable file not found"))
			},
			wantErr: "node not available",
		},
		{
			name: "node too old",
			setup: func(m *mockRunner) {
				m.respond("node", "v16.20.2\n", "", nil)
			},
			wantErr: "Node 18+ required, found v16.20.2",
		},
		{
			name: "node version garbage",
			setup: func(m *mockRunner) {
				m.respond("node", "??\n", "", nil)
			},
			wantErr: "Node 18+ required",
		},
		{
			name: "auggie missing",
			setup: func(m *mockRunner) {
				m.respond("node", "v20.11.0\n", "", nil)
				m.respond("auggie", "", "", fmt.Errorf("executable file not found"))
			},
			wantErr: "auggie not available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockRunner()
			tt.setup(mock)
			client := New("auggie", "", "", 18).WithRunner(mock)

			err := client.Preflight(context.Background())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Preflight() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Preflight() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Preflight() error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseNodeMajor(t *testing.T) {
	tests := []struct {
		version string
		want    int
		wantOK  bool
	}{
		{"v18.19.0", 18, true},
		{"v20.0.0\n", 20, true},
		{"18.19.0", 18, true},
		{"v8", 8, true},
		{"", 0, false},
		{"vX.Y.Z", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseNodeMajor(tt.version)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseNodeMajor(%q) = (%d, %v), want (%d, %v)", tt.version, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBaseArgs(t *testing.T) {
	client := New("auggie", "default-model", "/default/rules.md", 18)

	tests := []struct {
		name string
		opts InstructionOptions
		want []string
	}{
		{
			name: "quiet with workspace and client defaults",
			opts: InstructionOptions{Instruction: "what does pkg x do", WorkspaceRoot: "/repo", Quiet: true},
			want: []string{"--quiet", "--workspace-root", "/repo", "--model", "default-model", "--rules", "/default/rules.md", "what does pkg x do"},
		},
		{
			name: "per-call overrides win",
			opts: InstructionOptions{Instruction: "fix it", Model: "other", RulesPath: "/r.md", Quiet: true},
			want: []string{"--quiet", "--model", "other", "--rules", "/r.md", "fix it"},
		},
		{
			name: "print mode without workspace",
			opts: InstructionOptions{Instruction: "hello", Quiet: false},
			want: []string{"--print", "--model", "default-model", "--rules", "/default/rules.md", "hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := client.baseArgs(tt.opts)
			if strings.Join(got, "\x00") != strings.Join(tt.want, "\x00") {
				t.Errorf("baseArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBaseArgs_NoDefaults(t *testing.T) {
	client := New("auggie", "", "", 18)

	got := client.baseArgs(InstructionOptions{Instruction: "q", Quiet: true})
	want := []string{"--quiet", "q"}
	if strings.Join(got, "\x00") != strings.Join(want, "\x00") {
		t.Errorf("baseArgs() = %v, want %v", got, want)
	}
}

func TestRunInstruction_ReturnsTrimmedStdout(t *testing.T) {
	mock := newMockRunner()
	mock.respond("auggie", "  the answer \n", "", nil)
	client := New("auggie", "", "", 18).WithRunner(mock)

	out, err := client.RunInstruction(context.Background(), InstructionOptions{
		Instruction:   "question",
		WorkspaceRoot: "/repo",
		Quiet:         true,
	})
	if err != nil {
		t.Fatalf("RunInstruction() unexpected error: %v", err)
	}
	if out != "the answer" {
		t.Errorf("RunInstruction() = %q, want trimmed stdout", out)
	}

	if len(mock.calls) != 1 {
		t.Fatalf("Expected 1 auggie invocation, got %d", len(mock.calls))
	}
	call := mock.calls[0]
	if call.Dir != "/repo" {
		t.Errorf("auggie ran in %s, want workspace root", call.Dir)
	}
	if call.Env != nil {
		t.Errorf("auggie env = %v, want inherited (nil)", call.Env)
	}
}

func TestRunInstruction_FailurePrefersStderr(t *testing.T) {
	mock := newMockRunner()
	mock.respond("auggie", "partial stdout", "auth expired", fmt.Errorf("exit status 1"))
	client := New("auggie", "", "", 18).WithRunner(mock)

	_, err := client.RunInstruction(context.Background(), InstructionOptions{Instruction: "q", Quiet: true})
	if err == nil {
		t.Fatal("RunInstruction() error = nil, want failure")
	}
	if !strings.Contains(err.Error(), "auggie failed: auth expired") {
		t.Errorf("error = %v, want stderr surfaced", err)
	}
}

func TestRunInstruction_FailureFallsBackToStdout(t *testing.T) {
	mock := newMockRunner()
	mock.respond("auggie", "only stdout detail", "", fmt.Errorf("exit status 1"))
	client := New("auggie", "", "", 18).WithRunner(mock)

	_, err := client.RunInstruction(context.Background(), InstructionOptions{Instruction: "q", Quiet: true})
	if err == nil {
		t.Fatal("RunInstruction() error = nil, want failure")
	}
	if !strings.Contains(err.Error(), "only stdout detail") {
		t.Errorf("error = %v, want stdout fallback", err)
	}
}

func TestRunInstruction_Timeout(t *testing.T) {
	mock := newMockRunner()
	mock.respond("auggie", "", "", fmt.Errorf("signal: killed"))
	client := New("auggie", "", "", 18).WithRunner(mock)

	// A zero timeout is already past its deadline when the runner is called
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	_, err := client.RunInstruction(ctx, InstructionOptions{Instruction: "q", Quiet: true})
	if err == nil {
		t.Fatal("RunInstruction() error = nil, want timeout")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %v, want timeout message", err)
	}
}
