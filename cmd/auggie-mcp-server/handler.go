package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/auggie-mcp/auggie-mcp/internal/auggie"
	"github.com/auggie-mcp/auggie-mcp/internal/config"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskQuestionParams defines the input parameters for the ask_question tool
type AskQuestionParams struct {
	Question      string `json:"question" jsonschema:"The question to answer about the workspace"`
	WorkspaceRoot string `json:"workspace_root,omitempty" jsonschema:"Repository root to run against (defaults to the server's working directory)"`
	Model         string `json:"model,omitempty" jsonschema:"Override the default Auggie model"`
	RulesPath     string `json:"rules_path,omitempty" jsonschema:"Path to an Auggie rules file"`
	TimeoutSec    int    `json:"timeout_sec,omitempty" jsonschema:"Per-call timeout in seconds"`
}

// AskQuestionResult is the structured output of ask_question
type AskQuestionResult struct {
	Answer string `json:"answer"`
	Usage  Usage  `json:"usage"`
}

// Usage reports per-call accounting
type Usage struct {
	DurationMS int64 `json:"duration_ms"`
}

// ImplementParams defines the input parameters for the implement tool.
// DryRun is a pointer so an absent field defaults to true.
type ImplementParams struct {
	Prompt        string   `json:"prompt" jsonschema:"The change to implement"`
	WorkspaceRoot string   `json:"workspace_root,omitempty" jsonschema:"Repository root to run against (defaults to the server's working directory)"`
	Branch        string   `json:"branch,omitempty" jsonschema:"Branch to create or reset before running"`
	CommitMessage string   `json:"commit_message,omitempty" jsonschema:"Commit message when dry_run is false"`
	Scope         []string `json:"scope,omitempty" jsonschema:"Paths the edits should be limited to"`
	DryRun        *bool    `json:"dry_run,omitempty" jsonschema:"When true (the default) Auggie runs with write tools denied and nothing is committed"`
	TimeoutSec    int      `json:"timeout_sec,omitempty" jsonschema:"Per-call timeout in seconds"`
	Model         string   `json:"model,omitempty" jsonschema:"Override the default Auggie model"`
	RulesPath     string   `json:"rules_path,omitempty" jsonschema:"Path to an Auggie rules file"`
}

// ImplementResult is the structured output of implement
type ImplementResult struct {
	Summary      string   `json:"summary"`
	FilesChanged []string `json:"files_changed"`
	Diff         string   `json:"diff"`
	Committed    bool     `json:"committed"`
	CommitSHA    string   `json:"commit_sha,omitempty"`
	Usage        Usage    `json:"usage"`
}

// toolHandler owns the Auggie client and per-workspace git helpers
type toolHandler struct {
	client *auggie.Client
	cfg    *config.Config

	// gitFor is swappable in tests
	gitFor func(dir string) *auggie.Git
}

func newToolHandler(client *auggie.Client, cfg *config.Config) *toolHandler {
	return &toolHandler{
		client: client,
		cfg:    cfg,
		gitFor: auggie.NewGit,
	}
}

// HandleAskQuestion handles the ask_question tool call
func (h *toolHandler) HandleAskQuestion(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params AskQuestionParams,
) (*mcp.CallToolResult, AskQuestionResult, error) {
	var zero AskQuestionResult
	log.Printf("[Auggie MCP] Received ask_question request")

	if params.Question == "" {
		return nil, zero, fmt.Errorf("question parameter is required")
	}
	if err := h.client.Preflight(ctx); err != nil {
		return nil, zero, fmt.Errorf("preflight failed: %w", err)
	}

	timeout := h.cfg.DefaultTimeout
	if params.TimeoutSec > 0 {
		timeout = time.Duration(params.TimeoutSec) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	answer, err := h.client.RunInstruction(ctx, auggie.InstructionOptions{
		Instruction:   params.Question,
		WorkspaceRoot: params.WorkspaceRoot,
		Model:         params.Model,
		RulesPath:     params.RulesPath,
		Quiet:         true,
	})
	if err != nil {
		return nil, zero, err
	}

	result := AskQuestionResult{
		Answer: answer,
		Usage:  Usage{DurationMS: time.Since(start).Milliseconds()},
	}
	return textResult(result), result, nil
}

// HandleImplement handles the implement tool call
func (h *toolHandler) HandleImplement(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params ImplementParams,
) (*mcp.CallToolResult, ImplementResult, error) {
	var zero ImplementResult
	log.Printf("[Auggie MCP] Received implement request")

	if params.Prompt == "" {
		return nil, zero, fmt.Errorf("prompt parameter is required")
	}
	if err := h.client.Preflight(ctx); err != nil {
		return nil, zero, fmt.Errorf("preflight failed: %w", err)
	}

	workspace := params.WorkspaceRoot
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, zero, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		workspace = wd
	}
	dryRun := params.DryRun == nil || *params.DryRun

	start := time.Now()
	git := h.gitFor(workspace)

	if params.Branch != "" {
		if err := git.CheckoutBranch(ctx, params.Branch); err != nil {
			return nil, zero, err
		}
	}

	// Dry runs point AUGMENT_CACHE_DIR at a settings dir that denies every
	// mutating tool, so Auggie can plan but not touch the worktree.
	var env []string
	if dryRun {
		cacheDir, err := auggie.WriteReadOnlySettings(workspace)
		if err != nil {
			return nil, zero, err
		}
		env = append(os.Environ(), "AUGMENT_CACHE_DIR="+cacheDir)
	}

	instruction := strings.TrimSpace(params.Prompt)
	if len(params.Scope) > 0 {
		instruction += "\nScope: limit edits to " + strings.Join(params.Scope, ", ")
	}

	timeout := h.cfg.ImplementTimeout
	if params.TimeoutSec > 0 {
		timeout = time.Duration(params.TimeoutSec) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	summary, err := h.client.RunInstruction(runCtx, auggie.InstructionOptions{
		Instruction:   instruction,
		WorkspaceRoot: workspace,
		Model:         params.Model,
		RulesPath:     params.RulesPath,
		Quiet:         true,
		Env:           env,
	})
	if err != nil {
		return nil, zero, err
	}

	files, err := git.ChangedFiles(ctx)
	if err != nil {
		return nil, zero, err
	}

	diff := ""
	if len(files) > 0 {
		diff, err = git.Diff(ctx)
		if err != nil {
			return nil, zero, err
		}
		if len(diff) > h.cfg.MaxDiffBytes {
			diff = ""
		}
	}

	committed := false
	commitSHA := ""
	if !dryRun && len(files) > 0 {
		message := params.CommitMessage
		if message == "" {
			message = "Implement: " + truncateString(params.Prompt, 72)
		}
		commitSHA, err = git.CommitAll(ctx, message)
		if err != nil {
			return nil, zero, err
		}
		committed = true
		log.Printf("[Auggie MCP] Committed %d files as %s", len(files), commitSHA)
	}

	result := ImplementResult{
		Summary:      summary,
		FilesChanged: files,
		Diff:         diff,
		Committed:    committed,
		CommitSHA:    commitSHA,
		Usage:        Usage{DurationMS: time.Since(start).Milliseconds()},
	}
	return textResult(result), result, nil
}

// textResult mirrors the structured output as JSON text content
func textResult(v any) *mcp.CallToolResult {
	blob, err := json.Marshal(v)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(blob)}},
	}
}

// truncateString truncates a string for commit messages and logging
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
