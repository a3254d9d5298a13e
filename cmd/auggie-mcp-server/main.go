package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/auggie-mcp/auggie-mcp/internal/auggie"
	"github.com/auggie-mcp/auggie-mcp/internal/config"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "auggie-mcp"
	serverVersion = "v1.0.0"
)

var (
	loadDotEnv         = godotenv.Load
	defaultListenServe = http.ListenAndServe
)

func main() {
	if err := run(context.Background(), os.Args[1:], defaultListenServe); err != nil {
		log.Fatalf("[Auggie MCP] Server failed: %v", err)
	}
}

func run(ctx context.Context, args []string, serve func(string, http.Handler) error) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("[Auggie MCP] Starting %s %s", serverName, serverVersion)
	log.Printf("[Auggie MCP] Auggie binary: %s", cfg.AuggieBin)
	if cfg.AuggieModel != "" {
		log.Printf("[Auggie MCP] Model: %s", cfg.AuggieModel)
	}
	if cfg.AuggieRules != "" {
		log.Printf("[Auggie MCP] Rules: %s", cfg.AuggieRules)
	}

	client := auggie.New(cfg.AuggieBin, cfg.AuggieModel, cfg.AuggieRules, cfg.MinNodeMajor)
	handler := newToolHandler(client, cfg)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Q&A over a repository using Auggie's context engine",
	}, handler.HandleAskQuestion)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "implement",
		Description: "Implement a change in the repo. Optionally commit.",
	}, handler.HandleImplement)
	log.Println("[Auggie MCP] Registered tools: ask_question, implement")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[Auggie MCP] Received shutdown signal")
		cancel()
	}()

	// Dependency checks are deferred to tool invocation so the server can
	// advertise its tools even if Auggie/Node are not yet installed.
	if len(args) > 0 && args[0] == "stdio" {
		log.Println("[Auggie MCP] Starting on stdio transport...")
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		log.Println("[Auggie MCP] Server stopped gracefully")
		return nil
	}

	return serveHTTP(cfg, server, serve)
}

// serveHTTP mounts the streamable MCP handler on a router together with
// health and info endpoints. This is the debug entry point; stdio is the
// default transport when launched by the supervisor.
func serveHTTP(cfg *config.Config, server *mcp.Server, serve func(string, http.Handler) error) error {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	r := mux.NewRouter()
	r.Handle("/mcp", streamable)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Root endpoint with info
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"service":"%s","version":"%s","transport":"streamable-http"}`, serverName, serverVersion)
	}).Methods("GET")

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("[Auggie MCP] HTTP debug transport listening on %s", addr)
	log.Printf("[Auggie MCP] MCP endpoint: http://localhost%s/mcp", addr)
	log.Printf("[Auggie MCP] Health check: http://localhost%s/health", addr)

	if err := serve(addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}
