package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the auggie-mcp launcher and server
type Config struct {
	// Launcher settings
	Root         string // package root the venv and manifest live under
	VenvDir      string
	Requirements string
	ServerScript string

	// Auggie CLI settings
	AuggieBin    string
	AuggieModel  string
	AuggieRules  string
	MinNodeMajor int

	// Tool execution settings
	DefaultTimeout   time.Duration
	ImplementTimeout time.Duration
	MaxDiffBytes     int

	// HTTP debug transport settings
	Port int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	root := getEnv("AUGGIE_MCP_ROOT", defaultRoot())

	cfg := &Config{
		Root:             root,
		VenvDir:          getEnv("AUGGIE_MCP_VENV", filepath.Join(root, ".venv")),
		Requirements:     getEnv("AUGGIE_MCP_REQUIREMENTS", filepath.Join(root, "requirements.txt")),
		ServerScript:     getEnv("AUGGIE_MCP_SERVER_SCRIPT", filepath.Join(root, "auggie_mcp_server.py")),
		AuggieBin:        getEnv("AUGGIE_BIN", "auggie"),
		AuggieModel:      os.Getenv("AUGGIE_MODEL"),
		AuggieRules:      os.Getenv("AUGGIE_RULES"),
		MinNodeMajor:     getEnvInt("MIN_NODE_MAJOR", 18),
		DefaultTimeout:   time.Duration(getEnvInt("AUGGIE_TIMEOUT_SECONDS", 120)) * time.Second,
		ImplementTimeout: time.Duration(getEnvInt("AUGGIE_IMPLEMENT_TIMEOUT_SECONDS", 300)) * time.Second,
		MaxDiffBytes:     getEnvInt("AUGGIE_MAX_DIFF_BYTES", 200_000),
		Port:             getEnvInt("PORT", 8000),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultRoot is the directory the launcher binary lives in, falling back
// to the working directory when the executable path cannot be resolved.
func defaultRoot() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// validate checks that all configuration values are usable
func (c *Config) validate() error {
	if c.MinNodeMajor <= 0 {
		return fmt.Errorf("MIN_NODE_MAJOR must be greater than 0")
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("AUGGIE_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.ImplementTimeout <= 0 {
		return fmt.Errorf("AUGGIE_IMPLEMENT_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.MaxDiffBytes <= 0 {
		return fmt.Errorf("AUGGIE_MAX_DIFF_BYTES must be greater than 0")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	return nil
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
