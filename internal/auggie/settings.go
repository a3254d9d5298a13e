package auggie

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type toolPermission struct {
	ToolName   string         `json:"tool-name"`
	Permission map[string]any `json:"permission"`
}

type settings struct {
	ToolPermissions []toolPermission `json:"tool-permissions"`
}

// WriteReadOnlySettings writes a minimal Auggie settings file denying every
// mutating tool, under <workspace>/.augment/.mcp-temp, and returns that
// directory so callers can point AUGMENT_CACHE_DIR at it for dry runs.
func WriteReadOnlySettings(workspaceRoot string) (string, error) {
	dir := filepath.Join(workspaceRoot, ".augment", ".mcp-temp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create settings directory: %w", err)
	}

	deny := map[string]any{"type": "deny"}
	data := settings{
		ToolPermissions: []toolPermission{
			{ToolName: "save-file", Permission: deny},
			{ToolName: "str-replace-editor", Permission: deny},
			{ToolName: "remove-files", Permission: deny},
			{ToolName: "launch-process", Permission: deny},
		},
	}

	blob, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settings: %w", err)
	}

	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, blob, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return dir, nil
}
