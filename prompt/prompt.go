// Package prompt loads the system prompt from a TOML file.
//
// The prompt is advisory configuration: a missing or broken file must never
// stop the process, so Load reports problems through its error return and
// leaves the decision to the caller.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// promptFile mirrors the expected TOML shape: a single top-level key.
//
//	prompt = "You are a financial assistant..."
type promptFile struct {
	Prompt string `toml:"prompt"`
}

// Load reads the system prompt from the TOML file at path. It returns the
// trimmed prompt text, or an empty string with a non-nil error when the file
// is missing, unreadable, malformed, or carries no "prompt" key.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}

	var parsed promptFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}

	text := strings.TrimSpace(parsed.Prompt)
	if text == "" {
		return "", fmt.Errorf("prompt file %s has no \"prompt\" key", path)
	}
	return text, nil
}
