// Package json provides JSON recovery for model-produced tool arguments.
//
// Models occasionally wrap the arguments object in markdown code fences or
// surround it with commentary. This package pulls the embedded object back
// out so a recoverable tool call does not fail validation.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extract returns the JSON object embedded in raw.
// It handles three shapes: pure JSON, JSON inside ``` fences, and a JSON
// object surrounded by prose (first '{' to last '}').
//
// Limitations:
// - Only handles JSON objects, not arrays
// - Uses simple brace matching, not full JSON parsing
func Extract(raw string) (string, error) {
	raw = stripFences(raw)

	var probe interface{}
	if err := json.Unmarshal([]byte(raw), &probe); err == nil {
		return raw, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		candidate := raw[start : end+1]
		if err := json.Unmarshal([]byte(candidate), &probe); err == nil {
			return candidate, nil
		}
	}

	preview := raw
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("no JSON object found in %q", preview)
}

// stripFences removes markdown code fence markers around a block.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```json"))
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}

	return trimmed
}
