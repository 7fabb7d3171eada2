// Web search tool.
//
// Lets the model look up information beyond market data. Results are
// truncated aggressively since they feed straight back into the prompt.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

const (
	maxSearchResults    = 3
	maxSearchTitleLen   = 100
	maxSearchContentLen = 250
)

// WebSearchTool runs free-text web searches through the configured provider.
type WebSearchTool struct {
	searcher Searcher
}

// NewWebSearchTool creates a new web search tool.
func NewWebSearchTool(searcher Searcher) *WebSearchTool {
	return &WebSearchTool{searcher: searcher}
}

// Metadata returns tool metadata.
func (t *WebSearchTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "web_search",
		Description: "Search the web for current information. Returns JSON with up to three results, each with title, url, a content snippet and a relevance score.",
		Parameters: []ToolParameter{
			{Name: "query", ParamType: "string", Description: "Search query", Required: true},
		},
	}
}

// WebSearchArgs are the arguments for the web search tool.
type WebSearchArgs struct {
	Query string `json:"query"`
}

// Validate validates the arguments.
func (t *WebSearchTool) Validate(args json.RawMessage) error {
	var searchArgs WebSearchArgs
	if err := json.Unmarshal(args, &searchArgs); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(searchArgs.Query) == "" {
		return fmt.Errorf("query is required")
	}
	return nil
}

// searchResult is one normalized web search hit.
type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// searchPayload is the JSON document handed back to the model.
type searchPayload struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// Execute runs the search. Provider failures produce a payload with an
// empty result list and an error note instead of a hard failure.
func (t *WebSearchTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var searchArgs WebSearchArgs
	if err := json.Unmarshal(args, &searchArgs); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	query := strings.TrimSpace(searchArgs.Query)
	payload := searchPayload{Query: query, Results: []searchResult{}}

	hits, err := t.searcher.Search(ctx, query, maxSearchResults)
	if err != nil {
		slog.Warn("web search failed",
			"query", query,
			"error_type", fmt.Sprintf("%T", err))
		payload.Error = "Search service unavailable or not configured."
		return marshalSearchPayload(payload)
	}

	for _, hit := range hits {
		if len(payload.Results) >= maxSearchResults {
			break
		}
		payload.Results = append(payload.Results, searchResult{
			Title:   truncate(hit.Title, maxSearchTitleLen),
			URL:     hit.URL,
			Content: truncate(hit.Content, maxSearchContentLen),
			Score:   round2(hit.Score),
		})
	}
	return marshalSearchPayload(payload)
}

func marshalSearchPayload(payload searchPayload) (ToolResult, error) {
	out, err := json.Marshal(payload)
	if err != nil {
		return FailureResultf("encoding search results: %v", err), nil
	}
	return SuccessResult(string(out)), nil
}
