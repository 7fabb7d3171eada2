// Package search provides a minimal client for the web-search API.
//
// Information Hiding:
// - Endpoint, authentication, and request body shape hidden
// - Response parsing hidden (gjson paths)
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://api.tavily.com"

// Result is one web-search hit.
type Result struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// Options holds client construction parameters.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client calls the web-search API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates a search client. An empty API key is allowed; calls
// will fail and the caller is expected to absorb that.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
	}
}

// Search runs one query and returns up to maxResults hits.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("search API key not configured")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"api_key":     c.apiKey,
		"query":       query,
		"max_results": maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("request encoding failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	entries := gjson.GetBytes(body, "results").Array()
	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		results = append(results, Result{
			Title:   entry.Get("title").String(),
			URL:     entry.Get("url").String(),
			Content: entry.Get("content").String(),
			Score:   entry.Get("score").Float(),
		})
		if len(results) == maxResults {
			break
		}
	}
	return results, nil
}
