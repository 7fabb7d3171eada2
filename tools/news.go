// Stock news tool.
//
// Returns recent headlines for a ticker as compact JSON. Provider timestamps
// arrive in several shapes (epoch seconds, RFC 3339, bare dates); each item
// is normalized independently so one bad record never sinks the batch.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/richinex/plutus/marketdata"
)

const (
	maxNewsArticles     = 5
	maxNewsTitleLen     = 90
	maxNewsPublisherLen = 20
)

// publishedLayouts are the string timestamp formats accepted before falling
// back to a date prefix.
var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	dateLayout,
}

// StockNewsTool fetches recent news articles for a ticker.
type StockNewsTool struct {
	market MarketData
}

// NewStockNewsTool creates a new stock news tool.
func NewStockNewsTool(market MarketData) *StockNewsTool {
	return &StockNewsTool{market: market}
}

// Metadata returns tool metadata.
func (t *StockNewsTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "get_stock_news",
		Description: "Get recent news articles for a ticker symbol. Returns JSON with up to five articles, each with title, publisher, link and publication date.",
		Parameters: []ToolParameter{
			{Name: "ticker", ParamType: "string", Description: "Stock ticker symbol (e.g., 'NVDA', 'AAPL')", Required: true},
		},
	}
}

// StockNewsArgs are the arguments for the stock news tool.
type StockNewsArgs struct {
	Ticker string `json:"ticker"`
}

// Validate validates the arguments.
func (t *StockNewsTool) Validate(args json.RawMessage) error {
	var newsArgs StockNewsArgs
	if err := json.Unmarshal(args, &newsArgs); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(newsArgs.Ticker) == "" {
		return fmt.Errorf("ticker is required")
	}
	return nil
}

// newsArticle is one normalized article in the tool output.
type newsArticle struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Link      string `json:"link"`
	Published string `json:"published"`
}

// newsPayload is the JSON document handed back to the model.
type newsPayload struct {
	Ticker   string        `json:"ticker"`
	Articles []newsArticle `json:"articles"`
}

// Execute fetches headlines, trying the dedicated news endpoint first and
// the search endpoint as fallback. Total provider failure yields an empty
// article list rather than an error.
func (t *StockNewsTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var newsArgs StockNewsArgs
	if err := json.Unmarshal(args, &newsArgs); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	ticker := normalizeTicker(newsArgs.Ticker)
	items, err := t.market.News(ctx, ticker)
	if err != nil || len(items) == 0 {
		if err != nil {
			slog.Debug("primary news lookup failed",
				"ticker", ticker,
				"error_type", fmt.Sprintf("%T", err))
		}
		items, err = t.market.NewsSearch(ctx, ticker)
		if err != nil {
			slog.Warn("news lookup failed",
				"ticker", ticker,
				"error_type", fmt.Sprintf("%T", err))
			items = nil
		}
	}

	payload := newsPayload{Ticker: ticker, Articles: normalizeArticles(items)}
	out, err := json.Marshal(payload)
	if err != nil {
		return FailureResultf("encoding news: %v", err), nil
	}
	return SuccessResult(string(out)), nil
}

// normalizeArticles shapes the first few raw items for the model. Items
// whose timestamp cannot be normalized are dropped individually.
func normalizeArticles(items []marketdata.NewsItem) []newsArticle {
	if len(items) > maxNewsArticles {
		items = items[:maxNewsArticles]
	}
	articles := make([]newsArticle, 0, len(items))
	for _, item := range items {
		published, err := formatPublished(item.Published)
		if err != nil {
			slog.Debug("skipping news item",
				"title", truncate(item.Title, maxNewsTitleLen),
				"error_type", fmt.Sprintf("%T", err))
			continue
		}
		articles = append(articles, newsArticle{
			Title:     truncate(item.Title, maxNewsTitleLen),
			Publisher: truncate(item.Publisher, maxNewsPublisherLen),
			Link:      item.Link,
			Published: published,
		})
	}
	return articles
}

// formatPublished normalizes a provider timestamp to YYYY-MM-DD. A missing
// timestamp becomes "N/A"; an unintelligible one returns an error so the
// caller can drop the item.
func formatPublished(v any) (string, error) {
	switch ts := v.(type) {
	case nil:
		return "N/A", nil
	case float64:
		return time.Unix(int64(ts), 0).UTC().Format(dateLayout), nil
	case int64:
		return time.Unix(ts, 0).UTC().Format(dateLayout), nil
	case int:
		return time.Unix(int64(ts), 0).UTC().Format(dateLayout), nil
	case string:
		for _, layout := range publishedLayouts {
			if parsed, err := time.Parse(layout, ts); err == nil {
				return parsed.Format(dateLayout), nil
			}
		}
		if len(ts) >= len(dateLayout) {
			prefix := ts[:len(dateLayout)]
			if _, err := time.Parse(dateLayout, prefix); err == nil {
				return prefix, nil
			}
		}
		return "", fmt.Errorf("unrecognized timestamp %q", ts)
	default:
		return "", fmt.Errorf("unsupported timestamp type %T", v)
	}
}
