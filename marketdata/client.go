// Market-data HTTP client.
//
// Information Hiding:
// - Endpoint paths and query parameters hidden
// - Response envelope parsing hidden (gjson paths)
// - Transport retry hidden

package marketdata

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	defaultNewsURL = "https://query2.finance.yahoo.com"

	// The quote API rejects requests without a browser-like agent.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

	maxStatements = 3
	newsCount     = 10
)

// Options holds client construction parameters. Zero values select the
// public endpoints and a 10 second timeout.
type Options struct {
	BaseURL string
	NewsURL string
	Timeout time.Duration
}

// Client fetches quote data over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	newsURL    string
}

// NewClient creates a market-data client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.NewsURL == "" {
		opts.NewsURL = defaultNewsURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		newsURL:    strings.TrimRight(opts.NewsURL, "/"),
	}
}

// LatestClose returns the most recent closing price for the ticker.
func (c *Client) LatestClose(ctx context.Context, ticker string) (float64, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=5d&interval=1d", c.baseURL, url.PathEscape(ticker))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("chart fetch failed: %w", err)
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return 0, fmt.Errorf("no chart data for %s", ticker)
	}

	if price := result.Get("meta.regularMarketPrice"); price.Exists() {
		return price.Float(), nil
	}

	closes := result.Get("indicators.quote.0.close").Array()
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i].Type != gjson.Null {
			return closes[i].Float(), nil
		}
	}
	return 0, fmt.Errorf("no close prices for %s", ticker)
}

// DailyHistory returns daily closing bars for the ticker between start and
// end, oldest first. Null closes (market holidays) are skipped.
func (c *Client) DailyHistory(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		c.baseURL, url.PathEscape(ticker), start.Unix(), end.Unix())
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("chart fetch failed: %w", err)
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("no chart data for %s", ticker)
	}

	timestamps := result.Get("timestamp").Array()
	closes := result.Get("indicators.quote.0.close").Array()

	bars := make([]Bar, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i].Type == gjson.Null {
			continue
		}
		bars = append(bars, Bar{
			Date:  time.Unix(ts.Int(), 0).UTC(),
			Close: closes[i].Float(),
		})
	}
	return bars, nil
}

// BalanceSheet returns up to the three most recent annual statements.
// Row order follows the most recent statement's field order; labels are
// humanized from the provider's camelCase keys.
func (c *Client) BalanceSheet(ctx context.Context, ticker string) (*BalanceSheet, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=balanceSheetHistory",
		c.baseURL, url.PathEscape(ticker))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("quote summary fetch failed: %w", err)
	}

	statements := gjson.GetBytes(body, "quoteSummary.result.0.balanceSheetHistory.balanceSheetStatements").Array()
	if len(statements) == 0 {
		return nil, fmt.Errorf("no balance sheet data for %s", ticker)
	}
	if len(statements) > maxStatements {
		statements = statements[:maxStatements]
	}

	sheet := &BalanceSheet{}
	rowIndex := make(map[string]int)

	for col, stmt := range statements {
		period := stmt.Get("endDate.fmt").String()
		if period == "" {
			period = fmt.Sprintf("period %d", col+1)
		}
		sheet.Periods = append(sheet.Periods, period)

		stmt.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if name == "endDate" || name == "maxAge" {
				return true
			}
			raw := value.Get("raw")
			if !raw.Exists() {
				return true
			}

			idx, ok := rowIndex[name]
			if !ok {
				idx = len(sheet.Rows)
				rowIndex[name] = idx
				sheet.Rows = append(sheet.Rows, BalanceRow{Label: humanizeLabel(name)})
			}
			for len(sheet.Rows[idx].Values) < col {
				sheet.Rows[idx].Values = append(sheet.Rows[idx].Values, math.NaN())
			}
			sheet.Rows[idx].Values = append(sheet.Rows[idx].Values, raw.Float())
			return true
		})
	}

	// Pad rows missing from later statements
	for i := range sheet.Rows {
		for len(sheet.Rows[i].Values) < len(sheet.Periods) {
			sheet.Rows[i].Values = append(sheet.Rows[i].Values, math.NaN())
		}
	}

	return sheet, nil
}

// News returns provider news for the ticker via the primary host.
func (c *Client) News(ctx context.Context, ticker string) ([]NewsItem, error) {
	return c.fetchNews(ctx, c.newsURL, ticker)
}

// NewsSearch returns provider news via the secondary host, used as a
// fallback when the primary path yields nothing.
func (c *Client) NewsSearch(ctx context.Context, ticker string) ([]NewsItem, error) {
	return c.fetchNews(ctx, c.baseURL, ticker)
}

func (c *Client) fetchNews(ctx context.Context, host, ticker string) ([]NewsItem, error) {
	endpoint := fmt.Sprintf("%s/v1/finance/search?q=%s&newsCount=%d&quotesCount=0",
		host, url.QueryEscape(ticker), newsCount)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("news fetch failed: %w", err)
	}

	entries := gjson.GetBytes(body, "news").Array()
	items := make([]NewsItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, NewsItem{
			Title:     entry.Get("title").String(),
			Publisher: entry.Get("publisher").String(),
			Link:      entry.Get("link").String(),
			Published: entry.Get("providerPublishTime").Value(),
		})
	}
	return items, nil
}

// get performs a GET with one retry on transport error.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("request build failed: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("response read failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return body, nil
	}
	return nil, fmt.Errorf("request failed: %w", lastErr)
}

// humanizeLabel converts a camelCase provider key to a spaced title label,
// e.g. "totalStockholderEquity" -> "Total Stockholder Equity".
func humanizeLabel(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
