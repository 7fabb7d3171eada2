// Upstream client interfaces consumed by the data tools. Declared here so
// tools depend on capabilities, not concrete clients.

package tools

import (
	"context"
	"time"

	"github.com/richinex/plutus/marketdata"
	"github.com/richinex/plutus/search"
)

// MarketData fetches quote data for tickers.
type MarketData interface {
	LatestClose(ctx context.Context, ticker string) (float64, error)
	DailyHistory(ctx context.Context, ticker string, start, end time.Time) ([]marketdata.Bar, error)
	BalanceSheet(ctx context.Context, ticker string) (*marketdata.BalanceSheet, error)
	// News is the primary retrieval path; NewsSearch the fallback.
	News(ctx context.Context, ticker string) ([]marketdata.NewsItem, error)
	NewsSearch(ctx context.Context, ticker string) ([]marketdata.NewsItem, error)
}

// Searcher runs free-text web searches.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]search.Result, error)
}
