// Package marketdata provides a typed client for the public quote API used
// for prices, history, balance sheets, and ticker news.
package marketdata

import "time"

// Bar is one daily observation of a ticker's closing price.
type Bar struct {
	Date  time.Time
	Close float64
}

// BalanceRow is one line item across the reported fiscal periods.
// Values align with BalanceSheet.Periods; a missing value is NaN.
type BalanceRow struct {
	Label  string
	Values []float64
}

// BalanceSheet holds up to the three most recent annual statements,
// most recent period first, rows in provider order.
type BalanceSheet struct {
	Periods []string
	Rows    []BalanceRow
}

// NewsItem is one provider news entry. Published preserves the raw
// timestamp-like field as decoded from JSON (float64 epoch, string, or nil)
// so callers can apply their own best-effort parsing.
type NewsItem struct {
	Title     string
	Publisher string
	Link      string
	Published any
}
