// Historical price tool.
//
// Fetches daily closing prices for a date range and resamples them to the
// requested frequency, emitting a compact CSV table the model can read
// without blowing the context window.

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

// Supported resampling frequencies.
const (
	FreqDaily     = "daily"
	FreqWeekly    = "weekly"
	FreqMonthly   = "monthly"
	FreqQuarterly = "quarterly"
)

// Most recent periods kept per frequency. Daily additionally trims the raw
// series to the last 90 observations before labeling.
const (
	maxDailyPoints     = 90
	maxWeeklyPoints    = 52
	maxMonthlyPoints   = 60
	maxQuarterlyPoints = 40
)

const dateLayout = "2006-01-02"

// HistoricalPriceTool fetches and resamples closing price history.
type HistoricalPriceTool struct {
	market MarketData
}

// NewHistoricalPriceTool creates a new historical price tool.
func NewHistoricalPriceTool(market MarketData) *HistoricalPriceTool {
	return &HistoricalPriceTool{market: market}
}

// Metadata returns tool metadata.
func (t *HistoricalPriceTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "get_historical_stock_prices",
		Description: "Get historical closing stock prices for a ticker over a date range. Returns a CSV table of dates and closing prices, resampled to the requested frequency.",
		Parameters: []ToolParameter{
			{Name: "ticker", ParamType: "string", Description: "Stock ticker symbol (e.g., 'NVDA', 'AAPL')", Required: true},
			{Name: "start_date", ParamType: "string", Description: "Start date in YYYY-MM-DD format", Required: true},
			{Name: "end_date", ParamType: "string", Description: "End date in YYYY-MM-DD format", Required: true},
			{Name: "frequency", ParamType: "string", Description: "Sampling frequency: 'daily', 'weekly', 'monthly', or 'quarterly' (default: 'monthly')", Required: false},
		},
	}
}

// HistoricalPriceArgs are the arguments for the historical price tool.
type HistoricalPriceArgs struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Frequency string `json:"frequency"`
}

// Validate validates the arguments.
func (t *HistoricalPriceTool) Validate(args json.RawMessage) error {
	var histArgs HistoricalPriceArgs
	if err := json.Unmarshal(args, &histArgs); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(histArgs.Ticker) == "" {
		return fmt.Errorf("ticker is required")
	}
	if _, err := time.Parse(dateLayout, histArgs.StartDate); err != nil {
		return fmt.Errorf("start_date must be YYYY-MM-DD: %w", err)
	}
	if _, err := time.Parse(dateLayout, histArgs.EndDate); err != nil {
		return fmt.Errorf("end_date must be YYYY-MM-DD: %w", err)
	}
	return nil
}

// Execute fetches the range and renders the resampled CSV.
func (t *HistoricalPriceTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var histArgs HistoricalPriceArgs
	if err := json.Unmarshal(args, &histArgs); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	ticker := normalizeTicker(histArgs.Ticker)
	start, err := time.Parse(dateLayout, histArgs.StartDate)
	if err != nil {
		return FailureResultf("start_date must be YYYY-MM-DD: %v", err), nil
	}
	end, err := time.Parse(dateLayout, histArgs.EndDate)
	if err != nil {
		return FailureResultf("end_date must be YYYY-MM-DD: %v", err), nil
	}
	freq := parseFrequency(histArgs.Frequency)

	// The range is inclusive of the end date; the provider treats the upper
	// bound as exclusive.
	bars, err := t.market.DailyHistory(ctx, ticker, start, end.Add(24*time.Hour))
	if err != nil {
		slog.Warn("historical price fetch failed",
			"ticker", ticker,
			"error_type", fmt.Sprintf("%T", err))
		return SuccessResult(fmt.Sprintf("Error retrieving historical prices for %s. The ticker may be invalid or the data source unavailable.", ticker)), nil
	}
	if len(bars) == 0 {
		return SuccessResult(fmt.Sprintf("No historical data found for %s between %s and %s.", ticker, histArgs.StartDate, histArgs.EndDate)), nil
	}

	points := resample(bars, freq)

	var sb strings.Builder
	sb.WriteString("Date,Close\n")
	for _, p := range points {
		sb.WriteString(p.label)
		sb.WriteByte(',')
		sb.WriteString(formatPrice(p.close))
		sb.WriteByte('\n')
	}
	return SuccessResult(strings.TrimRight(sb.String(), "\n")), nil
}

// parseFrequency normalizes the frequency argument, defaulting to monthly
// for anything unrecognized.
func parseFrequency(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case FreqDaily:
		return FreqDaily
	case FreqWeekly:
		return FreqWeekly
	case FreqQuarterly:
		return FreqQuarterly
	default:
		return FreqMonthly
	}
}

// pricePoint is one row of the rendered table.
type pricePoint struct {
	label string
	close float64
}

// resample collapses daily bars into the requested frequency, keeping the
// last observation of each period, then trims to the most recent periods.
func resample(bars []marketdata.Bar, freq string) []pricePoint {
	if freq == FreqDaily {
		if len(bars) > maxDailyPoints {
			bars = bars[len(bars)-maxDailyPoints:]
		}
		points := make([]pricePoint, 0, len(bars))
		for _, b := range bars {
			points = append(points, pricePoint{label: b.Date.Format(dateLayout), close: b.Close})
		}
		return points
	}

	var points []pricePoint
	lastKey := ""
	for _, b := range bars {
		key, label := periodOf(b.Date, freq)
		if key == lastKey && len(points) > 0 {
			points[len(points)-1] = pricePoint{label: label, close: b.Close}
			continue
		}
		points = append(points, pricePoint{label: label, close: b.Close})
		lastKey = key
	}

	max := maxPoints(freq)
	if len(points) > max {
		points = points[len(points)-max:]
	}
	return points
}

// periodOf maps a date to its period key and display label. Weekly labels
// carry the date of the last trading day seen in the week; monthly and
// quarterly labels name the period itself.
func periodOf(d time.Time, freq string) (key, label string) {
	switch freq {
	case FreqWeekly:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), d.Format(dateLayout)
	case FreqQuarterly:
		q := (int(d.Month())-1)/3 + 1
		label := fmt.Sprintf("%04d-Q%d", d.Year(), q)
		return label, label
	default:
		label := d.Format("2006-01")
		return label, label
	}
}

func maxPoints(freq string) int {
	switch freq {
	case FreqWeekly:
		return maxWeeklyPoints
	case FreqQuarterly:
		return maxQuarterlyPoints
	default:
		return maxMonthlyPoints
	}
}
