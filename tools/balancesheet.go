// Balance sheet tool.
//
// Condenses annual balance sheet statements into a small CSV of headline
// line items so the model gets fundamentals without hundreds of rows.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/richinex/plutus/marketdata"
)

// fallbackRowCount is how many leading rows to keep when no headline line
// item matches the provider's labels.
const fallbackRowCount = 8

// balanceKeyItems are case-insensitive substrings selecting the headline
// rows of a balance sheet: assets, liabilities, equity, liquidity and debt.
var balanceKeyItems = []string{
	"total assets",
	"total liab",
	"stockholder",
	"current assets",
	"current liabilities",
	"cash",
	"debt",
}

// BalanceSheetTool fetches and condenses annual balance sheet data.
type BalanceSheetTool struct {
	market MarketData
}

// NewBalanceSheetTool creates a new balance sheet tool.
func NewBalanceSheetTool(market MarketData) *BalanceSheetTool {
	return &BalanceSheetTool{market: market}
}

// Metadata returns tool metadata.
func (t *BalanceSheetTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "get_balance_sheet",
		Description: "Get the annual balance sheet for a ticker symbol. Returns a CSV table of key line items (assets, liabilities, equity, cash, debt) across the most recent fiscal periods.",
		Parameters: []ToolParameter{
			{Name: "ticker", ParamType: "string", Description: "Stock ticker symbol (e.g., 'NVDA', 'AAPL')", Required: true},
		},
	}
}

// BalanceSheetArgs are the arguments for the balance sheet tool.
type BalanceSheetArgs struct {
	Ticker string `json:"ticker"`
}

// Validate validates the arguments.
func (t *BalanceSheetTool) Validate(args json.RawMessage) error {
	var bsArgs BalanceSheetArgs
	if err := json.Unmarshal(args, &bsArgs); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(bsArgs.Ticker) == "" {
		return fmt.Errorf("ticker is required")
	}
	return nil
}

// Execute fetches the statements and renders the condensed table.
func (t *BalanceSheetTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var bsArgs BalanceSheetArgs
	if err := json.Unmarshal(args, &bsArgs); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	ticker := normalizeTicker(bsArgs.Ticker)
	sheet, err := t.market.BalanceSheet(ctx, ticker)
	if err != nil {
		slog.Warn("balance sheet fetch failed",
			"ticker", ticker,
			"error_type", fmt.Sprintf("%T", err))
		return SuccessResult(fmt.Sprintf("Error retrieving balance sheet for %s. The ticker may be invalid or the data source unavailable.", ticker)), nil
	}
	if sheet == nil || len(sheet.Rows) == 0 || len(sheet.Periods) == 0 {
		return SuccessResult(fmt.Sprintf("No balance sheet data found for %s.", ticker)), nil
	}

	rows := selectKeyRows(sheet.Rows)
	return SuccessResult(renderBalanceSheet(sheet.Periods, rows)), nil
}

// selectKeyRows keeps rows whose label matches a headline line item,
// preserving provider order. When nothing matches, the leading rows are
// returned so the model still sees something useful.
func selectKeyRows(rows []marketdata.BalanceRow) []marketdata.BalanceRow {
	var selected []marketdata.BalanceRow
	for _, row := range rows {
		label := strings.ToLower(row.Label)
		for _, item := range balanceKeyItems {
			if strings.Contains(label, item) {
				selected = append(selected, row)
				break
			}
		}
	}
	if len(selected) > 0 {
		return selected
	}
	if len(rows) > fallbackRowCount {
		return rows[:fallbackRowCount]
	}
	return rows
}

// renderBalanceSheet writes a CSV with one metric per row and one fiscal
// period per column. Missing values become empty cells.
func renderBalanceSheet(periods []string, rows []marketdata.BalanceRow) string {
	var sb strings.Builder
	sb.WriteString("Metric,")
	sb.WriteString(strings.Join(periods, ","))
	for _, row := range rows {
		sb.WriteByte('\n')
		sb.WriteString(row.Label)
		for i := range periods {
			sb.WriteByte(',')
			if i < len(row.Values) && !math.IsNaN(row.Values[i]) {
				sb.WriteString(formatPrice(row.Values[i]))
			}
		}
	}
	return sb.String()
}
