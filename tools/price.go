// Stock price tool.
//
// Returns the latest closing price for a ticker. Upstream failures are
// reported as readable text so the model can recover in conversation.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// StockPriceTool fetches the most recent closing price for a ticker.
type StockPriceTool struct {
	market MarketData
}

// NewStockPriceTool creates a new stock price tool.
func NewStockPriceTool(market MarketData) *StockPriceTool {
	return &StockPriceTool{market: market}
}

// Metadata returns tool metadata.
func (t *StockPriceTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "get_stock_price",
		Description: "Get the latest closing stock price for a ticker symbol. Returns the price as a plain number with two decimal places.",
		Parameters: []ToolParameter{
			{Name: "ticker", ParamType: "string", Description: "Stock ticker symbol (e.g., 'NVDA', 'AAPL')", Required: true},
		},
	}
}

// StockPriceArgs are the arguments for the stock price tool.
type StockPriceArgs struct {
	Ticker string `json:"ticker"`
}

// Validate validates the arguments.
func (t *StockPriceTool) Validate(args json.RawMessage) error {
	var priceArgs StockPriceArgs
	if err := json.Unmarshal(args, &priceArgs); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(priceArgs.Ticker) == "" {
		return fmt.Errorf("ticker is required")
	}
	return nil
}

// Execute fetches the latest close.
// Upstream failures become a textual marker in a successful result so the
// model sees them as an answer rather than a protocol error.
func (t *StockPriceTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var priceArgs StockPriceArgs
	if err := json.Unmarshal(args, &priceArgs); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	ticker := normalizeTicker(priceArgs.Ticker)
	price, err := t.market.LatestClose(ctx, ticker)
	if err != nil {
		slog.Warn("stock price lookup failed",
			"ticker", ticker,
			"error_type", fmt.Sprintf("%T", err))
		return SuccessResult(fmt.Sprintf("Error retrieving stock price for %s. The ticker may be invalid or the data source unavailable.", ticker)), nil
	}

	return SuccessResult(formatPrice(price)), nil
}

// normalizeTicker uppercases and trims a ticker symbol.
func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
