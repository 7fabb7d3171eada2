package marketdata

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(Options{
		BaseURL: server.URL,
		NewsURL: server.URL,
		Timeout: 2 * time.Second,
	})
	return client, server
}

func TestLatestCloseFromMeta(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v8/finance/chart/NVDA") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":187.23}}]}}`))
	})
	defer server.Close()

	price, err := client.LatestClose(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("LatestClose failed: %v", err)
	}
	if price != 187.23 {
		t.Errorf("expected 187.23, got %v", price)
	}
}

func TestLatestCloseFallsBackToCloses(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{},"indicators":{"quote":[{"close":[10.5,11.25,null]}]}}]}}`))
	})
	defer server.Close()

	price, err := client.LatestClose(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("LatestClose failed: %v", err)
	}
	if price != 11.25 {
		t.Errorf("expected last non-null close 11.25, got %v", price)
	}
}

func TestLatestCloseNoData(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found"}}}`))
	})
	defer server.Close()

	if _, err := client.LatestClose(context.Background(), "NOPE"); err == nil {
		t.Error("expected error for missing chart data")
	}
}

func TestDailyHistorySkipsNullCloses(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1704067200,1704153600,1704240000],
			"indicators":{"quote":[{"close":[100.0,null,102.5]}]}
		}]}}`))
	})
	defer server.Close()

	bars, err := client.DailyHistory(context.Background(), "NVDA",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DailyHistory failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 100.0 || bars[1].Close != 102.5 {
		t.Errorf("unexpected closes: %v, %v", bars[0].Close, bars[1].Close)
	}
	if bars[0].Date.Year() != 2024 {
		t.Errorf("unexpected date: %v", bars[0].Date)
	}
}

func TestBalanceSheetRowOrderAndPadding(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "modules=balanceSheetHistory") {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"quoteSummary":{"result":[{"balanceSheetHistory":{"balanceSheetStatements":[
			{"maxAge":1,"endDate":{"raw":1735603200,"fmt":"2024-12-31"},
			 "totalAssets":{"raw":1000},"cash":{"raw":50}},
			{"endDate":{"fmt":"2023-12-31"},
			 "totalAssets":{"raw":900},"totalLiab":{"raw":400}}
		]}}]}}`))
	})
	defer server.Close()

	sheet, err := client.BalanceSheet(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("BalanceSheet failed: %v", err)
	}
	if len(sheet.Periods) != 2 || sheet.Periods[0] != "2024-12-31" {
		t.Fatalf("unexpected periods: %v", sheet.Periods)
	}
	if len(sheet.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(sheet.Rows))
	}

	if sheet.Rows[0].Label != "Total Assets" {
		t.Errorf("expected Total Assets first, got %s", sheet.Rows[0].Label)
	}
	if sheet.Rows[0].Values[0] != 1000 || sheet.Rows[0].Values[1] != 900 {
		t.Errorf("unexpected totalAssets values: %v", sheet.Rows[0].Values)
	}

	// cash appears only in the first statement
	if sheet.Rows[1].Label != "Cash" {
		t.Errorf("expected Cash second, got %s", sheet.Rows[1].Label)
	}
	if !math.IsNaN(sheet.Rows[1].Values[1]) {
		t.Errorf("expected NaN for missing cash value, got %v", sheet.Rows[1].Values[1])
	}

	// totalLiab appears only in the second statement
	if sheet.Rows[2].Label != "Total Liab" {
		t.Errorf("expected Total Liab third, got %s", sheet.Rows[2].Label)
	}
	if !math.IsNaN(sheet.Rows[2].Values[0]) || sheet.Rows[2].Values[1] != 400 {
		t.Errorf("unexpected totalLiab values: %v", sheet.Rows[2].Values)
	}
}

func TestBalanceSheetCapsAtThreeStatements(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{"balanceSheetHistory":{"balanceSheetStatements":[
			{"endDate":{"fmt":"2024-12-31"},"totalAssets":{"raw":4}},
			{"endDate":{"fmt":"2023-12-31"},"totalAssets":{"raw":3}},
			{"endDate":{"fmt":"2022-12-31"},"totalAssets":{"raw":2}},
			{"endDate":{"fmt":"2021-12-31"},"totalAssets":{"raw":1}}
		]}}]}}`))
	})
	defer server.Close()

	sheet, err := client.BalanceSheet(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("BalanceSheet failed: %v", err)
	}
	if len(sheet.Periods) != 3 {
		t.Errorf("expected 3 periods, got %d", len(sheet.Periods))
	}
	if len(sheet.Rows[0].Values) != 3 {
		t.Errorf("expected 3 values per row, got %d", len(sheet.Rows[0].Values))
	}
}

func TestNewsParsesEntries(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"news":[
			{"title":"Chip maker rallies","publisher":"Newswire","link":"https://example.com/a","providerPublishTime":1704067200},
			{"title":"Earnings preview","publisher":"Daily","link":"https://example.com/b","providerPublishTime":"2024-01-02T09:00:00Z"}
		]}`))
	})
	defer server.Close()

	items, err := client.News(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("News failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Chip maker rallies" {
		t.Errorf("unexpected title: %s", items[0].Title)
	}
	if _, ok := items[0].Published.(float64); !ok {
		t.Errorf("expected numeric publish time, got %T", items[0].Published)
	}
	if _, ok := items[1].Published.(string); !ok {
		t.Errorf("expected string publish time, got %T", items[1].Published)
	}
}

func TestGetRetriesOnTransportError(t *testing.T) {
	// Point at a closed server so every dial fails
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	client := NewClient(Options{BaseURL: addr, Timeout: 500 * time.Millisecond})
	if _, err := client.LatestClose(context.Background(), "NVDA"); err == nil {
		t.Error("expected error when server is unreachable")
	}
}

func TestHumanizeLabel(t *testing.T) {
	cases := map[string]string{
		"totalAssets":            "Total Assets",
		"totalStockholderEquity": "Total Stockholder Equity",
		"cash":                   "Cash",
		"totalCurrentLiabilities": "Total Current Liabilities",
	}
	for in, want := range cases {
		if got := humanizeLabel(in); got != want {
			t.Errorf("humanizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
