package tools

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// fakeWrapper records which tools were wrapped with which TTLs.
type fakeWrapper struct {
	ttls map[string]time.Duration
}

func (w *fakeWrapper) Wrap(tool Tool, ttl time.Duration) Tool {
	if w.ttls == nil {
		w.ttls = make(map[string]time.Duration)
	}
	w.ttls[tool.Metadata().Name] = ttl
	return tool
}

func TestWithDefaultsRegistersDataTools(t *testing.T) {
	registry, err := WithDefaults(&fakeMarket{}, &fakeSearcher{}, nil)
	if err != nil {
		t.Fatalf("WithDefaults failed: %v", err)
	}

	want := []string{
		"get_balance_sheet",
		"get_historical_stock_prices",
		"get_stock_news",
		"get_stock_price",
		"web_search",
	}
	if got := registry.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected tools %v, got %v", want, got)
	}
}

func TestWithDefaultsAppliesWrapper(t *testing.T) {
	wrapper := &fakeWrapper{}
	if _, err := WithDefaults(&fakeMarket{}, &fakeSearcher{}, wrapper); err != nil {
		t.Fatalf("WithDefaults failed: %v", err)
	}

	want := map[string]time.Duration{
		"get_stock_price":             TTLPrice,
		"get_historical_stock_prices": TTLHistory,
		"get_balance_sheet":           TTLBalanceSheet,
		"get_stock_news":              TTLNews,
		"web_search":                  TTLSearch,
	}
	if !reflect.DeepEqual(wrapper.ttls, want) {
		t.Errorf("expected TTLs %v, got %v", want, wrapper.ttls)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	tool := NewStockPriceTool(&fakeMarket{})

	if err := registry.Register(tool); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := registry.Register(tool); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(NewStockPriceTool(&fakeMarket{})); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	if !registry.Has("get_stock_price") {
		t.Error("expected Has to find registered tool")
	}
	if _, ok := registry.Get("get_stock_price"); !ok {
		t.Error("expected Get to find registered tool")
	}
	if _, ok := registry.Get("missing"); ok {
		t.Error("expected Get to miss unknown tool")
	}
}

func TestMetadataSchema(t *testing.T) {
	schema := NewHistoricalPriceTool(&fakeMarket{}).Metadata().Schema()

	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}
	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected properties map, got %T", schema["properties"])
	}
	ticker, ok := props["ticker"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected ticker property, got %v", props)
	}
	if ticker["type"] != "string" {
		t.Errorf("expected string ticker, got %v", ticker["type"])
	}

	required, ok := schema["required"].([]string)
	if !ok {
		t.Fatalf("expected required list, got %T", schema["required"])
	}
	want := []string{"ticker", "start_date", "end_date"}
	if !reflect.DeepEqual(required, want) {
		t.Errorf("expected required %v, got %v", want, required)
	}
}

func TestRegistryDescription(t *testing.T) {
	registry, err := WithDefaults(&fakeMarket{}, &fakeSearcher{}, nil)
	if err != nil {
		t.Fatalf("WithDefaults failed: %v", err)
	}

	desc := registry.Description()
	for _, name := range registry.Names() {
		if !strings.Contains(desc, "Tool: "+name) {
			t.Errorf("description missing tool %s", name)
		}
	}
}
