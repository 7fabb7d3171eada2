package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("request decode failed: %v", err)
		}
		if body["api_key"] != "tv-test" {
			t.Errorf("expected api key in body, got %v", body["api_key"])
		}
		if body["query"] != "nvidia earnings" {
			t.Errorf("unexpected query: %v", body["query"])
		}
		w.Write([]byte(`{"results":[
			{"title":"Q4 report","url":"https://example.com/1","content":"Record revenue","score":0.987},
			{"title":"Analysis","url":"https://example.com/2","content":"Margins expand","score":0.61}
		]}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "tv-test", BaseURL: server.URL})
	results, err := client.Search(context.Background(), "nvidia earnings", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Q4 report" || results[0].Score != 0.987 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"title":"a"},{"title":"b"},{"title":"c"},{"title":"d"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "tv-test", BaseURL: server.URL})
	results, err := client.Search(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestSearchWithoutAPIKey(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Search(context.Background(), "query", 3); err == nil {
		t.Error("expected error when API key is missing")
	}
}

func TestSearchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "bad", BaseURL: server.URL})
	if _, err := client.Search(context.Background(), "query", 3); err == nil {
		t.Error("expected error for non-200 status")
	}
}
