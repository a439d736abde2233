package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGetEncodesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v5/market/tickers" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"category":"` + r.URL.Query().Get("category") + `"}`))
	}))
	defer server.Close()

	client := New(server.URL+"/", time.Second, zap.NewNop())
	var out struct {
		Category string `json:"category"`
	}
	if err := client.Get(context.Background(), "/v5/market/tickers", url.Values{"category": {"linear"}}, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Category != "linear" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestPostSendsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`["` + body["type"] + `"]`))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	var out []string
	if err := client.Post(context.Background(), "/info", map[string]string{"type": "metaAndAssetCtxs"}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(out) != 1 || out[0] != "metaAndAssetCtxs" {
		t.Fatalf("unexpected response %v", out)
	}
}

func TestNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, zap.NewNop())
	if err := client.Get(context.Background(), "/x", nil, nil); err == nil {
		t.Fatalf("expected error on 429")
	}
}
