package feeds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHyperliquidParseL2Book(t *testing.T) {
	h := NewHyperliquid(testOptions(""), nopLog)
	msg := `{"channel":"l2Book","data":{"coin":"BTC","time":1,"levels":[
		[{"px":"65000","sz":"1","n":2},{"px":"64999","sz":"2","n":1},{"px":"64998","sz":"3","n":1},{"px":"64997","sz":"4","n":1},{"px":"64996","sz":"5","n":1},{"px":"64995","sz":"6","n":1}],
		[{"px":"65001","sz":"0.5","n":1}]
	]}}`
	tick, ok, err := h.parse([]byte(msg))
	if err != nil || !ok {
		t.Fatalf("parse: ok=%v err=%v", ok, err)
	}
	if tick.Exchange != "hyperliquid" || tick.Symbol != "BTC" {
		t.Fatalf("unexpected identity: %+v", tick)
	}
	if len(tick.Bids) != hyperliquidDepth {
		t.Fatalf("expected bids capped at %d, got %d", hyperliquidDepth, len(tick.Bids))
	}
	if tick.Bids[0].Price != 65000 || tick.Asks[0].Qty != 0.5 {
		t.Fatalf("unexpected book: %+v", tick)
	}
}

func TestHyperliquidParseSkipsOtherChannels(t *testing.T) {
	h := NewHyperliquid(testOptions(""), nopLog)
	for _, frame := range []string{
		`{"channel":"pong"}`,
		`{"channel":"subscriptionResponse","data":{"method":"subscribe"}}`,
	} {
		if _, ok, err := h.parse([]byte(frame)); ok || err != nil {
			t.Fatalf("frame %s: expected skip, got ok=%v err=%v", frame, ok, err)
		}
	}
	if _, _, err := h.parse([]byte(`{"channel":"l2Book","data":{"coin":"ETH","levels":[[]]}}`)); err == nil {
		t.Fatalf("expected error for one-sided book")
	}
}

func TestHyperliquidFetchFunding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["type"] != "metaAndAssetCtxs" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[
			{"universe":[{"name":"BTC","szDecimals":5},{"name":"ETH","szDecimals":4},{"name":"SOL"}]},
			[{"funding":"0.0000125"},{"funding":"-0.00002"},{"funding":"0.1"}]
		]`))
	}))
	defer server.Close()

	h := NewHyperliquid(testOptions(server.URL), nopLog)
	rates, err := h.FetchFunding(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rates) != 2 || !closeEnough(rates["BTC"], 0.0000125) || !closeEnough(rates["ETH"], -0.00002) {
		t.Fatalf("unexpected rates: %v", rates)
	}
}

func TestExtractUniverseAndCtxsMapForm(t *testing.T) {
	payload := map[string]any{
		"universe":  []any{map[string]any{"name": "SOL"}},
		"assetCtxs": []any{map[string]any{"funding": 0.005}},
	}
	universe, ctxs := extractUniverseAndCtxs(payload)
	if len(universe) != 1 || len(ctxs) != 1 {
		t.Fatalf("unexpected extraction: %v %v", universe, ctxs)
	}
	rate, ok := floatFromMap(ctxs[0].(map[string]any), "funding")
	if !ok || rate != 0.005 {
		t.Fatalf("unexpected rate %v ok=%v", rate, ok)
	}
}
