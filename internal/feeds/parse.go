package feeds

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"xarb-scanner/internal/market"

	"github.com/shopspring/decimal"
)

var errNoLevels = errors.New("no book levels")

// parseLevel converts exchange string fields into a book level.
func parseLevel(px, qty string) (market.Level, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(px))
	if err != nil {
		return market.Level{}, fmt.Errorf("price %q: %w", px, err)
	}
	q, err := decimal.NewFromString(strings.TrimSpace(qty))
	if err != nil {
		return market.Level{}, fmt.Errorf("qty %q: %w", qty, err)
	}
	if !p.IsPositive() || q.IsNegative() {
		return market.Level{}, fmt.Errorf("invalid level %s@%s", q, p)
	}
	return market.Level{Price: p.InexactFloat64(), Qty: q.InexactFloat64()}, nil
}

// parsePairs handles the [["px","qty"], ...] depth layout.
func parsePairs(pairs [][]string, limit int) ([]market.Level, error) {
	out := make([]market.Level, 0, min(len(pairs), limit))
	for _, pair := range pairs {
		if len(out) == limit {
			break
		}
		if len(pair) < 2 {
			return nil, fmt.Errorf("short level %v", pair)
		}
		lvl, err := parseLevel(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		out = append(out, lvl)
	}
	if len(out) == 0 {
		return nil, errNoLevels
	}
	return out, nil
}

func baseSymbol(instrument string) string {
	return strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(instrument)), "USDT")
}

func symbolSet(symbols []string) map[string]struct{} {
	out := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		out[strings.ToUpper(s)] = struct{}{}
	}
	return out
}

func extractUniverseAndCtxs(payload any) ([]any, []any) {
	if arr, ok := toSlice(payload); ok && len(arr) >= 2 {
		if metaMap, ok := toMap(arr[0]); ok {
			if universe, ok := toSlice(metaMap["universe"]); ok {
				ctxs, _ := toSlice(arr[1])
				return universe, ctxs
			}
		}
		if universe, ok := toSlice(arr[0]); ok {
			ctxs, _ := toSlice(arr[1])
			return universe, ctxs
		}
	}
	if metaMap, ok := toMap(payload); ok {
		universe, _ := toSlice(metaMap["universe"])
		ctxs, _ := toSlice(metaMap["assetCtxs"])
		return universe, ctxs
	}
	return nil, nil
}

func indexedMap(items []any, idx int) (map[string]any, bool) {
	if idx < 0 || idx >= len(items) {
		return nil, false
	}
	return toMap(items[idx])
}

func toMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func toSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func stringFromMap(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s := stringFromAny(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func floatFromMap(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if f, ok := floatFromAny(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func floatFromAny(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
