package quant

import (
	"math"
	"testing"

	"xarb-scanner/internal/market"
)

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestVWAPEmptyBook(t *testing.T) {
	if got := VWAP(nil, 1000); got != 0 {
		t.Fatalf("expected 0 for empty book, got %f", got)
	}
}

func TestVWAPSingleLevelWithinDepth(t *testing.T) {
	levels := []market.Level{{Price: 100, Qty: 50}}
	if got := VWAP(levels, 1000); !closeEnough(got, 100) {
		t.Fatalf("expected 100, got %f", got)
	}
}

func TestVWAPInsufficientDepthUsesDeepestLevel(t *testing.T) {
	levels := []market.Level{{Price: 100, Qty: 1}, {Price: 99, Qty: 1}}
	if got := VWAP(levels, 10000); got != 99 {
		t.Fatalf("expected deepest price 99, got %f", got)
	}
}

func TestVWAPPartialFill(t *testing.T) {
	levels := []market.Level{{Price: 100, Qty: 5}, {Price: 110, Qty: 10}}
	// 500 from the first level, 550 from the second (5 units).
	got := VWAP(levels, 1050)
	want := 1050.0 / 10.0
	if !closeEnough(got, want) {
		t.Fatalf("expected %f, got %f", want, got)
	}
}

func TestWeightedOBIEmpty(t *testing.T) {
	if got := WeightedOBI(nil, nil); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestWeightedOBISymmetric(t *testing.T) {
	bids := []market.Level{{Price: 99, Qty: 3}, {Price: 98, Qty: 1}}
	asks := []market.Level{{Price: 100, Qty: 3}, {Price: 101, Qty: 1}}
	if got := WeightedOBI(bids, asks); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestWeightedOBIOneSided(t *testing.T) {
	bids := []market.Level{{Price: 99, Qty: 3}}
	asks := []market.Level{{Price: 100, Qty: 3}}
	if got := WeightedOBI(bids, nil); got != 1 {
		t.Fatalf("expected 1 for bid-only book, got %f", got)
	}
	if got := WeightedOBI(nil, asks); got != -1 {
		t.Fatalf("expected -1 for ask-only book, got %f", got)
	}
}

func TestWeightedOBIIgnoresDeepLevels(t *testing.T) {
	bids := []market.Level{
		{Price: 10, Qty: 1}, {Price: 9, Qty: 1}, {Price: 8, Qty: 1},
		{Price: 7, Qty: 1}, {Price: 6, Qty: 1}, {Price: 5, Qty: 1000},
	}
	asks := []market.Level{{Price: 11, Qty: 3}}
	// bid weights 5+4+3+2+1 = 15, ask 3*5 = 15.
	if got := WeightedOBI(bids, asks); !closeEnough(got, 0) {
		t.Fatalf("expected 0 with deep level ignored, got %f", got)
	}
}
