package history

import "testing"

func TestBufferEvictsOldestFirst(t *testing.T) {
	buf := NewBuffer(3)
	for i := 1; i <= 4; i++ {
		buf.Push(float64(i))
	}
	got := buf.Values()
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if last, ok := buf.Last(); !ok || last != 4 {
		t.Fatalf("expected last 4, got %v", last)
	}
}

func TestBufferPartiallyFilled(t *testing.T) {
	buf := NewBuffer(5)
	buf.Push(1)
	buf.Push(2)
	if buf.Len() != 2 || buf.Cap() != 5 {
		t.Fatalf("unexpected len/cap %d/%d", buf.Len(), buf.Cap())
	}
	if _, ok := NewBuffer(2).Last(); ok {
		t.Fatalf("expected empty buffer to have no last value")
	}
}

func TestTrackerCapacityPlusOne(t *testing.T) {
	const capacity = MinCapacity
	tracker := NewTracker[string](capacity)
	var values []float64
	for i := 0; i <= capacity; i++ {
		values = tracker.Push("BINANCE-BYBIT-BTC", float64(i))
	}
	if len(values) != capacity {
		t.Fatalf("expected %d values, got %d", capacity, len(values))
	}
	if values[0] != 1 || values[len(values)-1] != capacity {
		t.Fatalf("expected window [1..%d], got first=%v last=%v", capacity, values[0], values[len(values)-1])
	}
}

func TestTrackerKeysAreIndependent(t *testing.T) {
	tracker := NewTracker[string](10)
	tracker.Push("a", 1)
	tracker.Push("b", 2)
	tracker.Push("b", 3)
	if got := tracker.Values("a"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected values for a: %v", got)
	}
	if got := tracker.Values("b"); len(got) != 2 {
		t.Fatalf("unexpected values for b: %v", got)
	}
	if tracker.Values("missing") != nil {
		t.Fatalf("expected nil for unknown key")
	}
	if tracker.Len() != 2 {
		t.Fatalf("expected 2 buffers, got %d", tracker.Len())
	}
}
