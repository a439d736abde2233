package state

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memoryStore struct {
	mu    sync.Mutex
	items map[string]string
	err   error
}

func (m *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	val, ok := m.items[key]
	return val, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.items == nil {
		m.items = make(map[string]string)
	}
	m.items[key] = value
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}

func TestPositionSnapshotRoundTrip(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()
	snapshot := PositionSnapshot{
		State:       "OPEN",
		Symbol:      "SOL",
		Short:       "hyperliquid",
		Long:        "binance",
		EntryBasis:  0.0021,
		OpenedAtMS:  1_700_000_000_000,
		UpdatedAtMS: 1_700_000_000_500,
	}
	if err := SavePositionSnapshot(ctx, store, snapshot); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	got, ok, err := LoadPositionSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if !ok {
		t.Fatalf("expected snapshot to be present")
	}
	if got != snapshot {
		t.Fatalf("unexpected snapshot: %#v", got)
	}
}

func TestPositionSnapshotMissing(t *testing.T) {
	got, ok, err := LoadPositionSnapshot(context.Background(), &memoryStore{})
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if ok {
		t.Fatalf("expected no snapshot, got %#v", got)
	}
}

func TestPositionSnapshotInvalid(t *testing.T) {
	store := &memoryStore{items: map[string]string{PositionSnapshotKey: "{"}}
	if _, _, err := LoadPositionSnapshot(context.Background(), store); err == nil {
		t.Fatalf("expected error for invalid snapshot JSON")
	}
}

func TestPositionSnapshotStoreError(t *testing.T) {
	boom := errors.New("disk gone")
	store := &memoryStore{err: boom}
	if err := SavePositionSnapshot(context.Background(), store, PositionSnapshot{State: "FLAT"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if _, _, err := LoadPositionSnapshot(context.Background(), store); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestPositionSnapshotNilStore(t *testing.T) {
	if err := SavePositionSnapshot(context.Background(), nil, PositionSnapshot{}); err != nil {
		t.Fatalf("nil store save should be a no-op: %v", err)
	}
	if _, ok, err := LoadPositionSnapshot(context.Background(), nil); ok || err != nil {
		t.Fatalf("nil store load should be empty, got ok=%v err=%v", ok, err)
	}
}
