package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const PositionSnapshotKey = "scanner:position"

// PositionSnapshot is the persisted form of the system-wide position.
type PositionSnapshot struct {
	State       string  `json:"state"`
	Symbol      string  `json:"symbol,omitempty"`
	Short       string  `json:"short,omitempty"`
	Long        string  `json:"long,omitempty"`
	EntryBasis  float64 `json:"entry_basis,omitempty"`
	OpenedAtMS  int64   `json:"opened_at_ms,omitempty"`
	ClosedAtMS  int64   `json:"closed_at_ms,omitempty"`
	UpdatedAtMS int64   `json:"updated_at_ms"`
}

func LoadPositionSnapshot(ctx context.Context, store Store) (PositionSnapshot, bool, error) {
	if store == nil {
		return PositionSnapshot{}, false, nil
	}
	raw, ok, err := store.Get(ctx, PositionSnapshotKey)
	if err != nil {
		return PositionSnapshot{}, false, fmt.Errorf("load position: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return PositionSnapshot{}, false, nil
	}
	var snapshot PositionSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return PositionSnapshot{}, false, fmt.Errorf("decode position: %w", err)
	}
	return snapshot, true, nil
}

func SavePositionSnapshot(ctx context.Context, store Store, snapshot PositionSnapshot) error {
	if store == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, PositionSnapshotKey, string(payload)); err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}
