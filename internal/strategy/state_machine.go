package strategy

import (
	"sync"
	"time"
)

// PositionMachine guards the single system-wide position.
type PositionMachine struct {
	mu       sync.Mutex
	position Position
}

func NewPositionMachine() *PositionMachine {
	return &PositionMachine{position: Position{State: StateFlat}}
}

func (m *PositionMachine) Current() Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Open moves Flat to Open. It reports false when a position is already open.
func (m *PositionMachine) Open(route RouteKey, entryBasis float64, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.position.State != StateFlat {
		return false
	}
	m.position = Position{
		State:      nextState(m.position.State, EventOpen),
		Route:      route,
		EntryBasis: entryBasis,
		OpenedAt:   now,
	}
	return true
}

// Close moves Open to Flat and returns the position that was closed.
func (m *PositionMachine) Close(now time.Time) (Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.position.State != StateOpen {
		return Position{}, false
	}
	closed := m.position
	closed.ClosedAt = now
	m.position = Position{State: nextState(m.position.State, EventClose), ClosedAt: now}
	return closed, true
}

// Restore replaces the current position, e.g. from a persisted snapshot.
func (m *PositionMachine) Restore(p Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.State != StateOpen {
		p = Position{State: StateFlat, ClosedAt: p.ClosedAt}
	}
	m.position = p
}

func nextState(current State, event Event) State {
	switch current {
	case StateFlat:
		if event == EventOpen {
			return StateOpen
		}
	case StateOpen:
		if event == EventClose {
			return StateFlat
		}
	}
	return current
}
