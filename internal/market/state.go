package market

import (
	"sort"
	"strings"
	"sync"
)

type Level struct {
	Price float64
	Qty   float64
}

// MarketState is the latest normalized book and funding for one exchange and
// symbol. Levels are ordered best first.
type MarketState struct {
	Exchange string
	Symbol   string
	Bids     []Level
	Asks     []Level
	Funding  float64
}

func (s MarketState) clone() MarketState {
	s.Bids = append([]Level(nil), s.Bids...)
	s.Asks = append([]Level(nil), s.Asks...)
	return s
}

type Key struct {
	Exchange string
	Symbol   string
}

func NewKey(exchange, symbol string) Key {
	return Key{Exchange: strings.ToLower(exchange), Symbol: strings.ToUpper(symbol)}
}

// Store holds the latest MarketState per (exchange, symbol). Entries are
// replaced wholesale and never expire.
type Store struct {
	mu     sync.RWMutex
	states map[Key]MarketState
}

func NewStore() *Store {
	return &Store{states: make(map[Key]MarketState)}
}

func (s *Store) Upsert(exchange, symbol string, bids, asks []Level, funding float64) {
	key := NewKey(exchange, symbol)
	state := MarketState{
		Exchange: key.Exchange,
		Symbol:   key.Symbol,
		Bids:     append([]Level(nil), bids...),
		Asks:     append([]Level(nil), asks...),
		Funding:  funding,
	}
	s.mu.Lock()
	s.states[key] = state
	s.mu.Unlock()
}

// Apply stores a parsed tick.
func (s *Store) Apply(t Tick) {
	s.Upsert(t.Exchange, t.Symbol, t.Bids, t.Asks, t.Funding)
}

func (s *Store) Get(exchange, symbol string) (MarketState, bool) {
	s.mu.RLock()
	state, ok := s.states[NewKey(exchange, symbol)]
	s.mu.RUnlock()
	if !ok {
		return MarketState{}, false
	}
	return state.clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Snapshot returns a point-in-time copy of every entry. Level slices are
// shared with the store; they are never mutated after insertion.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	out := make(map[Key]MarketState, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	s.mu.RUnlock()
	return Snapshot{states: out}
}

type Snapshot struct {
	states map[Key]MarketState
}

func (s Snapshot) Get(exchange, symbol string) (MarketState, bool) {
	state, ok := s.states[NewKey(exchange, symbol)]
	return state, ok
}

func (s Snapshot) Len() int {
	return len(s.states)
}

// Keys returns the snapshot keys sorted by exchange then symbol.
func (s Snapshot) Keys() []Key {
	keys := make([]Key, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Exchange != keys[j].Exchange {
			return keys[i].Exchange < keys[j].Exchange
		}
		return keys[i].Symbol < keys[j].Symbol
	})
	return keys
}
