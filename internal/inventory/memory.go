package inventory

import (
	"context"
	"maps"
	"sync"
)

// MemoryLedger is a process-local Ledger. The mutex makes check-and-decrement
// one step, matching the conditional update of PGLedger.
type MemoryLedger struct {
	mu    sync.Mutex
	stock map[Unit]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{stock: map[Unit]int{}}
}

func (l *MemoryLedger) Set(u Unit, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[u] = qty
}

func (l *MemoryLedger) Reserve(_ context.Context, u Unit, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	have, ok := l.stock[u]
	if !ok {
		return ErrUnknownUnit
	}
	if have < qty {
		return &StockError{Unit: u, Requested: qty, Available: have}
	}
	l.stock[u] = have - qty
	return nil
}

func (l *MemoryLedger) Release(_ context.Context, u Unit, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.stock[u]; !ok {
		return ErrUnknownUnit
	}
	l.stock[u] += qty
	return nil
}

func (l *MemoryLedger) Available(_ context.Context, u Unit) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	have, ok := l.stock[u]
	if !ok {
		return 0, ErrUnknownUnit
	}
	return have, nil
}

func (l *MemoryLedger) Snapshot() map[Unit]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.stock)
}

func (l *MemoryLedger) Restore(s map[Unit]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock = maps.Clone(s)
}
