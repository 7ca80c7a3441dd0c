// Package ordertest provides an in-memory orders.Store for tests.
package ordertest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/inventory"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/google/uuid"
)

// Store serialises every transaction behind one mutex and rolls back by
// restoring a snapshot when fn returns an error.
type Store struct {
	mu      sync.Mutex
	ledger  *inventory.MemoryLedger
	catalog map[inventory.Unit]orders.CatalogItem
	orders  map[string]orders.Order
	events  []orders.StatusEvent

	// Fail* make the matching Tx call return the error once set.
	FailInsert error
	FailUpdate error
	FailAppend error
	FailLock   error
	// TakenNumbers are rejected by InsertOrder with ErrDuplicateNumber.
	TakenNumbers map[string]bool
}

func New() *Store {
	return &Store{
		ledger:       inventory.NewMemoryLedger(),
		catalog:      map[inventory.Unit]orders.CatalogItem{},
		orders:       map[string]orders.Order{},
		TakenNumbers: map[string]bool{},
	}
}

// AddItem registers a catalog entry and its stock.
func (s *Store) AddItem(it orders.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[it.Unit] = it
	s.ledger.Set(it.Unit, it.Stock)
}

// SeedOrder stores o as if it had been committed earlier.
func (s *Store) SeedOrder(o orders.Order) orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	s.orders[o.ID] = cloneOrder(o)
	return o
}

func (s *Store) Ledger() *inventory.MemoryLedger { return s.ledger }

func (s *Store) Events() []orders.StatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *Store) InTx(ctx context.Context, fn func(tx orders.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapOrders := make(map[string]orders.Order, len(s.orders))
	for k, v := range s.orders {
		snapOrders[k] = cloneOrder(v)
	}
	snapEvents := slices.Clone(s.events)
	snapStock := s.ledger.Snapshot()

	if err := fn(&tx{s: s}); err != nil {
		s.orders = snapOrders
		s.events = snapEvents
		s.ledger.Restore(snapStock)
		return err
	}
	return nil
}

func (s *Store) FindOrder(_ context.Context, ref string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.lookup(ref)
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) History(_ context.Context, orderID string) ([]orders.StatusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.StatusEvent
	for _, e := range s.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) lookup(ref string) (orders.Order, bool) {
	if o, ok := s.orders[ref]; ok {
		return o, true
	}
	for _, o := range s.orders {
		if o.Number == ref {
			return o, true
		}
	}
	return orders.Order{}, false
}

// tx runs with s.mu held by InTx.
type tx struct{ s *Store }

func (t *tx) Ledger() inventory.Ledger { return t.s.ledger }

func (t *tx) CatalogItem(_ context.Context, u inventory.Unit) (orders.CatalogItem, error) {
	it, ok := t.s.catalog[u]
	if !ok {
		return orders.CatalogItem{}, fmt.Errorf("%w: %s", orders.ErrUnknownProduct, u)
	}
	it.Stock, _ = t.s.ledger.Available(context.Background(), u)
	return it, nil
}

func (t *tx) InsertOrder(_ context.Context, o *orders.Order) error {
	if t.s.FailInsert != nil {
		return t.s.FailInsert
	}
	if t.s.TakenNumbers[o.Number] {
		return orders.ErrDuplicateNumber
	}
	for _, existing := range t.s.orders {
		if existing.Number == o.Number {
			return orders.ErrDuplicateNumber
		}
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = uuid.NewString()
		}
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	t.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (t *tx) LockOrder(_ context.Context, ref string) (orders.Order, error) {
	if t.s.FailLock != nil {
		return orders.Order{}, t.s.FailLock
	}
	o, ok := t.s.lookup(ref)
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (t *tx) UpdateOrder(_ context.Context, o *orders.Order) error {
	if t.s.FailUpdate != nil {
		return t.s.FailUpdate
	}
	cur, ok := t.s.orders[o.ID]
	if !ok {
		return orders.ErrNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	cur.Status = o.Status
	cur.PaymentStatus = o.PaymentStatus
	cur.PaymentMethod = o.PaymentMethod
	cur.CheckoutRequestID = o.CheckoutRequestID
	cur.MPesaReceipt = o.MPesaReceipt
	cur.PaidAmount = o.PaidAmount
	cur.Notes = o.Notes
	cur.UpdatedAt = o.UpdatedAt
	t.s.orders[o.ID] = cur
	return nil
}

func (t *tx) AppendEvent(_ context.Context, e *orders.StatusEvent) error {
	if t.s.FailAppend != nil {
		return t.s.FailAppend
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	t.s.events = append(t.s.events, *e)
	return nil
}

func cloneOrder(o orders.Order) orders.Order {
	o.Items = slices.Clone(o.Items)
	return o
}
