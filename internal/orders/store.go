package orders

import (
	"context"
	"errors"

	"github.com/epitome-ke/storefront-checkout/internal/inventory"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrUnknownProduct  = errors.New("product not found")
	ErrDuplicateNumber = errors.New("order number already taken")
)

// Store is the durable home of orders and their history. Writes go through
// InTx so an order, its stock decrements and its events commit together.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// FindOrder resolves ref as an order id or an order number.
	FindOrder(ctx context.Context, ref string) (Order, error)
	// History returns events oldest first.
	History(ctx context.Context, orderID string) ([]StatusEvent, error)
}

type Tx interface {
	CatalogItem(ctx context.Context, unit inventory.Unit) (CatalogItem, error)
	Ledger() inventory.Ledger
	InsertOrder(ctx context.Context, o *Order) error
	// LockOrder loads the order header and holds it until the tx ends.
	LockOrder(ctx context.Context, ref string) (Order, error)
	UpdateOrder(ctx context.Context, o *Order) error
	AppendEvent(ctx context.Context, e *StatusEvent) error
}
