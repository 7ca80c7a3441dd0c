// Package inventory is the authoritative stock ledger. Every decrement is a
// single conditional update so concurrent reservations can never drive a unit
// below zero.
package inventory

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownUnit       = errors.New("unknown stock unit")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Unit identifies a sellable stock unit: a bare product, or one variant of it.
type Unit struct {
	ProductID string
	VariantID string
}

func (u Unit) IsVariant() bool { return u.VariantID != "" }

func (u Unit) String() string {
	if u.IsVariant() {
		return u.ProductID + "/" + u.VariantID
	}
	return u.ProductID
}

// StockError is returned by Reserve when the unit holds less than requested.
type StockError struct {
	Unit      Unit
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Unit, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

type Ledger interface {
	// Reserve decrements the unit by qty or fails with ErrInsufficientStock.
	Reserve(ctx context.Context, unit Unit, qty int) error
	// Release is the compensating increment for a prior Reserve.
	Release(ctx context.Context, unit Unit, qty int) error
	Available(ctx context.Context, unit Unit) (int, error)
}
