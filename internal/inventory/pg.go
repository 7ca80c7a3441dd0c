package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx, so the ledger can run
// inside the caller's transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGLedger struct{ Q Querier }

func (l *PGLedger) Reserve(ctx context.Context, u Unit, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	var (
		ct  pgconn.CommandTag
		err error
	)
	if u.IsVariant() {
		ct, err = l.Q.Exec(ctx, `
			UPDATE product_variants SET stock = stock - $3, updated_at = now()
			WHERE id = $1 AND product_id = $2 AND stock >= $3`,
			u.VariantID, u.ProductID, qty)
	} else {
		ct, err = l.Q.Exec(ctx, `
			UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = now()
			WHERE id = $1 AND stock_quantity >= $2`,
			u.ProductID, qty)
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// nothing updated: either the row is gone or the guard rejected it
	avail, err := l.Available(ctx, u)
	if err != nil {
		return err
	}
	return &StockError{Unit: u, Requested: qty, Available: avail}
}

func (l *PGLedger) Release(ctx context.Context, u Unit, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	var (
		ct  pgconn.CommandTag
		err error
	)
	if u.IsVariant() {
		ct, err = l.Q.Exec(ctx, `
			UPDATE product_variants SET stock = stock + $3, updated_at = now()
			WHERE id = $1 AND product_id = $2`,
			u.VariantID, u.ProductID, qty)
	} else {
		ct, err = l.Q.Exec(ctx, `
			UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = now()
			WHERE id = $1`,
			u.ProductID, qty)
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrUnknownUnit
	}
	return nil
}

func (l *PGLedger) Available(ctx context.Context, u Unit) (int, error) {
	var (
		n   int
		row pgx.Row
	)
	if u.IsVariant() {
		row = l.Q.QueryRow(ctx, `SELECT stock FROM product_variants WHERE id = $1 AND product_id = $2`, u.VariantID, u.ProductID)
	} else {
		row = l.Q.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, u.ProductID)
	}
	if err := row.Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUnknownUnit
		}
		return 0, err
	}
	return n, nil
}
