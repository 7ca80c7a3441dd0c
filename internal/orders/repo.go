package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/inventory"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const orderColumns = `
	id, order_number, email, phone, first_name, last_name,
	shipping_first_name, shipping_last_name, shipping_address, shipping_city, shipping_county, shipping_phone,
	session_id, subtotal_cents, tax_cents, shipping_cents, total_cents, currency,
	status, payment_status, payment_method, checkout_request_id, mpesa_receipt, paid_amount_cents, notes,
	created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Number, &o.Email, &o.Phone, &o.FirstName, &o.LastName,
		&o.Shipping.FirstName, &o.Shipping.LastName, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.County, &o.Shipping.Phone,
		&o.SessionID, &o.Subtotal, &o.Tax, &o.ShippingFee, &o.Total, &o.Currency,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.CheckoutRequestID, &o.MPesaReceipt, &o.PaidAmount, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) FindOrder(ctx context.Context, ref string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 OR order_number = $1`, ref))
	if err != nil {
		return Order{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, variant_id, quantity, unit_price_cents, name, image
		FROM order_items WHERE order_id = $1 ORDER BY seq`, o.ID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var li LineItem
		if err := rows.Scan(&li.ID, &li.ProductID, &li.VariantID, &li.Quantity, &li.UnitPrice, &li.Name, &li.Image); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, li)
	}
	return o, rows.Err()
}

func (r *Repo) History(ctx context.Context, orderID string) ([]StatusEvent, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, status, description, created_at
		FROM order_status_events WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusEvent
	for rows.Next() {
		var e StatusEvent
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Code, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) Ledger() inventory.Ledger { return &inventory.PGLedger{Q: t.tx} }

func (t *pgTx) CatalogItem(ctx context.Context, u inventory.Unit) (CatalogItem, error) {
	it := CatalogItem{Unit: u}
	var row pgx.Row
	if u.IsVariant() {
		row = t.tx.QueryRow(ctx, `
			SELECT p.name, COALESCE(v.price_cents, p.price_cents), p.image, p.is_active, v.stock
			FROM product_variants v JOIN products p ON p.id = v.product_id
			WHERE v.id = $1 AND v.product_id = $2`, u.VariantID, u.ProductID)
	} else {
		row = t.tx.QueryRow(ctx, `
			SELECT name, price_cents, image, is_active, stock_quantity
			FROM products WHERE id = $1`, u.ProductID)
	}
	if err := row.Scan(&it.Name, &it.Price, &it.Image, &it.Active, &it.Stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CatalogItem{}, fmt.Errorf("%w: %s", ErrUnknownProduct, u)
		}
		return CatalogItem{}, err
	}
	return it, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		o.ID, o.Number, o.Email, o.Phone, o.FirstName, o.LastName,
		o.Shipping.FirstName, o.Shipping.LastName, o.Shipping.Address, o.Shipping.City, o.Shipping.County, o.Shipping.Phone,
		o.SessionID, o.Subtotal, o.Tax, o.ShippingFee, o.Total, o.Currency,
		o.Status, o.PaymentStatus, o.PaymentMethod, o.CheckoutRequestID, o.MPesaReceipt, o.PaidAmount, o.Notes,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "orders_order_number_key" {
			return ErrDuplicateNumber
		}
		return err
	}

	for i := range o.Items {
		li := &o.Items[i]
		if li.ID == "" {
			li.ID = uuid.NewString()
		}
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, variant_id, quantity, unit_price_cents, name, image)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			li.ID, o.ID, li.ProductID, li.VariantID, li.Quantity, li.UnitPrice, li.Name, li.Image,
		); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) LockOrder(ctx context.Context, ref string) (Order, error) {
	return scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 OR order_number = $1 FOR UPDATE`, ref))
}

func (t *pgTx) UpdateOrder(ctx context.Context, o *Order) error {
	o.UpdatedAt = time.Now().UTC()
	ct, err := t.tx.Exec(ctx, `
		UPDATE orders SET
			status = $2, payment_status = $3, payment_method = $4, checkout_request_id = $5,
			mpesa_receipt = $6, paid_amount_cents = $7, notes = $8, updated_at = $9
		WHERE id = $1`,
		o.ID, o.Status, o.PaymentStatus, o.PaymentMethod, o.CheckoutRequestID,
		o.MPesaReceipt, o.PaidAmount, o.Notes, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) AppendEvent(ctx context.Context, e *StatusEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_status_events(id, order_id, status, description, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.OrderID, e.Code, e.Description, e.CreatedAt)
	return err
}
