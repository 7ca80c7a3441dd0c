// Package checkout turns a validated cart into a durable PENDING order with
// its stock reserved.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/epitome-ke/storefront-checkout/internal/inventory"
	"github.com/epitome-ke/storefront-checkout/internal/logging"
	"github.com/epitome-ke/storefront-checkout/internal/money"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/phone"
	"github.com/epitome-ke/storefront-checkout/internal/statuscache"
	"go.uber.org/zap"
)

const (
	maxNumberAttempts = 3
	placedDescription = "Order has been placed and is awaiting payment"
)

type Service struct {
	Store     orders.Store
	Numbers   orders.NumberGenerator
	Publisher orders.Publisher
	Cache     statuscache.Writer // optional
	Log       *zap.Logger
	Producer  string
}

// CreateOrder validates cart, then inserts the order, reserves every line and
// records ORDER_PLACED in one transaction. A number collision retries the
// whole transaction with a fresh number.
func (s *Service) CreateOrder(ctx context.Context, cart Cart) (orders.Order, error) {
	if err := cart.Validate(); err != nil {
		return orders.Order{}, err
	}

	log := logging.With(ctx, s.Log)
	var (
		order orders.Order
		err   error
	)
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		order, err = s.place(ctx, cart)
		if !errors.Is(err, orders.ErrDuplicateNumber) {
			break
		}
		log.Warn("order number collision", zap.Int("attempt", attempt))
	}
	if err != nil {
		return orders.Order{}, err
	}

	log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.Number),
		zap.Int("items", len(order.Items)),
		zap.Int64("total_cents", int64(order.Total)))
	s.afterCommit(ctx, order)
	return order, nil
}

func (s *Service) place(ctx context.Context, cart Cart) (orders.Order, error) {
	var placed orders.Order
	err := s.Store.InTx(ctx, func(tx orders.Tx) error {
		items, err := snapshotItems(ctx, tx, cart.Items)
		if err != nil {
			return err
		}

		msisdn := phone.Normalize(cart.Phone)
		o := orders.Order{
			Number:    s.Numbers.Next(),
			Email:     cart.Email,
			Phone:     msisdn,
			FirstName: cart.FirstName,
			LastName:  cart.LastName,
			Shipping: orders.ShippingAddress{
				FirstName: cart.FirstName,
				LastName:  cart.LastName,
				Address:   cart.ShippingAddress,
				City:      cart.ShippingCity,
				County:    cart.ShippingCounty,
				Phone:     msisdn,
			},
			SessionID:     cart.SessionID,
			Items:         items,
			Subtotal:      cart.Subtotal,
			Tax:           cart.VAT,
			ShippingFee:   cart.Shipping,
			Total:         cart.Total,
			Currency:      money.Currency,
			Status:        orders.StatusPending,
			PaymentStatus: orders.PaymentPending,
			Notes:         cart.Notes,
		}
		if err := tx.InsertOrder(ctx, &o); err != nil {
			return err
		}
		if err := reserveAll(ctx, tx.Ledger(), o.Items); err != nil {
			return err
		}
		ev := orders.StatusEvent{OrderID: o.ID, Code: orders.EventOrderPlaced, Description: placedDescription}
		if err := tx.AppendEvent(ctx, &ev); err != nil {
			return fmt.Errorf("append %s: %w", ev.Code, err)
		}
		placed = o
		return nil
	})
	return placed, err
}

// snapshotItems prices every line from the catalog and checks stock per unit,
// summing quantities when a unit appears on several lines.
func snapshotItems(ctx context.Context, tx orders.Tx, in []CartItem) ([]orders.LineItem, error) {
	var (
		problems []Problem
		out      = make([]orders.LineItem, 0, len(in))
		wanted   = map[inventory.Unit]int{}
		catalog  = map[inventory.Unit]orders.CatalogItem{}
		order    []inventory.Unit
	)

	for _, it := range in {
		u := inventory.Unit{ProductID: it.ProductID, VariantID: it.VariantID}
		name := it.Name
		if name == "" {
			name = u.String()
		}

		cat, seen := catalog[u]
		if !seen {
			var err error
			cat, err = tx.CatalogItem(ctx, u)
			switch {
			case errors.Is(err, orders.ErrUnknownProduct):
				problems = append(problems, Problem{ProductID: u.ProductID, VariantID: u.VariantID, Name: name, Reason: ReasonUnavailable})
				continue
			case err != nil:
				return nil, err
			}
			catalog[u] = cat
			order = append(order, u)
		}
		if !cat.Active {
			if !seen {
				problems = append(problems, Problem{ProductID: u.ProductID, VariantID: u.VariantID, Name: name, Reason: ReasonUnavailable})
			}
			continue
		}
		if it.Price != cat.Price {
			problems = append(problems, Problem{ProductID: u.ProductID, VariantID: u.VariantID, Name: name, Reason: ReasonPriceChanged})
			continue
		}

		wanted[u] += it.Quantity
		li := orders.LineItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: cat.Price,
			Name:      cat.Name,
			Image:     it.Image,
		}
		if li.Name == "" {
			li.Name = name
		}
		if li.Image == "" {
			li.Image = cat.Image
		}
		out = append(out, li)
	}

	for _, u := range order {
		cat := catalog[u]
		if n := wanted[u]; n > cat.Stock {
			problems = append(problems, Problem{
				ProductID: u.ProductID, VariantID: u.VariantID, Name: cat.Name,
				Reason: ReasonOutOfStock, Requested: n, Available: cat.Stock,
			})
		}
	}

	if len(problems) > 0 {
		return nil, &AvailabilityError{Problems: problems}
	}
	return out, nil
}

// reserveAll decrements stock line by line. On failure the lines already
// reserved are released before the error is returned.
func reserveAll(ctx context.Context, ledger inventory.Ledger, items []orders.LineItem) error {
	done := make([]orders.LineItem, 0, len(items))
	for _, li := range items {
		err := ledger.Reserve(ctx, li.Unit(), li.Quantity)
		if err == nil {
			done = append(done, li)
			continue
		}

		if rerr := releaseAll(ctx, ledger, done); rerr != nil {
			return &PartialReservationError{Reserved: done, Cause: err, ReleaseErr: rerr}
		}
		var se *inventory.StockError
		if errors.As(err, &se) {
			return &AvailabilityError{Problems: []Problem{{
				ProductID: li.ProductID, VariantID: li.VariantID, Name: li.Name,
				Reason: ReasonOutOfStock, Requested: se.Requested, Available: se.Available,
			}}}
		}
		if errors.Is(err, inventory.ErrUnknownUnit) {
			return &AvailabilityError{Problems: []Problem{{
				ProductID: li.ProductID, VariantID: li.VariantID, Name: li.Name, Reason: ReasonUnavailable,
			}}}
		}
		return fmt.Errorf("reserve %s: %w", li.Unit(), err)
	}
	return nil
}

func releaseAll(ctx context.Context, ledger inventory.Ledger, items []orders.LineItem) error {
	var errs []error
	for i := len(items) - 1; i >= 0; i-- {
		li := items[i]
		if err := ledger.Release(ctx, li.Unit(), li.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", li.Unit(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) afterCommit(ctx context.Context, o orders.Order) {
	st := orders.StateOf(o)
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, st); err != nil {
			s.Log.Warn("status cache write failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	items := make([]orders.ItemQty, 0, len(o.Items))
	for _, li := range o.Items {
		items = append(items, orders.ItemQty{ProductID: li.ProductID, VariantID: li.VariantID, Qty: li.Quantity})
	}
	env, err := orders.NewEnvelope(orders.EventTypeOrderPlaced, s.Producer, logging.RequestID(ctx), o.ID, orders.OrderPlacedPayload{
		OrderState: st,
		Items:      items,
		TotalCents: int64(o.Total),
		Email:      o.Email,
	})
	if err == nil {
		err = s.Publisher.Publish(ctx, orders.TopicOrderPlaced, env)
	}
	if err != nil {
		s.Log.Warn("publish failed", zap.String("event", orders.EventTypeOrderPlaced), zap.String("order_id", o.ID), zap.Error(err))
	}
}
