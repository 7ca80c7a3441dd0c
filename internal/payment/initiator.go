package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/logging"
	"github.com/epitome-ke/storefront-checkout/internal/mpesa"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/phone"
	"github.com/epitome-ke/storefront-checkout/internal/statuscache"
	"go.uber.org/zap"
)

// CheckoutToken identifies one payment prompt.
type CheckoutToken struct {
	OrderID           string
	OrderNumber       string
	CheckoutRequestID string
	CustomerMessage   string
}

type Initiator struct {
	Store     orders.Store
	Gateway   Gateway
	Publisher orders.Publisher
	Cache     statuscache.Writer // optional
	Log       *zap.Logger
	Producer  string
	Timeout   time.Duration
}

// RequestPayment sends an STK prompt for the order's total. The order is
// only touched after the provider accepted the prompt, so a rejected or
// failed call can simply be retried.
func (in *Initiator) RequestPayment(ctx context.Context, orderRef, payerPhone string) (CheckoutToken, error) {
	log := logging.With(ctx, in.Log).With(zap.String("order_ref", orderRef))

	msisdn := phone.Normalize(payerPhone)
	if !phone.Valid(msisdn) {
		return CheckoutToken{}, ErrInvalidPhone
	}

	o, err := in.Store.FindOrder(ctx, orderRef)
	if err != nil {
		return CheckoutToken{}, err
	}
	if o.PaymentStatus != orders.PaymentPending {
		return CheckoutToken{}, fmt.Errorf("%w: payment status is %s", ErrNotPayable, o.PaymentStatus)
	}

	amount := o.Total.WholeUnits()
	if amount < 1 {
		amount = 1
	}

	pctx, cancel := context.WithTimeout(ctx, in.timeout())
	resp, err := in.Gateway.STKPush(pctx, mpesa.STKPushRequest{
		Phone:            msisdn,
		Amount:           amount,
		AccountReference: o.Number,
		Description:      "Payment for order " + o.Number,
	})
	cancel()
	if err != nil {
		log.Warn("stk push failed", zap.String("phone", phone.Mask(msisdn)), zap.Error(err))
		return CheckoutToken{}, err
	}

	var (
		updated orders.Order
		changed bool
	)
	err = in.Store.InTx(ctx, func(tx orders.Tx) error {
		cur, err := tx.LockOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if cur.PaymentStatus.Terminal() {
			// the callback beat us here; keep its outcome
			updated = cur
			return nil
		}
		if changed, err = cur.SetStatus(orders.StatusProcessing); err != nil {
			return err
		}
		cur.PaymentMethod = orders.PaymentMethodMPesa
		cur.CheckoutRequestID = resp.CheckoutRequestID
		if err := tx.UpdateOrder(ctx, &cur); err != nil {
			return err
		}
		if changed {
			ev := orders.StatusEvent{
				OrderID:     cur.ID,
				Code:        orders.EventPaymentRequested,
				Description: "M-Pesa payment request sent to " + phone.Mask(msisdn),
			}
			if err := tx.AppendEvent(ctx, &ev); err != nil {
				return err
			}
		}
		updated = cur
		return nil
	})
	if err != nil {
		// the prompt is out; the callback can still settle the order
		log.Error("record payment request failed",
			zap.String("checkout_request_id", resp.CheckoutRequestID), zap.Error(err))
		return CheckoutToken{}, fmt.Errorf("record payment request: %w", err)
	}

	log.Info("payment requested",
		zap.String("order_id", updated.ID),
		zap.String("checkout_request_id", resp.CheckoutRequestID),
		zap.Int64("amount", amount))

	in.afterCommit(ctx, updated, resp.CheckoutRequestID, changed)
	return CheckoutToken{
		OrderID:           updated.ID,
		OrderNumber:       updated.Number,
		CheckoutRequestID: resp.CheckoutRequestID,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

func (in *Initiator) timeout() time.Duration {
	if in.Timeout > 0 {
		return in.Timeout
	}
	return 30 * time.Second
}

func (in *Initiator) afterCommit(ctx context.Context, o orders.Order, checkoutID string, changed bool) {
	st := orders.StateOf(o)
	if in.Cache != nil {
		if err := in.Cache.Set(ctx, st); err != nil {
			in.Log.Warn("status cache write failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	if !changed {
		return
	}
	env, err := orders.NewEnvelope(orders.EventTypePaymentRequested, in.Producer, logging.RequestID(ctx), o.ID,
		orders.PaymentRequestedPayload{OrderState: st, CheckoutRequestID: checkoutID, AmountCents: int64(o.Total)})
	if err == nil {
		err = in.Publisher.Publish(ctx, orders.TopicPaymentRequested, env)
	}
	if err != nil {
		in.Log.Warn("publish failed", zap.String("event", orders.EventTypePaymentRequested), zap.String("order_id", o.ID), zap.Error(err))
	}
}
