package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/logging"
	"github.com/epitome-ke/storefront-checkout/internal/money"
	"github.com/epitome-ke/storefront-checkout/internal/mpesa"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/phone"
	"github.com/epitome-ke/storefront-checkout/internal/statuscache"
	"go.uber.org/zap"
)

type Outcome int

const (
	Ack Outcome = iota
	Reject
	// Retry acknowledges with an error after a transient failure so the
	// provider delivers again.
	Retry
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Reject:
		return "reject"
	default:
		return "retry"
	}
}

type Result struct {
	Outcome    Outcome
	HTTPStatus int
	Reason     string
	OrderID    string
	// Applied is set when this delivery recorded the payment outcome.
	Applied bool
}

func ack(reason string) Result {
	return Result{Outcome: Ack, HTTPStatus: http.StatusOK, Reason: reason}
}

func reject(status int, reason string) Result {
	return Result{Outcome: Reject, HTTPStatus: status, Reason: reason}
}

// Deduper is a fast replay filter keyed by prompt and result code.
type Deduper interface {
	Seen(ctx context.Context, checkoutRequestID string, resultCode int) (bool, error)
	Mark(ctx context.Context, checkoutRequestID string, resultCode int) error
}

type Reconciler struct {
	Store     orders.Store
	Gateway   Gateway
	Publisher orders.Publisher
	Cache     statuscache.Writer // optional
	Dedup     Deduper            // optional
	Log       *zap.Logger
	Producer  string
	Timeout   time.Duration
}

// settlement is a terminal answer from the provider, whichever way it came.
type settlement struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Amount            money.Cents
	HasAmount         bool
	Receipt           string
	Phone             string
	Source            string
}

func (s settlement) paid() bool { return s.ResultCode == mpesa.ResultSuccess }

func (s settlement) paymentStatus() orders.PaymentStatus {
	if s.paid() {
		return orders.PaymentPaid
	}
	return orders.PaymentFailed
}

// HandleCallback applies one webhook delivery. It never panics on bad input
// and never mutates an order that already has a payment outcome.
func (r *Reconciler) HandleCallback(ctx context.Context, raw []byte) Result {
	log := logging.With(ctx, r.Log)

	cb, err := mpesa.ParseCallback(raw)
	if err != nil {
		log.Warn("reject callback", zap.Error(err))
		return reject(http.StatusBadRequest, "Malformed callback")
	}
	log = log.With(
		zap.String("checkout_request_id", cb.CheckoutRequestID),
		zap.Int("result_code", cb.ResultCode),
		zap.String("account_reference", cb.AccountReference))

	if cb.AccountReference == "" {
		log.Warn("reject callback without account reference")
		return reject(http.StatusBadRequest, "No account reference")
	}

	if r.Dedup != nil && cb.CheckoutRequestID != "" {
		seen, err := r.Dedup.Seen(ctx, cb.CheckoutRequestID, cb.ResultCode)
		if err != nil {
			log.Warn("dedup lookup failed", zap.Error(err))
		} else if seen {
			log.Info("duplicate callback")
			return ack("Duplicate")
		}
	}

	s := settlement{
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
		Amount:            cb.Amount,
		HasAmount:         cb.HasAmount,
		Receipt:           cb.Receipt,
		Phone:             cb.Phone,
		Source:            "callback",
	}
	o, applied, err := r.settle(ctx, log, cb.AccountReference, s)
	var te *orders.TransitionError
	switch {
	case errors.Is(err, orders.ErrNotFound):
		log.Warn("reject callback for unknown order")
		return reject(http.StatusNotFound, "Order not found")
	case errors.As(err, &te):
		// permanent: retrying cannot help
		log.Error("callback conflicts with order state", zap.Error(err))
		return ack("Ignored")
	case err != nil:
		log.Error("callback processing failed", zap.Error(err))
		return Result{Outcome: Retry, HTTPStatus: http.StatusInternalServerError, Reason: "Internal server error"}
	}

	if r.Dedup != nil && cb.CheckoutRequestID != "" {
		if err := r.Dedup.Mark(ctx, cb.CheckoutRequestID, cb.ResultCode); err != nil {
			log.Warn("dedup mark failed", zap.Error(err))
		}
	}

	res := ack("Accepted")
	res.OrderID = o.ID
	res.Applied = applied
	return res
}

// Sync asks the provider for the outcome of the order's last prompt, for
// when the callback never arrived. A prompt still awaiting the payer leaves
// the order unchanged.
func (r *Reconciler) Sync(ctx context.Context, orderRef string) (orders.Order, error) {
	log := logging.With(ctx, r.Log).With(zap.String("order_ref", orderRef))

	o, err := r.Store.FindOrder(ctx, orderRef)
	if err != nil {
		return orders.Order{}, err
	}
	if o.PaymentStatus.Terminal() {
		return o, nil
	}
	if o.CheckoutRequestID == "" {
		return o, ErrNoPaymentRequest
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	qctx, cancel := context.WithTimeout(ctx, timeout)
	q, err := r.Gateway.STKQuery(qctx, o.CheckoutRequestID)
	cancel()
	if err != nil {
		return o, err
	}
	if q.Pending {
		log.Debug("payment still pending", zap.String("checkout_request_id", o.CheckoutRequestID))
		return o, nil
	}

	updated, _, err := r.settle(ctx, log, o.ID, settlement{
		CheckoutRequestID: o.CheckoutRequestID,
		ResultCode:        q.ResultCode,
		ResultDesc:        q.ResultDesc,
		Source:            "query",
	})
	if err != nil {
		return o, err
	}
	return updated, nil
}

// settle records s against the order under a row lock. It reports
// applied=false when the order already had an outcome or s belongs to a
// superseded prompt.
func (r *Reconciler) settle(ctx context.Context, log *zap.Logger, ref string, s settlement) (orders.Order, bool, error) {
	var (
		result  orders.Order
		applied bool
		event   orders.StatusEvent
	)
	err := r.Store.InTx(ctx, func(tx orders.Tx) error {
		cur, err := tx.LockOrder(ctx, ref)
		if err != nil {
			return err
		}
		result = cur

		if cur.PaymentStatus.Terminal() {
			if cur.PaymentStatus != s.paymentStatus() {
				log.Warn("conflicting payment outcome ignored",
					zap.String("order_id", cur.ID),
					zap.String("recorded", string(cur.PaymentStatus)),
					zap.String("received", string(s.paymentStatus())))
			} else {
				log.Info("payment outcome already recorded", zap.String("order_id", cur.ID))
			}
			return nil
		}
		if cur.CheckoutRequestID != "" && s.CheckoutRequestID != "" && cur.CheckoutRequestID != s.CheckoutRequestID {
			log.Warn("outcome for superseded prompt ignored",
				zap.String("order_id", cur.ID),
				zap.String("current_checkout_request_id", cur.CheckoutRequestID))
			return nil
		}

		if _, err := cur.SetPaymentStatus(s.paymentStatus()); err != nil {
			return err
		}
		if s.paid() {
			if _, err := cur.SetStatus(orders.StatusProcessing); err != nil {
				return err
			}
			paid := cur.Total
			if s.HasAmount {
				paid = s.Amount
				if paid.WholeUnits() != cur.Total.WholeUnits() {
					log.Warn("paid amount differs from order total",
						zap.String("order_id", cur.ID),
						zap.String("paid", paid.String()),
						zap.String("total", cur.Total.String()))
				}
			}
			cur.PaidAmount = paid
			cur.MPesaReceipt = s.Receipt
			event = orders.StatusEvent{Code: orders.EventPaymentConfirmed, Description: confirmedDescription(paid, s.Receipt)}
		} else {
			if _, err := cur.SetStatus(orders.StatusCancelled); err != nil {
				return err
			}
			event = orders.StatusEvent{Code: orders.EventPaymentFailed, Description: "Payment failed: " + s.ResultDesc}
		}
		if cur.PaymentMethod == "" {
			cur.PaymentMethod = orders.PaymentMethodMPesa
		}
		if cur.CheckoutRequestID == "" {
			cur.CheckoutRequestID = s.CheckoutRequestID
		}

		if err := tx.UpdateOrder(ctx, &cur); err != nil {
			return err
		}
		event.OrderID = cur.ID
		if err := tx.AppendEvent(ctx, &event); err != nil {
			return fmt.Errorf("append %s: %w", event.Code, err)
		}
		result, applied = cur, true
		return nil
	})
	if err != nil {
		return orders.Order{}, false, err
	}

	if applied {
		log.Info("payment outcome recorded",
			zap.String("order_id", result.ID),
			zap.String("order_number", result.Number),
			zap.String("payment_status", string(result.PaymentStatus)),
			zap.String("source", s.Source),
			zap.String("payer", phone.Mask(s.Phone)))
		r.afterCommit(ctx, result, s)
	}
	return result, applied, nil
}

func confirmedDescription(amount money.Cents, receipt string) string {
	if receipt == "" {
		return fmt.Sprintf("Payment of %s confirmed via M-Pesa.", money.Format(amount))
	}
	return fmt.Sprintf("Payment of %s confirmed via M-Pesa. Receipt: %s", money.Format(amount), receipt)
}

func (r *Reconciler) afterCommit(ctx context.Context, o orders.Order, s settlement) {
	st := orders.StateOf(o)
	if r.Cache != nil {
		if err := r.Cache.Set(ctx, st); err != nil {
			r.Log.Warn("status cache write failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	var (
		env   orders.Envelope
		topic string
		err   error
	)
	if s.paid() {
		topic = orders.TopicPaymentConfirmed
		env, err = orders.NewEnvelope(orders.EventTypePaymentConfirmed, r.Producer, logging.RequestID(ctx), o.ID,
			orders.PaymentConfirmedPayload{OrderState: st, Receipt: o.MPesaReceipt, AmountCents: int64(o.PaidAmount)})
	} else {
		topic = orders.TopicPaymentFailed
		env, err = orders.NewEnvelope(orders.EventTypePaymentFailed, r.Producer, logging.RequestID(ctx), o.ID,
			orders.PaymentFailedPayload{OrderState: st, ResultCode: s.ResultCode, Reason: s.ResultDesc})
	}
	if err == nil {
		err = r.Publisher.Publish(ctx, topic, env)
	}
	if err != nil {
		r.Log.Warn("publish failed", zap.String("topic", topic), zap.String("order_id", o.ID), zap.Error(err))
	}
}
