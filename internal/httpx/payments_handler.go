package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/logging"
	"github.com/epitome-ke/storefront-checkout/internal/mpesa"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/payment"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxCallbackBytes = 64 << 10

type PaymentRequester interface {
	RequestPayment(ctx context.Context, orderRef, payerPhone string) (payment.CheckoutToken, error)
}

type CallbackReconciler interface {
	HandleCallback(ctx context.Context, raw []byte) payment.Result
	Sync(ctx context.Context, orderRef string) (orders.Order, error)
}

type PaymentsHandler struct {
	Initiator  PaymentRequester
	Reconciler CallbackReconciler
	Log        *zap.Logger
}

func (h *PaymentsHandler) Register(r chi.Router) {
	r.Route("/payments/mpesa", func(r chi.Router) {
		r.Post("/stk-push", h.stkPush)
		r.Post("/callback", h.callback)
		r.Post("/query", h.query)
	})
}

type stkPushReq struct {
	OrderID     string `json:"orderId"`
	PhoneNumber string `json:"phoneNumber"`
}

type stkPushResp struct {
	Success           bool   `json:"success"`
	CheckoutRequestID string `json:"checkoutRequestId"`
	Message           string `json:"message"`
}

func (h *PaymentsHandler) stkPush(w http.ResponseWriter, r *http.Request) {
	var req stkPushReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.OrderID == "" || req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "orderId and phoneNumber are required")
		return
	}

	tok, err := h.Initiator.RequestPayment(r.Context(), req.OrderID, req.PhoneNumber)
	if err != nil {
		code, msg := paymentErrorStatus(err)
		if code >= http.StatusInternalServerError {
			logging.With(r.Context(), h.Log).Error("stk push failed", zap.String("order_ref", req.OrderID), zap.Error(err))
		}
		writeError(w, code, msg)
		return
	}

	msg := tok.CustomerMessage
	if msg == "" {
		msg = "Payment request sent. Check your phone to complete the payment."
	}
	writeJSON(w, http.StatusOK, stkPushResp{Success: true, CheckoutRequestID: tok.CheckoutRequestID, Message: msg})
}

// paymentErrorStatus maps a payment error to a status and a message safe to
// show the shopper.
func paymentErrorStatus(err error) (int, string) {
	var gerr *mpesa.GatewayError
	switch {
	case errors.Is(err, payment.ErrInvalidPhone):
		return http.StatusBadRequest, "Invalid phone number format"
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, payment.ErrNotPayable):
		return http.StatusConflict, "Order is not awaiting payment"
	case errors.Is(err, payment.ErrNoPaymentRequest):
		return http.StatusConflict, "No payment request has been sent for this order"
	case errors.As(err, &gerr) && gerr.Kind == mpesa.KindRejected:
		msg := gerr.Message
		if msg == "" {
			msg = "Payment request was rejected"
		}
		return http.StatusBadRequest, msg
	case errors.As(err, &gerr):
		return http.StatusBadGateway, "Payment service unavailable"
	default:
		return http.StatusInternalServerError, "Payment request failed"
	}
}

type callbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

func (h *PaymentsHandler) callback(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, callbackAck{ResultCode: 1, ResultDesc: "Unreadable body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// faults still get an ack body
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logging.With(r.Context(), h.Log).Error("callback handler panic",
				zap.Any("panic", rec), zap.Stack("stack"))
			writeJSON(w, http.StatusInternalServerError, callbackAck{ResultCode: 1, ResultDesc: "Internal server error"})
		}
	}()

	res := h.Reconciler.HandleCallback(ctx, raw)
	if res.Outcome == payment.Ack {
		writeJSON(w, http.StatusOK, callbackAck{ResultCode: 0, ResultDesc: "Accepted"})
		return
	}
	writeJSON(w, res.HTTPStatus, callbackAck{ResultCode: 1, ResultDesc: res.Reason})
}

type queryReq struct {
	OrderID string `json:"orderId"`
}

type queryResp struct {
	Success bool `json:"success"`
	statusView
}

func (h *PaymentsHandler) query(w http.ResponseWriter, r *http.Request) {
	var req queryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	o, err := h.Reconciler.Sync(r.Context(), req.OrderID)
	if err != nil {
		code, msg := paymentErrorStatus(err)
		if code >= http.StatusInternalServerError {
			logging.With(r.Context(), h.Log).Error("payment status query failed", zap.String("order_ref", req.OrderID), zap.Error(err))
		}
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, queryResp{Success: true, statusView: statusViewOf(orders.StateOf(o))})
}
