package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/checkout"
	"github.com/epitome-ke/storefront-checkout/internal/logging"
	"github.com/epitome-ke/storefront-checkout/internal/money"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/statuscache"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, cart checkout.Cart) (orders.Order, error)
}

type StatusCache interface {
	statuscache.Reader
	statuscache.Writer
}

type OrdersHandler struct {
	Checkout OrderCreator
	Store    orders.Store
	Cache    StatusCache // optional
	Log      *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{ref}", h.getOrder)
	r.Get("/orders/{ref}/payment-status", h.paymentStatus)
	r.Get("/checkout/quote", h.quote)
}

type createdOrder struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	Total       money.Cents `json:"total"`
	Email       string      `json:"email"`
}

type createOrderResp struct {
	Success bool         `json:"success"`
	Order   createdOrder `json:"order"`
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var cart checkout.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Checkout.CreateOrder(ctx, cart)
	var (
		verr *checkout.ValidationError
		aerr *checkout.AvailabilityError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid order data", Details: verr.Fields})
		return
	case errors.As(err, &aerr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: aerr.Error(), Details: aerr.Problems})
		return
	case err != nil:
		logging.With(r.Context(), h.Log).Error("create order failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	writeJSON(w, http.StatusOK, createOrderResp{
		Success: true,
		Order:   createdOrder{ID: o.ID, OrderNumber: o.Number, Total: o.Total, Email: o.Email},
	})
}

type lineView struct {
	ProductID string      `json:"productId"`
	VariantID string      `json:"variantId,omitempty"`
	Name      string      `json:"name"`
	Image     string      `json:"image,omitempty"`
	Quantity  int         `json:"quantity"`
	Price     money.Cents `json:"price"`
	Total     money.Cents `json:"total"`
}

type eventView struct {
	Code        orders.EventCode `json:"status"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type orderView struct {
	ID                string               `json:"id"`
	OrderNumber       string               `json:"orderNumber"`
	Email             string               `json:"email"`
	Phone             string               `json:"phone"`
	FirstName         string               `json:"firstName"`
	LastName          string               `json:"lastName"`
	ShippingAddress   string               `json:"shippingAddress"`
	ShippingCity      string               `json:"shippingCity"`
	ShippingCounty    string               `json:"shippingCounty"`
	Items             []lineView           `json:"items"`
	Subtotal          money.Cents          `json:"subtotal"`
	VAT               money.Cents          `json:"vat"`
	Shipping          money.Cents          `json:"shipping"`
	Total             money.Cents          `json:"total"`
	Currency          string               `json:"currency"`
	Status            orders.Status        `json:"status"`
	PaymentStatus     orders.PaymentStatus `json:"paymentStatus"`
	PaymentMethod     string               `json:"paymentMethod,omitempty"`
	MPesaReceipt      string               `json:"mpesaReceipt,omitempty"`
	CheckoutRequestID string               `json:"checkoutRequestId,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	History           []eventView          `json:"history"`
}

func viewOf(o orders.Order, history []orders.StatusEvent) orderView {
	v := orderView{
		ID:                o.ID,
		OrderNumber:       o.Number,
		Email:             o.Email,
		Phone:             o.Phone,
		FirstName:         o.FirstName,
		LastName:          o.LastName,
		ShippingAddress:   o.Shipping.Address,
		ShippingCity:      o.Shipping.City,
		ShippingCounty:    o.Shipping.County,
		Items:             make([]lineView, 0, len(o.Items)),
		Subtotal:          o.Subtotal,
		VAT:               o.Tax,
		Shipping:          o.ShippingFee,
		Total:             o.Total,
		Currency:          o.Currency,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		PaymentMethod:     o.PaymentMethod,
		MPesaReceipt:      o.MPesaReceipt,
		CheckoutRequestID: o.CheckoutRequestID,
		CreatedAt:         o.CreatedAt,
		History:           make([]eventView, 0, len(history)),
	}
	for _, li := range o.Items {
		v.Items = append(v.Items, lineView{
			ProductID: li.ProductID,
			VariantID: li.VariantID,
			Name:      li.Name,
			Image:     li.Image,
			Quantity:  li.Quantity,
			Price:     li.UnitPrice,
			Total:     li.LineTotal(),
		})
	}
	for _, e := range history {
		v.History = append(v.History, eventView{Code: e.Code, Description: e.Description, CreatedAt: e.CreatedAt})
	}
	return v
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Store.FindOrder(ctx, ref)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		logging.With(r.Context(), h.Log).Error("load order failed", zap.String("order_ref", ref), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load order")
		return
	}
	history, err := h.Store.History(ctx, o.ID)
	if err != nil {
		logging.With(r.Context(), h.Log).Error("load order history failed", zap.String("order_id", o.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": viewOf(o, history)})
}

type statusView struct {
	OrderID       string               `json:"orderId"`
	OrderNumber   string               `json:"orderNumber"`
	Status        orders.Status        `json:"status"`
	PaymentStatus orders.PaymentStatus `json:"paymentStatus"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func statusViewOf(s orders.OrderState) statusView {
	return statusView{
		OrderID:       s.OrderID,
		OrderNumber:   s.OrderNumber,
		Status:        s.Status,
		PaymentStatus: s.PaymentStatus,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (h *OrdersHandler) paymentStatus(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	log := logging.With(r.Context(), h.Log).With(zap.String("order_ref", ref))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) cache
	if h.Cache != nil {
		s, ok, err := h.Cache.Get(ctx, ref)
		if err != nil {
			log.Warn("status cache read failed", zap.Error(err))
		} else if ok {
			writeJSON(w, http.StatusOK, statusViewOf(s))
			return
		}
	}

	// 2) database
	o, err := h.Store.FindOrder(ctx, ref)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		log.Error("load order status failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load order status")
		return
	}
	s := orders.StateOf(o)
	if h.Cache != nil {
		if err := h.Cache.Set(ctx, s); err != nil {
			log.Warn("status cache write failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, statusViewOf(s))
}

func (h *OrdersHandler) quote(w http.ResponseWriter, r *http.Request) {
	subtotal, err := money.Parse(r.URL.Query().Get("subtotal"))
	if err != nil || subtotal < 0 {
		writeError(w, http.StatusBadRequest, "subtotal must be a non-negative amount")
		return
	}
	writeJSON(w, http.StatusOK, money.NewQuote(subtotal, strings.ToLower(strings.TrimSpace(r.URL.Query().Get("location")))))
}
