// Package payment drives an order through its M-Pesa payment: sending the
// STK prompt and applying the provider's answer exactly once.
package payment

import (
	"context"
	"errors"

	"github.com/epitome-ke/storefront-checkout/internal/mpesa"
)

//go:generate mockgen -source=gateway.go -package=mocks -destination=mocks/gateway.mock.go

type Gateway interface {
	STKPush(ctx context.Context, req mpesa.STKPushRequest) (mpesa.STKPushResponse, error)
	STKQuery(ctx context.Context, checkoutRequestID string) (mpesa.QueryResult, error)
}

var (
	ErrNotPayable       = errors.New("order is not awaiting payment")
	ErrInvalidPhone     = errors.New("invalid M-Pesa phone number")
	ErrNoPaymentRequest = errors.New("no payment request recorded for order")
)
