package checkout

import (
	"fmt"
	"strings"

	"github.com/epitome-ke/storefront-checkout/internal/orders"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned before any side effect happens.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "invalid order data: " + strings.Join(parts, "; ")
}

type ProblemReason string

const (
	ReasonUnavailable  ProblemReason = "UNAVAILABLE"
	ReasonOutOfStock   ProblemReason = "OUT_OF_STOCK"
	ReasonPriceChanged ProblemReason = "PRICE_CHANGED"
)

type Problem struct {
	ProductID string        `json:"productId"`
	VariantID string        `json:"variantId,omitempty"`
	Name      string        `json:"name"`
	Reason    ProblemReason `json:"reason"`
	Requested int           `json:"requested,omitempty"`
	Available int           `json:"available,omitempty"`
}

func (p Problem) String() string {
	switch p.Reason {
	case ReasonOutOfStock:
		return fmt.Sprintf("Insufficient stock for %s", p.Name)
	case ReasonPriceChanged:
		return fmt.Sprintf("Price for %s has changed", p.Name)
	default:
		return fmt.Sprintf("Product %s is no longer available", p.Name)
	}
}

// AvailabilityError lists every cart line that cannot be fulfilled.
type AvailabilityError struct {
	Problems []Problem
}

func (e *AvailabilityError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.String())
	}
	return strings.Join(msgs, "; ")
}

// PartialReservationError means a reservation failed and the compensating
// release of earlier lines failed too.
type PartialReservationError struct {
	Reserved   []orders.LineItem
	Cause      error
	ReleaseErr error
}

func (e *PartialReservationError) Error() string {
	return fmt.Sprintf("reservation failed (%v) and %d reserved line(s) could not be released: %v",
		e.Cause, len(e.Reserved), e.ReleaseErr)
}

func (e *PartialReservationError) Unwrap() []error { return []error{e.Cause, e.ReleaseErr} }
