package orders

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

var validPaymentNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {PaymentPaid: true, PaymentFailed: true},
	PaymentPaid:    {},
	PaymentFailed:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	return validPaymentNext[from][to]
}

// Terminal reports whether no further payment outcome may be recorded.
func (p PaymentStatus) Terminal() bool {
	return p == PaymentPaid || p == PaymentFailed
}

// TransitionError names the rejected edge; it unwraps to ErrInvalidTransition.
type TransitionError struct {
	Kind     string
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s not allowed", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// SetStatus moves the order along the status table. Setting the current
// status again is a no-op and reports changed=false.
func (o *Order) SetStatus(to Status) (changed bool, err error) {
	if o.Status == to {
		return false, nil
	}
	if !CanTransition(o.Status, to) {
		return false, &TransitionError{Kind: "status", From: string(o.Status), To: string(to)}
	}
	o.Status = to
	return true, nil
}

func (o *Order) SetPaymentStatus(to PaymentStatus) (changed bool, err error) {
	if o.PaymentStatus == to {
		return false, nil
	}
	if !CanTransitionPayment(o.PaymentStatus, to) {
		return false, &TransitionError{Kind: "payment status", From: string(o.PaymentStatus), To: string(to)}
	}
	o.PaymentStatus = to
	return true, nil
}
