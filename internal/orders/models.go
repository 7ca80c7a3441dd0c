package orders

import (
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/inventory"
	"github.com/epitome-ke/storefront-checkout/internal/money"
)

const PaymentMethodMPesa = "MPESA"

type Order struct {
	ID     string
	Number string

	Email     string
	Phone     string
	FirstName string
	LastName  string
	Shipping  ShippingAddress
	SessionID string

	Items []LineItem

	Subtotal    money.Cents
	Tax         money.Cents
	ShippingFee money.Cents
	Total       money.Cents
	Currency    string

	Status            Status
	PaymentStatus     PaymentStatus
	PaymentMethod     string
	CheckoutRequestID string
	MPesaReceipt      string
	PaidAmount        money.Cents
	Notes             string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ShippingAddress struct {
	FirstName string
	LastName  string
	Address   string
	City      string
	County    string
	Phone     string
}

// LineItem is a snapshot taken at intake. It is never rewritten afterwards.
type LineItem struct {
	ID        string
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice money.Cents
	Name      string
	Image     string
}

func (li LineItem) Unit() inventory.Unit {
	return inventory.Unit{ProductID: li.ProductID, VariantID: li.VariantID}
}

func (li LineItem) LineTotal() money.Cents {
	return li.UnitPrice * money.Cents(li.Quantity)
}

type EventCode string

const (
	EventOrderPlaced      EventCode = "ORDER_PLACED"
	EventPaymentRequested EventCode = "PAYMENT_REQUESTED"
	EventPaymentConfirmed EventCode = "PAYMENT_CONFIRMED"
	EventPaymentFailed    EventCode = "PAYMENT_FAILED"
)

// StatusEvent is one row of an order's append-only history.
type StatusEvent struct {
	ID          string
	OrderID     string
	Code        EventCode
	Description string
	CreatedAt   time.Time
}

// CatalogItem is the live catalog view of a stock unit at lookup time.
// Price is the variant price when the variant carries one.
type CatalogItem struct {
	Unit   inventory.Unit
	Name   string
	Price  money.Cents
	Image  string
	Active bool
	Stock  int
}
