package money

import "github.com/shopspring/decimal"

var (
	VATRate               = decimal.RequireFromString("0.16")
	FreeShippingThreshold = FromUnits(5000)

	shippingNairobi = FromUnits(200)
	shippingOther   = FromUnits(400)
)

const LocationNairobi = "nairobi"

// VAT is 16% of subtotal, rounded to the nearest cent.
func VAT(subtotal Cents) Cents {
	return Cents(subtotal.Decimal().Mul(VATRate).Mul(hundred).Round(0).IntPart())
}

func Shipping(subtotal Cents, location string) Cents {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	if location == LocationNairobi {
		return shippingNairobi
	}
	return shippingOther
}

type Quote struct {
	Subtotal Cents  `json:"subtotal"`
	VAT      Cents  `json:"vat"`
	Shipping Cents  `json:"shipping"`
	Total    Cents  `json:"total"`
	Currency string `json:"currency"`
}

func NewQuote(subtotal Cents, location string) Quote {
	q := Quote{
		Subtotal: subtotal,
		VAT:      VAT(subtotal),
		Shipping: Shipping(subtotal, location),
		Currency: Currency,
	}
	q.Total = q.Subtotal + q.VAT + q.Shipping
	return q
}
