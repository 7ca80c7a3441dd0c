// Package money carries KES amounts as integer cents and converts them to and
// from the decimal numbers that appear on the wire.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const Currency = "KES"

var (
	hundred = decimal.NewFromInt(100)

	ErrFractionalCents = errors.New("money: amount has more than two decimal places")
	ErrNegative        = errors.New("money: amount is negative")
)

// Cents is an amount in minor units.
type Cents int64

func FromDecimal(d decimal.Decimal) (Cents, error) {
	scaled := d.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s", ErrFractionalCents, d.String())
	}
	return Cents(scaled.IntPart()), nil
}

func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return FromDecimal(d)
}

func FromUnits(units int64) Cents { return Cents(units * 100) }

func (c Cents) Decimal() decimal.Decimal { return decimal.New(int64(c), -2) }

// WholeUnits rounds half away from zero to whole shillings, the smallest unit
// the STK push API accepts.
func (c Cents) WholeUnits() int64 { return c.Decimal().Round(0).IntPart() }

func (c Cents) String() string { return c.Decimal().String() }

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal().String()), nil
}

func (c *Cents) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Format renders an amount the way the storefront displays it: "KSh 11,600",
// "KSh 8,500.5".
func Format(c Cents) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	whole := int64(c) / 100
	frac := int64(c) % 100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "KSh " + sign + b.String()
	if frac != 0 {
		out += strings.TrimRight(fmt.Sprintf(".%02d", frac), "0")
	}
	return out
}
