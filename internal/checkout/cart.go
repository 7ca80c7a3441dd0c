package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/epitome-ke/storefront-checkout/internal/money"
	"github.com/epitome-ke/storefront-checkout/internal/phone"
	"github.com/go-playground/validator/v10"
)

// Cart is the intake request as the checkout page submits it. Amounts are
// the client's computation and are checked, not trusted.
type Cart struct {
	Email           string      `json:"email" validate:"required,email"`
	FirstName       string      `json:"firstName" validate:"required,min=2"`
	LastName        string      `json:"lastName" validate:"required,min=2"`
	Phone           string      `json:"phone" validate:"required,msisdn"`
	ShippingAddress string      `json:"shippingAddress" validate:"required,min=5"`
	ShippingCity    string      `json:"shippingCity" validate:"required,min=2"`
	ShippingCounty  string      `json:"shippingCounty" validate:"required,min=2"`
	Items           []CartItem  `json:"items" validate:"required,min=1,dive"`
	Subtotal        money.Cents `json:"subtotal" validate:"gte=0"`
	VAT             money.Cents `json:"vat" validate:"gte=0"`
	Shipping        money.Cents `json:"shipping" validate:"gte=0"`
	Total           money.Cents `json:"total" validate:"gte=0"`
	SessionID       string      `json:"sessionId"`
	Notes           string      `json:"notes,omitempty" validate:"max=500"`
}

type CartItem struct {
	ProductID string      `json:"productId" validate:"required"`
	VariantID string      `json:"variantId,omitempty"`
	Quantity  int         `json:"quantity" validate:"min=1"`
	Price     money.Cents `json:"price" validate:"gte=0"`
	Name      string      `json:"name"`
	Image     string      `json:"image"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return phone.Valid(fl.Field().String())
	})
	return v
}

// Validate checks field rules and then the totals arithmetic. Arithmetic is
// only checked once every field passed.
func (c Cart) Validate() error {
	var fields []FieldError

	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   strings.TrimPrefix(fe.Namespace(), "Cart."),
				Message: fieldMessage(fe),
			})
		}
	case err != nil:
		return err
	}

	if len(fields) == 0 {
		var sum money.Cents
		for _, it := range c.Items {
			sum += it.Price * money.Cents(it.Quantity)
		}
		if sum != c.Subtotal {
			fields = append(fields, FieldError{
				Field:   "subtotal",
				Message: fmt.Sprintf("must equal the sum of line items (%s)", sum),
			})
		}
		if want := c.Subtotal + c.VAT + c.Shipping; want != c.Total {
			fields = append(fields, FieldError{
				Field:   "total",
				Message: fmt.Sprintf("must equal subtotal + vat + shipping (%s)", want),
			})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "msisdn":
		return "must be a valid Kenyan mobile number"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must not be negative"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
