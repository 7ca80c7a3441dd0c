package mpesa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/epitome-ke/storefront-checkout/internal/money"
	"github.com/shopspring/decimal"
)

// ResultSuccess is the only result code that means the payer paid.
const ResultSuccess = 0

var ErrMalformedCallback = errors.New("malformed stk callback")

// Callback is the flattened result of one STK push, as posted to the
// callback URL.
type Callback struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string

	// metadata, present on success and sometimes on failure
	Amount           money.Cents
	HasAmount        bool
	Receipt          string
	Phone            string
	TransactionDate  string
	AccountReference string
}

func (c Callback) Succeeded() bool { return c.ResultCode == ResultSuccess }

type callbackEnvelope struct {
	Body *struct {
		STKCallback *struct {
			MerchantRequestID string          `json:"MerchantRequestID"`
			CheckoutRequestID string          `json:"CheckoutRequestID"`
			ResultCode        json.RawMessage `json:"ResultCode"`
			ResultDesc        string          `json:"ResultDesc"`
			CallbackMetadata  *struct {
				Item []metadataItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type metadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// text renders a metadata value without JSON quoting. Numbers keep their
// literal digits, so 254712345678 does not become 2.54712345678e+11.
func (m metadataItem) text() string {
	v := bytes.TrimSpace(m.Value)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return string(v)
}

// ParseCallback decodes the webhook body. Metadata items are looked up by
// name; their order is not significant.
func ParseCallback(raw []byte) (Callback, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Callback{}, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	if env.Body == nil || env.Body.STKCallback == nil {
		return Callback{}, fmt.Errorf("%w: missing Body.stkCallback", ErrMalformedCallback)
	}
	sc := env.Body.STKCallback

	code, err := strconv.Atoi(metadataItem{Value: sc.ResultCode}.text())
	if err != nil {
		return Callback{}, fmt.Errorf("%w: bad ResultCode %s", ErrMalformedCallback, sc.ResultCode)
	}

	cb := Callback{
		MerchantRequestID: sc.MerchantRequestID,
		CheckoutRequestID: sc.CheckoutRequestID,
		ResultCode:        code,
		ResultDesc:        sc.ResultDesc,
	}
	if sc.CallbackMetadata == nil {
		return cb, nil
	}

	for _, it := range sc.CallbackMetadata.Item {
		switch it.Name {
		case "Amount":
			d, err := decimal.NewFromString(it.text())
			if err != nil {
				return Callback{}, fmt.Errorf("%w: bad Amount %s", ErrMalformedCallback, it.Value)
			}
			if cb.Amount, err = money.FromDecimal(d); err != nil {
				return Callback{}, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
			}
			cb.HasAmount = true
		case "MpesaReceiptNumber":
			cb.Receipt = it.text()
		case "PhoneNumber":
			cb.Phone = it.text()
		case "TransactionDate":
			cb.TransactionDate = it.text()
		case "AccountReference":
			cb.AccountReference = it.text()
		}
	}
	return cb, nil
}
