package mpesa

import (
	"testing"

	"github.com/epitome-ke/storefront-checkout/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paidCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "PhoneNumber", "Value": 254712345678},
          {"Name": "Amount", "Value": 11600.00},
          {"Name": "AccountReference", "Value": "EE123456ABCD"},
          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
          {"Name": "Balance"},
          {"Name": "TransactionDate", "Value": 20191219102115}
        ]
      }
    }
  }
}`

func TestParseCallback(t *testing.T) {
	cb, err := ParseCallback([]byte(paidCallback))
	require.NoError(t, err)

	assert.True(t, cb.Succeeded())
	assert.Equal(t, "ws_CO_191220191020363925", cb.CheckoutRequestID)
	assert.Equal(t, money.FromUnits(11600), cb.Amount)
	assert.True(t, cb.HasAmount)
	assert.Equal(t, "NLJ7RT61SV", cb.Receipt)
	assert.Equal(t, "254712345678", cb.Phone)
	assert.Equal(t, "20191219102115", cb.TransactionDate)
	assert.Equal(t, "EE123456ABCD", cb.AccountReference)
}

func TestParseCallback_Failure(t *testing.T) {
	cb, err := ParseCallback([]byte(`{"Body":{"stkCallback":{"MerchantRequestID":"m","CheckoutRequestID":"c","ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`))
	require.NoError(t, err)
	assert.False(t, cb.Succeeded())
	assert.Equal(t, 1032, cb.ResultCode)
	assert.Empty(t, cb.AccountReference)
	assert.False(t, cb.HasAmount)
}

func TestParseCallback_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<xml/>`},
		{name: "no body", body: `{"foo":1}`},
		{name: "no stkCallback", body: `{"Body":{}}`},
		{name: "bad result code", body: `{"Body":{"stkCallback":{"ResultCode":"abc"}}}`},
		{name: "bad amount", body: `{"Body":{"stkCallback":{"ResultCode":0,"CallbackMetadata":{"Item":[{"Name":"Amount","Value":"lots"}]}}}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCallback([]byte(tc.body))
			assert.ErrorIs(t, err, ErrMalformedCallback)
		})
	}
}
