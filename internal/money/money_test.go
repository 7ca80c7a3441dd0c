package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCents_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    Cents
		wantErr error
	}{
		{name: "integer", input: `11600`, want: 1160000},
		{name: "two decimals", input: `8500.55`, want: 850055},
		{name: "one decimal", input: `0.5`, want: 50},
		{name: "quoted", input: `"1600"`, want: 160000},
		{name: "fractional cents", input: `1.005`, wantErr: ErrFractionalCents},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var c Cents
			err := json.Unmarshal([]byte(tc.input), &c)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, c)
		})
	}
}

func TestCents_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Cents `json:"total"`
	}{Total: 1160000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":11600}`, string(b))
}

func TestCents_WholeUnits(t *testing.T) {
	assert.Equal(t, int64(11600), Cents(1160000).WholeUnits())
	assert.Equal(t, int64(101), Cents(10050).WholeUnits())
	assert.Equal(t, int64(100), Cents(10049).WholeUnits())
	assert.Equal(t, int64(0), Cents(49).WholeUnits())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "KSh 11,600", Format(1160000))
	assert.Equal(t, "KSh 8,500.5", Format(850050))
	assert.Equal(t, "KSh 999", Format(99900))
	assert.Equal(t, "KSh 1,234,567.89", Format(123456789))
	assert.Equal(t, "KSh 0", Format(0))
}

func TestNewQuote(t *testing.T) {
	testCases := []struct {
		name     string
		subtotal Cents
		location string
		want     Quote
	}{
		{
			name:     "free shipping over threshold",
			subtotal: FromUnits(10000),
			location: "other",
			want:     Quote{Subtotal: FromUnits(10000), VAT: FromUnits(1600), Shipping: 0, Total: FromUnits(11600), Currency: Currency},
		},
		{
			name:     "nairobi below threshold",
			subtotal: FromUnits(1000),
			location: LocationNairobi,
			want:     Quote{Subtotal: FromUnits(1000), VAT: FromUnits(160), Shipping: FromUnits(200), Total: FromUnits(1360), Currency: Currency},
		},
		{
			name:     "upcountry below threshold",
			subtotal: FromUnits(4999),
			location: "mombasa",
			want:     Quote{Subtotal: FromUnits(4999), VAT: 79984, Shipping: FromUnits(400), Total: FromUnits(4999) + 79984 + FromUnits(400), Currency: Currency},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewQuote(tc.subtotal, tc.location))
		})
	}
}
