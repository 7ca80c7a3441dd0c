package payment

import (
	"context"
	"testing"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/checkout"
	"github.com/epitome-ke/storefront-checkout/internal/inventory"
	"github.com/epitome-ke/storefront-checkout/internal/money"
	"github.com/epitome-ke/storefront-checkout/internal/mpesa"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/orders/ordertest"
	"github.com/epitome-ke/storefront-checkout/internal/payment/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"
)

// TestOrderPaidEndToEnd places a KSh 11,600 order (10,000 + 1,600 VAT + free
// shipping), prompts the payer and settles it from the provider's callback.
func TestOrderPaidEndToEnd(t *testing.T) {
	ctx := context.Background()
	dress := inventory.Unit{ProductID: "WD001", VariantID: "WD001-M-BLK"}
	bag := inventory.Unit{ProductID: "WB001"}

	store := ordertest.New()
	store.AddItem(orders.CatalogItem{Unit: dress, Name: "Elegant Evening Dress", Price: money.FromUnits(8500), Active: true, Stock: 5})
	store.AddItem(orders.CatalogItem{Unit: bag, Name: "Designer Handbag Collection", Price: money.FromUnits(1500), Active: true, Stock: 2})

	pub, cache := &recordingPublisher{}, &recordingCache{}
	log := zaptest.NewLogger(t)

	svc := &checkout.Service{
		Store: store,
		Numbers: orders.NumberGenerator{
			Now:    func() time.Time { return time.UnixMilli(1_700_000_123_456) },
			Suffix: func() string { return "ABCD" },
		},
		Publisher: pub,
		Cache:     cache,
		Log:       log,
		Producer:  "checkout-api",
	}
	placed, err := svc.CreateOrder(ctx, checkout.Cart{
		Email:           "wanjiru@example.com",
		FirstName:       "Wanjiru",
		LastName:        "Kamau",
		Phone:           "0712345678",
		ShippingAddress: "12 Ngong Road",
		ShippingCity:    "Nairobi",
		ShippingCounty:  "Nairobi",
		Items: []checkout.CartItem{
			{ProductID: dress.ProductID, VariantID: dress.VariantID, Quantity: 1, Price: money.FromUnits(8500), Name: "Elegant Evening Dress"},
			{ProductID: bag.ProductID, Quantity: 1, Price: money.FromUnits(1500), Name: "Designer Handbag Collection"},
		},
		Subtotal: money.FromUnits(10000),
		VAT:      money.FromUnits(1600),
		Shipping: 0,
		Total:    money.FromUnits(11600),
	})
	require.NoError(t, err)
	require.Equal(t, orderNumber, placed.Number)
	assert.Equal(t, money.FromUnits(11600), placed.Total)

	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	gw.EXPECT().STKPush(gomock.Any(), mpesa.STKPushRequest{
		Phone:            "254712345678",
		Amount:           11600,
		AccountReference: placed.Number,
		Description:      "Payment for order " + placed.Number,
	}).Return(mpesa.STKPushResponse{CheckoutRequestID: checkoutID, ResponseCode: "0"}, nil)

	in := &Initiator{Store: store, Gateway: gw, Publisher: pub, Cache: cache, Log: log, Producer: "checkout-api"}
	_, err = in.RequestPayment(ctx, placed.ID, placed.Phone)
	require.NoError(t, err)

	r := &Reconciler{Store: store, Gateway: gw, Publisher: pub, Cache: cache, Dedup: newDeduper(), Log: log, Producer: "checkout-api"}
	res := r.HandleCallback(ctx, callbackBody(checkoutID, 0, "The service request is processed successfully.", paidMeta(placed.Number, "11600.00")))
	require.Equal(t, Ack, res.Outcome)
	require.True(t, res.Applied)

	got, err := store.FindOrder(ctx, placed.Number)
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, orders.StatusProcessing, got.Status)
	assert.Equal(t, money.FromUnits(11600), got.PaidAmount)
	assert.Equal(t, "NLJ7RT61SV", got.MPesaReceipt)

	history, err := store.History(ctx, got.ID)
	require.NoError(t, err)
	codes := make([]orders.EventCode, 0, len(history))
	for _, e := range history {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []orders.EventCode{orders.EventOrderPlaced, orders.EventPaymentRequested, orders.EventPaymentConfirmed}, codes)
	assert.Equal(t, "Payment of KSh 11,600 confirmed via M-Pesa. Receipt: NLJ7RT61SV", history[2].Description)

	assert.Equal(t, []string{orders.TopicOrderPlaced, orders.TopicPaymentRequested, orders.TopicPaymentConfirmed}, pub.Topics())
	left, _ := store.Ledger().Available(ctx, bag)
	assert.Equal(t, 1, left)
}
