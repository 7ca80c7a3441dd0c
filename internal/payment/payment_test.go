package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/epitome-ke/storefront-checkout/internal/money"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/orders/ordertest"
)

const (
	orderNumber = "EE123456ABCD"
	checkoutID  = "ws_CO_191220191020363925"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	envs   []orders.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, env orders.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

type recordingCache struct {
	mu  sync.Mutex
	set []orders.OrderState
}

func (c *recordingCache) Set(_ context.Context, s orders.OrderState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = append(c.set, s)
	return nil
}

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newDeduper() *memDeduper { return &memDeduper{seen: map[string]bool{}} }

func (d *memDeduper) Seen(_ context.Context, id string, code int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[fmt.Sprintf("%s:%d", id, code)], nil
}

func (d *memDeduper) Mark(_ context.Context, id string, code int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[fmt.Sprintf("%s:%d", id, code)] = true
	return nil
}

// pendingOrder is the 11,600 order waiting for its payment prompt.
func pendingOrder(s *ordertest.Store) orders.Order {
	return s.SeedOrder(orders.Order{
		Number:        orderNumber,
		Email:         "wanjiru@example.com",
		Phone:         "254712345678",
		FirstName:     "Wanjiru",
		LastName:      "Kamau",
		Subtotal:      money.FromUnits(10000),
		Tax:           money.FromUnits(1600),
		Total:         money.FromUnits(11600),
		Currency:      "KES",
		Status:        orders.StatusPending,
		PaymentStatus: orders.PaymentPending,
	})
}

// awaitingOrder is pendingOrder after the prompt went out.
func awaitingOrder(s *ordertest.Store) orders.Order {
	o := pendingOrder(s)
	o.Status = orders.StatusProcessing
	o.PaymentMethod = orders.PaymentMethodMPesa
	o.CheckoutRequestID = checkoutID
	return s.SeedOrder(o)
}

func callbackBody(checkoutRequestID string, code int, desc string, meta string) []byte {
	md := ""
	if meta != "" {
		md = fmt.Sprintf(`,"CallbackMetadata":{"Item":[%s]}`, meta)
	}
	return []byte(fmt.Sprintf(`{"Body":{"stkCallback":{"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":%q,"ResultCode":%d,"ResultDesc":%q%s}}}`,
		checkoutRequestID, code, desc, md))
}

func paidMeta(ref string, amount string) string {
	return fmt.Sprintf(`{"Name":"Amount","Value":%s},{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},{"Name":"PhoneNumber","Value":254712345678},{"Name":"AccountReference","Value":%q}`,
		amount, ref)
}
