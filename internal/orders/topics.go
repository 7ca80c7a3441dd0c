package orders

const (
	TopicOrderPlaced      = "order.placed"
	TopicPaymentRequested = "order.payment.requested"
	TopicPaymentConfirmed = "order.payment.confirmed"
	TopicPaymentFailed    = "order.payment.failed"
)

// Topics is every lifecycle topic, in the order events are produced.
var Topics = []string{
	TopicOrderPlaced,
	TopicPaymentRequested,
	TopicPaymentConfirmed,
	TopicPaymentFailed,
}

// Partition key = order id, so one order's events stay ordered within a
// topic. There is no order across topics; consumers compare UpdatedAt.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
