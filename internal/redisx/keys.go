package redisx

import "time"

const (
	// Cache status order: order_status:{order_id|order_number} -> status snapshot JSON
	KeyOrderStatus = "order_status:%s"

	// Dedup callback processing: dedup:{service}:{checkout_request_id}:{result_code}
	KeyDedup = "dedup:%s:%s:%d"

	// Provider bearer token: mpesa:token:{short_code}
	KeyMPesaToken = "mpesa:token:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
