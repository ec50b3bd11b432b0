package redisx

import "time"

const (
	// Cached order document: order:{order_id} -> order JSON.
	// Dropped by every engine mutation that touches the order.
	KeyOrderCache = "order:%s"

	// Dedup for event processing: dedup:{service}:{event_id}.
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
