package redisx

import "time"

const (
	// Bearer token session: session:{token} -> username
	KeySession = "session:%s"

	// Cached GET /api/products body
	KeyProductList = "cache:products"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLSession     = 24 * time.Hour
	TTLProductList = 30 * time.Second
	TTLDedup       = 48 * time.Hour
)
