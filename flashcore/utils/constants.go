package utils

import "time"

const (
	// Cache
	CacheExpiration = 5 * time.Minute

	// Claims
	DefaultClaimTTL      = 24 * time.Hour
	ClaimCleanupInterval = time.Minute

	// Optimistic state
	PendingEvictInterval = time.Minute
	PendingMaxAge        = 5 * time.Minute
)
