package shared

import (
	"context"
	"time"
)

// IdempotencyStore records keys that are currently claimed so a second
// caller with the same key can be turned away.
type IdempotencyStore interface {
	// Claim marks key as taken for ttl.
	// Returns true if the key was newly claimed, false if someone already holds it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsClaimed reports whether key is currently held
	IsClaimed(ctx context.Context, key string) (bool, error)

	// Release frees key so it can be claimed again
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL bounds how long a claim survives if its holder never releases it
	TTL time.Duration
	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     2 * time.Minute,
		Enabled: true,
	}
}
