// Package cache provides the lookup-result cache: successful case-status
// payloads keyed by diary/year, kept for a fixed TTL.
package cache

import (
	"context"
	"time"

	"github.com/courtlens/casestatus-api/internal/models"
)

// Store is a TTL cache of raw lookup payloads. Implementations must be safe
// for concurrent use by in-flight lookups; last-writer-wins on duplicate
// concurrent successes is acceptable.
type Store interface {
	// Name identifies the backend ("memory", "sqlite") for health reporting.
	Name() string

	// Get returns the unexpired payload for key, or ok=false when the key is
	// absent or its entry has expired.
	Get(ctx context.Context, key models.LookupKey) (payload []byte, ok bool, err error)

	// Set stores a payload for key, replacing any previous entry. Entries
	// expire ttl after the write.
	Set(ctx context.Context, key models.LookupKey, payload []byte, ttl time.Duration) error

	// Close releases backend resources. Safe to call once at shutdown.
	Close() error
}

// Disabled is a Store that never hits and never stores, used when CACHE_TTL
// is zero.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Get(context.Context, models.LookupKey) ([]byte, bool, error) {
	return nil, false, nil
}

func (Disabled) Set(context.Context, models.LookupKey, []byte, time.Duration) error {
	return nil
}

func (Disabled) Close() error { return nil }
