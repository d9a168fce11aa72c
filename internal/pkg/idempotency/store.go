// Package idempotency remembers which resource a client supplied
// Idempotency-Key produced, so retried requests replay instead of repeating.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrInProgress = errors.New("idempotency key is held by a request still in progress")

const pendingMarker = "\x00pending"

type Store interface {
	// Reserve claims key for ttl. It returns the resource id recorded by an
	// earlier completed request, "" when the caller now holds the key, or
	// ErrInProgress while another holder has not finished.
	Reserve(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Complete records resourceID under a key the caller reserved.
	Complete(ctx context.Context, key, resourceID string, ttl time.Duration) error
	// Release drops a reservation whose request failed.
	Release(ctx context.Context, key string) error
}

// Key namespaces a client key, e.g. Key("shift-assign", companyID, userID, k).
func Key(parts ...string) string {
	return "idem:" + strings.Join(parts, ":")
}
