// Package ledger tracks which event IDs have already been processed so the
// consumer's reaction stays idempotent under at-least-once redelivery.
package ledger

import "context"

// Ledger records processed event IDs. Implementations must be safe for
// concurrent use.
type Ledger interface {
	// MarkProcessed records the event ID and reports whether this is the
	// first time it was seen. Events without an ID cannot be deduplicated;
	// callers should treat them as first deliveries.
	MarkProcessed(ctx context.Context, eventID string) (first bool, err error)
}
