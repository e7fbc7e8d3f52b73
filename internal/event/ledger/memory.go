package ledger

import (
	"context"
	"sync"
)

// MemoryLedger is the in-process fallback used when Redis is not
// configured, and the implementation unit tests run against. Deduplication
// then only covers redeliveries within a single process lifetime.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemory() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]struct{})}
}

func (l *MemoryLedger) MarkProcessed(_ context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[eventID]; ok {
		return false, nil
	}
	l.seen[eventID] = struct{}{}
	return true, nil
}
