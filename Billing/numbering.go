package Billing

import (
	"fmt"
	"strings"
	"sync"
)

// Document prefixes.
const (
	PrefixInvoice  = "INV"
	PrefixContract = "CON"
)

const numberWidth = 6

// CounterStore atomically increments and returns the counter for a prefix.
// Two calls for the same prefix never observe the same value, however they
// are scheduled.
type CounterStore interface {
	Increment(prefix string) (int64, error)
}

// FormatDocumentNumber renders PREFIX-000042.
func FormatDocumentNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, numberWidth, n)
}

// NextDocumentNumber draws the next number for prefix from store.
func NextDocumentNumber(prefix string, store CounterStore) (string, error) {
	const op = "NextDocumentNumber"
	if strings.TrimSpace(prefix) == "" {
		return "", Validation(op, "prefix is required")
	}
	if store == nil {
		return "", FailedPrecondition(op, "no counter store configured")
	}
	n, err := store.Increment(prefix)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return FormatDocumentNumber(prefix, n), nil
}

// AssignNumber returns current unchanged when set, otherwise a fresh number.
// Numbers are immutable once assigned.
func AssignNumber(current, prefix string, store CounterStore) (string, error) {
	if current != "" {
		return current, nil
	}
	return NextDocumentNumber(prefix, store)
}

// MemoryCounter is an in-process CounterStore.
type MemoryCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: make(map[string]int64)}
}

func (m *MemoryCounter) Increment(prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]int64)
	}
	m.values[prefix]++
	return m.values[prefix], nil
}
