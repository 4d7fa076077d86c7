package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

// MemoryLog keeps sync history in process memory, per business code.
// It backs the history service in development and tests; entries are lost on restart.
type MemoryLog struct {
	mu         sync.RWMutex
	entries    map[string][]domain.SyncSnapshot // business code -> snapshots
	seq        uint64
	lastAppend time.Time
}

// NewMemoryLog creates a new memory log
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		entries: make(map[string][]domain.SyncSnapshot),
	}
}

// Append stores a copy of the snapshot under a new increasing key.
func (m *MemoryLog) Append(_ context.Context, businessCode string, s domain.SyncSnapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	s.Key = fmt.Sprintf("%020d", m.seq)
	s.Products = append([]domain.TargetProduct(nil), s.Products...)
	m.entries[businessCode] = append(m.entries[businessCode], s)
	m.lastAppend = time.Now()
	return s.Key, nil
}

// ReadAll returns the snapshots of a business in append order.
func (m *MemoryLog) ReadAll(_ context.Context, businessCode string) ([]domain.SyncSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.entries[businessCode]
	out := make([]domain.SyncSnapshot, len(src))
	for i, s := range src {
		s.Products = append([]domain.TargetProduct(nil), s.Products...)
		out[i] = s
	}
	return out, nil
}

// Count returns the number of snapshots across all businesses.
func (m *MemoryLog) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.entries {
		n += len(e)
	}
	return n
}

// GetLastAppend returns the time of the most recent append.
func (m *MemoryLog) GetLastAppend() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastAppend
}

func (m *MemoryLog) Ping(context.Context) error { return nil }

func (m *MemoryLog) Backend() string { return "memory" }
