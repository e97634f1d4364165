// Package store provides ReceivingStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/receiving-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	records  map[engine.NaturalKey]engine.NormalizedRecord
	order    []engine.NaturalKey // insertion order, for stable snapshots
	taxonomy map[string]engine.OrderClass
}

func NewMemory() *Memory {
	return &Memory{
		records:  make(map[engine.NaturalKey]engine.NormalizedRecord),
		taxonomy: make(map[string]engine.OrderClass),
	}
}

func (m *Memory) ExistingKeys(_ context.Context) (map[engine.NaturalKey]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make(map[engine.NaturalKey]bool, len(m.records))
	for k := range m.records {
		keys[k] = true
	}
	return keys, nil
}

func (m *Memory) ExistingRecords(_ context.Context) ([]engine.NormalizedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.NormalizedRecord, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.records[k])
	}
	return out, nil
}

// ApplyOps applies the whole plan under one lock; last write wins per
// key, matching the relational stores' conflict semantics.
func (m *Memory) ApplyOps(_ context.Context, ops []engine.UpsertOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range ops {
		if _, exists := m.records[op.Key]; !exists {
			m.order = append(m.order, op.Key)
		}
		m.records[op.Key] = engine.RecordFromOp(op)
	}
	return nil
}

func (m *Memory) SyncTaxonomy(_ context.Context, table map[string]engine.OrderClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for code, class := range table {
		m.taxonomy[code] = class
	}
	return nil
}

// Len reports the number of persisted records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
