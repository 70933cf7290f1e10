package store

import (
	"context"
	"slices"
	"sync"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

// MemoryStore keeps specs in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	specs map[string]reminder.Spec
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{specs: make(map[string]reminder.Spec)}
}

func (m *MemoryStore) List(_ context.Context) ([]reminder.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]reminder.Spec, 0, len(m.specs))
	for _, s := range m.specs {
		out = append(out, s)
	}
	sortSpecs(out)
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, spec reminder.Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	spec.Weekdays = slices.Clone(spec.Weekdays)
	m.specs[spec.ID] = spec
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.specs, id)
	return nil
}
