package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

// MemoryNotifier records armed notifications without delivering them.
type MemoryNotifier struct {
	mu      sync.Mutex
	denied  bool
	pending map[string]reminder.Instance
}

// NewMemoryNotifier returns a notifier with permission granted.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{pending: make(map[string]reminder.Instance)}
}

// SetPermission grants or revokes notification permission.
func (m *MemoryNotifier) SetPermission(granted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied = !granted
}

func (m *MemoryNotifier) RequestPermission(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.denied, nil
}

func (m *MemoryNotifier) Schedule(_ context.Context, inst reminder.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied {
		return reminder.ErrPermissionDenied
	}
	m.pending[inst.ID] = inst
	return nil
}

func (m *MemoryNotifier) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)
	return nil
}

// Pending returns armed notifications ordered by trigger time.
func (m *MemoryNotifier) Pending() []reminder.Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]reminder.Instance, 0, len(m.pending))
	for _, inst := range m.pending {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	return out
}
