// Package notify arms reminder occurrences as device notifications and
// delivers them when they come due.
package notify

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

// TypeDeliver is the asynq task type carrying one due reminder.
const TypeDeliver = "reminder:deliver"

var (
	_ reminder.Notifier = (*AsynqNotifier)(nil)
	_ reminder.Notifier = (*MemoryNotifier)(nil)
	_ reminder.Notifier = (*ConsoleNotifier)(nil)
)

// Deliverer pushes a due notification to the user's device.
type Deliverer interface {
	Deliver(ctx context.Context, inst reminder.Instance) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, inst reminder.Instance) error

func (f DelivererFunc) Deliver(ctx context.Context, inst reminder.Instance) error {
	return f(ctx, inst)
}

// EncodePayload serializes an instance as a task payload.
func EncodePayload(inst reminder.Instance) ([]byte, error) {
	b, err := json.Marshal(inst)
	if err != nil {
		return nil, errors.Wrap(err, "encode notification payload")
	}
	return b, nil
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(b []byte) (reminder.Instance, error) {
	var inst reminder.Instance
	if err := json.Unmarshal(b, &inst); err != nil {
		return reminder.Instance{}, errors.Wrap(err, "decode notification payload")
	}
	if inst.ID == "" {
		return reminder.Instance{}, errors.New("notification payload has no id")
	}
	return inst, nil
}
