package notify

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

const defaultQueue = "default"

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type taskDeleter interface {
	DeleteTask(queue, id string) error
}

// AsynqNotifier arms each occurrence as a delayed asynq task whose ID is the
// occurrence ID, so one occurrence maps to at most one pending task.
type AsynqNotifier struct {
	client    enqueuer
	inspector taskDeleter
	queue     string
	log       zerolog.Logger
}

// NewAsynqNotifier builds a notifier backed by the Redis at opt.
func NewAsynqNotifier(opt asynq.RedisConnOpt, queue string, logger zerolog.Logger) *AsynqNotifier {
	return newAsynqNotifier(asynq.NewClient(opt), asynq.NewInspector(opt), queue, logger)
}

func newAsynqNotifier(c enqueuer, i taskDeleter, queue string, logger zerolog.Logger) *AsynqNotifier {
	if queue == "" {
		queue = defaultQueue
	}
	return &AsynqNotifier{
		client:    c,
		inspector: i,
		queue:     queue,
		log:       logger.With().Str("component", "asynq-notifier").Logger(),
	}
}

// RequestPermission always succeeds: delivery permission is handled by the
// device the worker pushes to.
func (n *AsynqNotifier) RequestPermission(_ context.Context) (bool, error) {
	return true, nil
}

func (n *AsynqNotifier) Schedule(ctx context.Context, inst reminder.Instance) error {
	payload, err := EncodePayload(inst)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeDeliver, payload)
	info, err := n.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(inst.TriggerAt),
		asynq.TaskID(inst.ID),
		asynq.Queue(n.queue),
		asynq.MaxRetry(3),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		n.log.Debug().Str("occurrence", inst.ID).Msg("occurrence already enqueued")
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "enqueue %s", inst.ID)
	}

	n.log.Debug().Str("occurrence", info.ID).Str("queue", info.Queue).
		Time("process_at", info.NextProcessAt).Msg("occurrence enqueued")
	return nil
}

// Cancel deletes the pending task. A task that no longer exists counts as
// cancelled.
func (n *AsynqNotifier) Cancel(_ context.Context, id string) error {
	err := n.inspector.DeleteTask(n.queue, id)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "delete task %s", id)
	}
	return nil
}

// Close releases the Redis connections held by the client and inspector.
func (n *AsynqNotifier) Close() error {
	var first error
	for _, c := range []any{n.client, n.inspector} {
		if closer, ok := c.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && first == nil {
				first = errors.Wrap(err, "close asynq connection")
			}
		}
	}
	return first
}
