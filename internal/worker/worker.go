// Package worker runs the delivery side of reminders: an asynq server that
// hands due notifications to a Deliverer, and a cron job that keeps future
// occurrences armed.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/ghari/internal/notify"
)

// Ensurer keeps one future occurrence armed per reminder.
type Ensurer interface {
	EnsureFutureSchedules(ctx context.Context) int
}

// Options configures a Worker.
type Options struct {
	Concurrency int
	Queue       string
	// EnsureInterval is how often EnsureFutureSchedules runs. Zero disables
	// the job.
	EnsureInterval time.Duration
}

// Worker consumes reminder:deliver tasks.
type Worker struct {
	deliver notify.Deliverer
	ensurer Ensurer
	log     zerolog.Logger
	opts    Options
}

func New(d notify.Deliverer, ensurer Ensurer, logger zerolog.Logger, opts Options) *Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	return &Worker{
		deliver: d,
		ensurer: ensurer,
		log:     logger.With().Str("component", "worker").Logger(),
		opts:    opts,
	}
}

// Mux returns the task handler the server runs.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(notify.TypeDeliver, w.HandleDeliver)
	return mux
}

// HandleDeliver decodes a due notification and delivers it. Malformed
// payloads are not retried.
func (w *Worker) HandleDeliver(ctx context.Context, task *asynq.Task) error {
	inst, err := notify.DecodePayload(task.Payload())
	if err != nil {
		w.log.Error().Err(err).Msg("invalid reminder payload")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	w.log.Info().Str("occurrence", inst.ID).Str("title", inst.Title).Msg("delivering reminder")
	if err := w.deliver.Deliver(ctx, inst); err != nil {
		w.log.Error().Err(err).Str("occurrence", inst.ID).Msg("delivery failed")
		return err
	}
	return nil
}

// StartEnsureJob schedules EnsureFutureSchedules on the worker's interval
// and returns the running cron, or nil when the job is disabled.
func (w *Worker) StartEnsureJob(ctx context.Context) (*cron.Cron, error) {
	if w.ensurer == nil || w.opts.EnsureInterval <= 0 {
		return nil, nil
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", w.opts.EnsureInterval)
	_, err := c.AddFunc(spec, func() {
		n := w.ensurer.EnsureFutureSchedules(ctx)
		w.log.Debug().Int("armed", n).Msg("ensure job ran")
	})
	if err != nil {
		return nil, errors.Wrapf(err, "schedule ensure job %q", spec)
	}
	c.Start()
	return c, nil
}

// Run serves tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, opt asynq.RedisConnOpt) error {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: w.opts.Concurrency,
		Queues:      map[string]int{w.opts.Queue: 1},
		Logger:      asynqLogger{w.log},
	})

	if err := srv.Start(w.Mux()); err != nil {
		return errors.Wrap(err, "start asynq server")
	}

	job, err := w.StartEnsureJob(ctx)
	if err != nil {
		srv.Shutdown()
		return err
	}
	if w.ensurer != nil {
		w.ensurer.EnsureFutureSchedules(ctx)
	}

	w.log.Info().Str("queue", w.opts.Queue).Int("concurrency", w.opts.Concurrency).Msg("worker started")
	<-ctx.Done()

	if job != nil {
		<-job.Stop().Done()
	}
	srv.Shutdown()
	w.log.Info().Msg("worker stopped")
	return nil
}

// asynqLogger routes asynq's internal logging through zerolog.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
