package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/ghari/internal/worker"
)

func (a *app) newWorkerCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued reminders and keep future ones armed",
		Long: "Consume reminder deliveries from the Redis-backed queue and hand them to the\n" +
			"configured delivery target (log, mqtt or fcm). Every ensure_interval the worker\n" +
			"arms the next occurrence of reminders whose notification has passed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.consoleDelivery() {
				return fmt.Errorf("the worker needs queued delivery; set delivery to log, mqtt or fcm")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := a.openDeliverer(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			sched, err := a.openScheduler(cmd)
			if err != nil {
				return err
			}
			if _, err := a.followLocation(ctx, sched); err != nil {
				a.log.Warn().Err(err).Msg("could not refresh location; reminders keep their last location")
			}

			w := worker.New(d, sched, a.log, worker.Options{
				Concurrency:    concurrency,
				Queue:          taskQueue,
				EnsureInterval: a.cfg.EnsureEvery(),
			})
			return w.Run(ctx, a.redisOpt())
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of deliveries processed in parallel")
	return cmd
}
