package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/ghari/internal/display"
	"github.com/smokyabdulrahman/ghari/internal/qa"
	"github.com/smokyabdulrahman/ghari/internal/ticker"
)

func (a *app) newQACmd() *cobra.Command {
	var (
		delay time.Duration
		count int
	)
	cmd := &cobra.Command{
		Use:    "qa",
		Short:  "Fire test reminders in this terminal (debug mode only)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.DebugMode {
				return fmt.Errorf("qa is only available in debug mode (--debug or debug_mode=true)")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runQA(ctx, cmd, delay, count)
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", qa.DefaultDelay, "Delay before each test reminder fires")
	cmd.Flags().IntVar(&count, "count", 1, "Number of test reminders, spaced by --delay")
	return cmd
}

// runQA schedules count test reminders and shows a countdown until the
// last one has fired. Interrupting cancels whatever is still pending.
func (a *app) runQA(ctx context.Context, cmd *cobra.Command, delay time.Duration, count int) error {
	out := cmd.OutOrStdout()
	n := a.openNotifier(out)
	svc := qa.New(n, a.log, qa.Options{Channel: a.cfg.Channel + "-test", Now: a.now})

	var last *qa.Item
	for i := 1; i <= count; i++ {
		item := svc.Schedule(ctx, time.Duration(i)*delay)
		if item == nil {
			return fmt.Errorf("could not schedule test reminder %d", i)
		}
		last = item
		fmt.Fprintf(out, "Scheduled %s %s at %s\n", qa.Name, shortID(item.ID), item.TriggerAt.Format("15:04:05"))
	}
	if last == nil {
		return nil
	}
	if !a.consoleDelivery() {
		fmt.Fprintln(out, "Queued for the worker.")
		return nil
	}

	done := make(chan struct{})
	t := ticker.Start(ctx, time.Second, func(time.Time) {
		if svc.HasTriggered(last.ID) {
			select {
			case <-done:
			default:
				close(done)
			}
			return
		}
		fmt.Fprintf(out, "\r\033[K%s", display.Dim(fmt.Sprintf("next test reminder fires in %ds", svc.Countdown(last.ID))))
	})

	select {
	case <-done:
		// Let the final delivery print before tearing down the notifier.
		time.Sleep(200 * time.Millisecond)
	case <-ctx.Done():
		fmt.Fprintf(out, "\nCancelled %d pending test reminders\n", svc.CancelAll(context.Background()))
	}
	t.Stop()
	return nil
}
