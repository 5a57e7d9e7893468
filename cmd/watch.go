package cmd

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/signals/internal/log"
	"github.com/zjrosen/signals/internal/relay"
	"github.com/zjrosen/signals/internal/tracing"
	"github.com/zjrosen/signals/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <scenario.yaml>",
	Short: "Re-run a scenario every time the file changes",
	Long: `Run a scenario, then watch the file and run it again after each save.

Failed scenarios are reported but do not stop the watch. Press Ctrl+C to exit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := ossignal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withTracing(ctx, func(scope *tracing.Scope) error {
			return watchScenario(ctx, cmd, args[0], scope)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchScenario(ctx context.Context, cmd *cobra.Command, path string, scope *tracing.Scope) error {
	w, err := watcher.New(watcher.Config{Path: path, DebounceDur: cfg.Watch.Debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	// The watcher dispatches on its own goroutine; the relay hands changes
	// to this one.
	changes := relay.New[watcher.Change]()
	defer changes.Close()
	if _, err := w.OnChange(changes.Listener()); err != nil {
		return err
	}
	sub := changes.Subscribe(ctx)

	if err := w.Start(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rerun := func() {
		if _, err := runScenario(ctx, out, path, scope); err != nil {
			log.ErrorErr(log.CatCLI, "Scenario run failed", err, "path", path)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}

	rerun()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub:
			if !ok {
				return nil
			}
			log.Info(log.CatWatch, "Re-running scenario", "path", event.Payload.Path, "seq", event.Seq)
			_, _ = fmt.Fprintln(out)
			rerun()
		}
	}
}
