package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/signals/internal/log"
	"github.com/zjrosen/signals/internal/scenario"
	"github.com/zjrosen/signals/internal/tracing"
)

// ErrScenarioFailed is returned when a scenario has failed steps.
var ErrScenarioFailed = errors.New("scenario failed")

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run a scenario once and report the dispatch order",
	Long: `Run a scenario once and report which listeners each dispatch invoked.

Exits non-zero when any dispatch does not match its expect list or panics
without expect_panic.

Examples:
  signals run examples/priority.yaml
  signals run --show-ids --no-color examples/priority.yaml
  signals run --trace --trace-exporter stdout examples/priority.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracing(cmd.Context(), func(scope *tracing.Scope) error {
			report, err := runScenario(cmd.Context(), cmd.OutOrStdout(), args[0], scope)
			if err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("%w: %d of %d steps failed", ErrScenarioFailed, report.Failed, len(report.Steps))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runScenario loads, runs and renders a scenario.
func runScenario(ctx context.Context, out io.Writer, path string, scope *tracing.Scope) (*scenario.Report, error) {
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}

	report, err := scenario.Run(ctx, sc, scenario.Options{Scope: scope})
	if err != nil {
		return nil, err
	}

	_, err = io.WriteString(out, scenario.Render(report, scenario.RenderOptions{
		Styles:  scenario.NewStyles(cfg.Output.Color),
		ShowIDs: cfg.Output.ShowIDs,
	}))
	return report, err
}

// withTracing builds the trace provider from config, runs fn and flushes.
// fn receives a nil scope when tracing is disabled.
func withTracing(ctx context.Context, fn func(scope *tracing.Scope) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.ErrorErr(log.CatTrace, "Trace shutdown failed", err)
		}
	}()

	var scope *tracing.Scope
	if provider.Enabled() {
		scope = tracing.NewScope(provider.Tracer())
	}
	return fn(scope)
}
