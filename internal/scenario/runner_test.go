package scenario

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/signals/internal/tracing"
	"github.com/zjrosen/signals/signal"
)

func mustLoad(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	return sc
}

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(doc))
	require.NoError(t, err)
	return sc
}

func TestRun_PriorityOrdering(t *testing.T) {
	report, err := Run(context.Background(), mustLoad(t, "priority.yaml"), Options{})
	require.NoError(t, err)
	require.True(t, report.OK(), Render(report, RenderOptions{Styles: NewStyles(false)}))
	require.NotEmpty(t, report.RunID)

	// IDs are issued 1..5 in add order.
	var issued []signal.ListenerID
	for _, s := range report.Steps {
		if s.Op == "add" {
			issued = append(issued, s.IDs...)
		}
	}
	require.Equal(t, []signal.ListenerID{1, 2, 3, 4, 5}, issued)
	require.Equal(t, 5, report.Steps[6].Listeners)
}

func TestRun_MutationDuringDispatch(t *testing.T) {
	report, err := Run(context.Background(), mustLoad(t, "mutation.yaml"), Options{RunID: "fixed"})
	require.NoError(t, err)
	require.True(t, report.OK(), Render(report, RenderOptions{Styles: NewStyles(false)}))
	require.Equal(t, "fixed", report.RunID)

	first := report.Steps[2]
	require.Equal(t, []string{"janitor", "victim"}, first.Names())
	require.Equal(t, 2, first.Listeners, "janitor + latecomer remain")
}

func TestRun_AddRemoveDispatchScenario(t *testing.T) {
	sc := mustParse(t, `
listeners: [{name: cb1}, {name: cb2}]
steps:
  - add: cb1
  - add: cb2
  - remove: cb1
  - dispatch: 42
    expect: [cb2]
`)
	report, err := Run(context.Background(), sc, Options{})
	require.NoError(t, err)
	require.True(t, report.OK())

	require.Equal(t, []signal.ListenerID{1}, report.Steps[0].IDs)
	require.Equal(t, []signal.ListenerID{2}, report.Steps[1].IDs)
	require.Equal(t, []signal.ListenerID{1}, report.Steps[2].IDs)
	require.Equal(t, []Call{{Listener: "cb2", ID: 2, Value: 42}}, report.Steps[3].Calls)
}

func TestRun_RemoveAllThenDispatch(t *testing.T) {
	sc := mustParse(t, `
listeners: [{name: a}, {name: b}]
steps:
  - add: a
  - add: b
  - remove_all: true
  - remove_all: true
  - dispatch: 0
    expect: []
  - add: a
`)
	report, err := Run(context.Background(), sc, Options{})
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Empty(t, report.Steps[4].Calls)
	require.Equal(t, []signal.ListenerID{3}, report.Steps[5].IDs, "IDs continue after remove_all")
}

func TestRun_ExpectationMismatch(t *testing.T) {
	sc := mustParse(t, `
kind: priority
listeners: [{name: low}, {name: high, priority: 100}]
steps:
  - add: low
  - add: high
  - dispatch: 1
    expect: [low, high]
`)
	report, err := Run(context.Background(), sc, Options{})
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Equal(t, 1, report.Failed)

	step := report.Steps[2]
	require.True(t, step.Failed)
	require.Equal(t, []string{"high", "low"}, step.Names())
	require.Regexp(t, `(?m)^[+-] (low|high)$`, step.Diff)
}

func TestRun_ListenerPanic(t *testing.T) {
	sc := mustParse(t, `
kind: priority
listeners:
  - name: first
    priority: 10
  - name: crasher
    priority: 5
    on_call: [{panic: boom}]
  - name: never
steps:
  - add: first
  - add: crasher
  - add: never
  - dispatch: 1
    expect: [first, crasher]
    expect_panic: true
  - dispatch: 2
`)
	report, err := Run(context.Background(), sc, Options{})
	require.NoError(t, err)

	expected := report.Steps[3]
	require.False(t, expected.Failed)
	require.ErrorIs(t, expected.Panic, signal.ErrListenerPanic)
	require.Contains(t, expected.Panic.Error(), "boom")

	unexpected := report.Steps[4]
	require.True(t, unexpected.Failed)
	require.Equal(t, 1, report.Failed)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, mustLoad(t, "priority.yaml"), Options{})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, report.Steps)
}

func TestRun_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	scope := tracing.NewScope(provider.Tracer("test"))
	report, err := Run(context.Background(), mustLoad(t, "priority.yaml"), Options{Scope: scope})
	require.NoError(t, err)
	require.True(t, report.OK())

	var dispatches, listeners int
	for _, span := range exporter.GetSpans() {
		switch span.Name {
		case tracing.SpanDispatch:
			dispatches++
		case tracing.SpanListener:
			listeners++
		}
	}
	assert.Equal(t, 2, dispatches)
	assert.Equal(t, 4+5, listeners)
}

func TestRender(t *testing.T) {
	sc := mustParse(t, `
name: demo
listeners: [{name: a}, {name: b}]
steps:
  - add: a
  - add: b
  - dispatch: 7
    expect: [b]
`)
	report, err := Run(context.Background(), sc, Options{RunID: "r1"})
	require.NoError(t, err)

	out := Render(report, RenderOptions{Styles: NewStyles(false), ShowIDs: true})
	lines := strings.Split(strings.TrimSpace(out), "\n")

	require.Equal(t, "demo (registry, run r1)", lines[0])
	require.Contains(t, lines[1], "add a")
	require.Contains(t, lines[1], "#1")
	require.Contains(t, lines[3], "dispatch 7")
	require.Contains(t, lines[3], "a#1 b#2")
	require.Contains(t, lines[3], "FAIL")
	require.Contains(t, out, "+ a")
	require.Equal(t, "FAIL: 1 of 3 steps failed", lines[len(lines)-1])
}

func TestLineDiff(t *testing.T) {
	require.Equal(t, "  a\n- b\n  c\n", lineDiff([]string{"a", "b", "c"}, []string{"a", "c"}))
	require.Equal(t, "+ x\n", lineDiff(nil, []string{"x"}))
	require.Empty(t, lineDiff(nil, nil))
}
