package scenario

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/signals/internal/log"
	"github.com/zjrosen/signals/internal/tracing"
	"github.com/zjrosen/signals/signal"
)

// Call records one listener invocation.
type Call struct {
	Listener string
	ID       signal.ListenerID
	Value    int
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index     int
	Op        string
	Target    string              // listener name for add/remove
	Value     int                 // dispatched value
	IDs       []signal.ListenerID // issued by add, removed by remove
	Calls     []Call
	Panic     error  // set when a listener panicked during dispatch
	Diff      string // expected vs actual listener order, empty when matched
	Failed    bool
	Listeners int // registry size after the step
}

// Report is the outcome of a run.
type Report struct {
	RunID  string
	Name   string
	Kind   Kind
	Steps  []StepResult
	Failed int
}

// OK reports whether every expectation held.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Options configure a run.
type Options struct {
	// Scope, when set, records a span per dispatch and per listener call.
	Scope *tracing.Scope
	// RunID overrides the generated run identifier.
	RunID string
}

// target abstracts over the two registries.
type target interface {
	add(fn signal.Func[int], priority int) signal.ListenerID
	remove(id signal.ListenerID)
	removeAll()
	tryDispatch(v int) error
	len() int
}

type unordered struct{ r signal.Registry[int] }

func (u *unordered) add(fn signal.Func[int], _ int) signal.ListenerID { return u.r.Add(fn) }
func (u *unordered) remove(id signal.ListenerID)                     { u.r.Remove(id) }
func (u *unordered) removeAll()                                      { u.r.RemoveAll() }
func (u *unordered) tryDispatch(v int) error                         { return u.r.TryDispatch(v) }
func (u *unordered) len() int                                        { return u.r.Len() }

type prioritized struct{ r signal.PriorityRegistry[int] }

func (p *prioritized) add(fn signal.Func[int], priority int) signal.ListenerID {
	return p.r.AddWithPriority(fn, priority)
}
func (p *prioritized) remove(id signal.ListenerID) { p.r.Remove(id) }
func (p *prioritized) removeAll()                  { p.r.RemoveAll() }
func (p *prioritized) tryDispatch(v int) error     { return p.r.TryDispatch(v) }
func (p *prioritized) len() int                    { return p.r.Len() }

// runner holds per-run state. Listener closures reach back into it so that
// on_call actions mutate the registry mid-dispatch.
type runner struct {
	sc     *Scenario
	opts   Options
	target target
	specs  map[string]ListenerSpec
	live   map[string][]signal.ListenerID // name -> live registrations, oldest first
	calls  []Call                         // calls of the dispatch in progress
}

// Run executes sc and returns its report. Listener panics and failed
// expectations are recorded in the report, not returned as errors; the
// error result is reserved for a cancelled ctx.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Report, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}

	r := &runner{
		sc:    sc,
		opts:  opts,
		specs: make(map[string]ListenerSpec, len(sc.Listeners)),
		live:  make(map[string][]signal.ListenerID),
	}
	for _, l := range sc.Listeners {
		r.specs[l.Name] = l
	}
	if sc.Kind == KindPriority {
		r.target = &prioritized{}
	} else {
		r.target = &unordered{}
	}

	report := &Report{RunID: opts.RunID, Name: sc.Name, Kind: sc.Kind}
	log.Info(log.CatScenario, "Running scenario", "run_id", opts.RunID, "name", sc.Name, "kind", sc.Kind, "steps", len(sc.Steps))

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("scenario interrupted at step %d: %w", i, err)
		}
		res := r.step(ctx, i, step)
		if res.Failed {
			report.Failed++
		}
		report.Steps = append(report.Steps, res)
	}

	log.Info(log.CatScenario, "Scenario finished", "run_id", opts.RunID, "failed", report.Failed)
	return report, nil
}

func (r *runner) step(ctx context.Context, i int, s Step) StepResult {
	res := StepResult{Index: i, Op: s.Op()}

	switch res.Op {
	case "add":
		res.Target = s.Add
		res.IDs = []signal.ListenerID{r.add(s.Add)}
	case "remove":
		res.Target = s.Remove
		res.IDs = r.remove(s.Remove)
	case "remove_all":
		r.removeAll()
	case "dispatch":
		res.Value = *s.Dispatch
		r.dispatch(ctx, i, s, &res)
	}

	res.Listeners = r.target.len()
	return res
}

func (r *runner) dispatch(ctx context.Context, i int, s Step, res *StepResult) {
	r.calls = nil
	end := r.opts.Scope.Begin(ctx, r.sc.Name,
		attribute.String(tracing.AttrRunID, r.opts.RunID),
		attribute.Int(tracing.AttrStep, i),
		attribute.String(tracing.AttrSignalKind, string(r.sc.Kind)),
		attribute.Int(tracing.AttrListenerCount, r.target.len()),
	)
	err := r.target.tryDispatch(res.Value)
	end(err)

	res.Calls = r.calls
	r.calls = nil

	if err != nil {
		res.Panic = err
		log.Warn(log.CatSignal, "Dispatch aborted by listener panic", "step", i, "error", err)
	}
	if (err != nil) != s.ExpectPanic {
		res.Failed = true
	}

	if s.Expect != nil {
		if got := res.Names(); !slices.Equal(s.Expect, got) {
			res.Diff = lineDiff(s.Expect, got)
			res.Failed = true
		}
	}

	log.Debug(log.CatSignal, "Dispatched", "step", i, "value", res.Value, "calls", len(res.Calls), "failed", res.Failed)
}

func (r *runner) add(name string) signal.ListenerID {
	spec := r.specs[name]
	info := &tracing.ListenerInfo{Name: name, Priority: spec.Priority}

	var id signal.ListenerID
	fn := func(v int) {
		r.calls = append(r.calls, Call{Listener: name, ID: id, Value: v})
		for _, a := range spec.OnCall {
			r.apply(a)
		}
	}

	id = r.target.add(tracing.Wrap(r.opts.Scope, info, fn), spec.Priority)
	info.ID = id
	r.live[name] = append(r.live[name], id)

	log.Debug(log.CatSignal, "Added listener", "name", name, "id", id, "priority", spec.Priority)
	return id
}

// remove drops every live registration of name.
func (r *runner) remove(name string) []signal.ListenerID {
	ids := r.live[name]
	for _, id := range ids {
		r.target.remove(id)
	}
	delete(r.live, name)

	log.Debug(log.CatSignal, "Removed listener", "name", name, "ids", ids)
	return ids
}

func (r *runner) removeAll() {
	r.target.removeAll()
	clear(r.live)
	log.Debug(log.CatSignal, "Removed all listeners")
}

func (r *runner) apply(a Action) {
	switch a.op() {
	case "add":
		r.add(a.Add)
	case "remove":
		r.remove(a.Remove)
	case "remove_all":
		r.removeAll()
	case "panic":
		panic(a.Panic)
	}
}

// Names returns the listener names in call order.
func (res StepResult) Names() []string {
	names := make([]string, len(res.Calls))
	for i, c := range res.Calls {
		names[i] = c.Listener
	}
	return names
}

// Summary is a one-line description of the step's operation.
func (res StepResult) Summary() string {
	switch res.Op {
	case "add", "remove":
		return res.Op + " " + res.Target
	case "dispatch":
		return fmt.Sprintf("dispatch %d", res.Value)
	default:
		return strings.ReplaceAll(res.Op, "_", " ")
	}
}
