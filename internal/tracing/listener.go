package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/signals/signal"
)

// ListenerInfo describes a listener for span attributes.
type ListenerInfo struct {
	Name     string
	ID       signal.ListenerID
	Priority int
}

// Scope nests listener spans under the dispatch in progress. Listeners take
// no context, so the scope carries it from Begin to the wrapped listeners.
// Like the registries it instruments, a Scope is single-goroutine.
type Scope struct {
	tracer trace.Tracer
	ctx    context.Context
}

// NewScope creates a scope. A nil tracer disables span creation.
func NewScope(tracer trace.Tracer) *Scope {
	return &Scope{tracer: tracer, ctx: context.Background()}
}

// Begin starts a dispatch span. Listener spans created before the returned
// end func is called become its children. Safe on a nil Scope.
func (s *Scope) Begin(ctx context.Context, signalName string, attrs ...attribute.KeyValue) (end func(err error)) {
	if s == nil || s.tracer == nil {
		return func(error) {}
	}

	prev := s.ctx
	ctx, span := s.tracer.Start(ctx, SpanDispatch, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String(AttrSignalName, signalName))
	span.SetAttributes(attrs...)
	s.ctx = ctx

	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		s.ctx = prev
	}
}

// Wrap instruments fn with one span per call. A panic is recorded on the
// span and then re-raised, so dispatch semantics are unchanged.
//
// info is read on every call, so the caller can fill in the ID once Add has
// returned it.
func Wrap[T any](s *Scope, info *ListenerInfo, fn signal.Func[T]) signal.Func[T] {
	if s == nil || s.tracer == nil {
		return fn
	}
	return func(v T) {
		_, span := s.tracer.Start(s.ctx, SpanListener, trace.WithSpanKind(trace.SpanKindInternal))
		span.SetAttributes(
			attribute.String(AttrListenerName, info.Name),
			attribute.Int64(AttrListenerID, int64(info.ID)), // #nosec G115 -- IDs stay far below MaxInt64 in practice
			attribute.Int(AttrListenerPriority, info.Priority),
		)

		defer func() {
			if p := recover(); p != nil {
				err := fmt.Errorf("listener panic: %v", p)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.End()
				panic(p)
			}
			span.SetStatus(codes.Ok, "")
			span.End()
		}()

		fn(v)
	}
}
