package tracing

// Span names.
const (
	SpanDispatch = "signal.dispatch"
	SpanListener = "signal.listener"
)

// Span attribute keys.
const (
	AttrSignalName       = "signal.name"
	AttrSignalKind       = "signal.kind"
	AttrListenerCount    = "signal.listener_count"
	AttrListenerID       = "signal.listener.id"
	AttrListenerName     = "signal.listener.name"
	AttrListenerPriority = "signal.listener.priority"
	AttrRunID            = "scenario.run_id"
	AttrStep             = "scenario.step"
)
