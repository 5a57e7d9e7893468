package signal

import (
	"cmp"
	"slices"
)

// PrioritizedEntry wraps a listener with its priority and ID. It is
// immutable once created.
type PrioritizedEntry[T any] struct {
	fn       Func[T]
	priority int
	id       ListenerID
}

// NewPrioritizedEntry creates an entry for fn.
func NewPrioritizedEntry[T any](fn Func[T], priority int, id ListenerID) PrioritizedEntry[T] {
	return PrioritizedEntry[T]{fn: fn, priority: priority, id: id}
}

// Callback returns the wrapped listener.
func (e PrioritizedEntry[T]) Callback() Func[T] { return e.fn }

// Priority returns the entry's priority. Higher runs earlier.
func (e PrioritizedEntry[T]) Priority() int { return e.priority }

// ID returns the listener ID the entry was registered under.
func (e PrioritizedEntry[T]) ID() ListenerID { return e.id }

// ComparePriority orders entries by descending priority. It returns a
// negative number when a must run before b, and zero for equal priorities so
// that stable sorts keep insertion order.
func ComparePriority[T any](a, b PrioritizedEntry[T]) int {
	return cmp.Compare(b.priority, a.priority)
}

// PriorityLess reports whether a must run before b.
func PriorityLess[T any](a, b PrioritizedEntry[T]) bool {
	return a.priority > b.priority
}

// PriorityRegistry is a signal whose listeners run in descending priority
// order. Listeners with equal priority run in the order they were added.
//
// The zero value is an empty registry ready to use.
type PriorityRegistry[T any] struct {
	ids     idSource
	entries []PrioritizedEntry[T]
}

// NewPriorityRegistry creates an empty priority registry.
func NewPriorityRegistry[T any]() *PriorityRegistry[T] {
	return &PriorityRegistry[T]{}
}

// Add registers fn with priority 0 and returns its ID.
func (r *PriorityRegistry[T]) Add(fn Func[T]) ListenerID {
	return r.AddWithPriority(fn, 0)
}

// AddWithPriority registers fn with the given priority and returns its ID.
func (r *PriorityRegistry[T]) AddWithPriority(fn Func[T], priority int) ListenerID {
	if fn == nil {
		panic("signal: nil listener")
	}
	id := r.ids.next()
	r.entries = append(r.entries, NewPrioritizedEntry(fn, priority, id))
	slices.SortStableFunc(r.entries, ComparePriority[T])
	return id
}

// Remove unregisters every entry with the given ID. Unknown IDs are ignored.
func (r *PriorityRegistry[T]) Remove(id ListenerID) {
	r.entries = slices.DeleteFunc(r.entries, func(e PrioritizedEntry[T]) bool {
		return e.id == id
	})
}

// RemoveAll unregisters every listener. IDs issued afterwards continue the
// existing sequence.
func (r *PriorityRegistry[T]) RemoveAll() {
	clear(r.entries)
	r.entries = r.entries[:0]
}

// Has reports whether id is currently registered.
func (r *PriorityRegistry[T]) Has(id ListenerID) bool {
	return slices.ContainsFunc(r.entries, func(e PrioritizedEntry[T]) bool {
		return e.id == id
	})
}

// Len returns the number of registered listeners.
func (r *PriorityRegistry[T]) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the entries in dispatch order.
func (r *PriorityRegistry[T]) Entries() []PrioritizedEntry[T] {
	return slices.Clone(r.entries)
}

// Dispatch calls every registered listener with v, highest priority first.
func (r *PriorityRegistry[T]) Dispatch(v T) {
	for _, e := range r.snapshot() {
		e.fn(v)
	}
}

// TryDispatch is Dispatch, except that a panicking listener is reported as a
// *ListenerPanicError instead of unwinding the caller. Listeners after the
// failing one are not called.
func (r *PriorityRegistry[T]) TryDispatch(v T) error {
	for _, e := range r.snapshot() {
		if err := invoke(e.id, e.fn, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *PriorityRegistry[T]) snapshot() []PrioritizedEntry[T] {
	if len(r.entries) == 0 {
		return nil
	}
	return slices.Clone(r.entries)
}
