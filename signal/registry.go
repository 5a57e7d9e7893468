package signal

import (
	"cmp"
	"slices"
)

// Func is a listener callback.
type Func[T any] func(T)

type entry[T any] struct {
	id ListenerID
	fn Func[T]
}

// Registry is an unordered signal. Callers must not rely on dispatch order;
// in practice listeners run in registration order.
//
// The zero value is an empty registry ready to use.
type Registry[T any] struct {
	ids     idSource
	entries []entry[T] // ascending by id
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Add registers fn and returns its ID. The same function may be added more
// than once; each registration gets its own ID.
func (r *Registry[T]) Add(fn Func[T]) ListenerID {
	if fn == nil {
		panic("signal: nil listener")
	}
	id := r.ids.next()
	r.entries = append(r.entries, entry[T]{id: id, fn: fn})
	return id
}

// Remove unregisters the listener with the given ID. Unknown IDs are ignored.
func (r *Registry[T]) Remove(id ListenerID) {
	if i, ok := r.find(id); ok {
		r.entries = slices.Delete(r.entries, i, i+1)
	}
}

// RemoveAll unregisters every listener. IDs issued afterwards continue the
// existing sequence.
func (r *Registry[T]) RemoveAll() {
	clear(r.entries)
	r.entries = r.entries[:0]
}

// Has reports whether id is currently registered.
func (r *Registry[T]) Has(id ListenerID) bool {
	_, ok := r.find(id)
	return ok
}

// Len returns the number of registered listeners.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}

// Dispatch calls every registered listener with v.
func (r *Registry[T]) Dispatch(v T) {
	for _, e := range r.snapshot() {
		e.fn(v)
	}
}

// TryDispatch is Dispatch, except that a panicking listener is reported as a
// *ListenerPanicError instead of unwinding the caller. Listeners after the
// failing one are not called.
func (r *Registry[T]) TryDispatch(v T) (err error) {
	for _, e := range r.snapshot() {
		if err = invoke(e.id, e.fn, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry[T]) find(id ListenerID) (int, bool) {
	return slices.BinarySearchFunc(r.entries, id, func(e entry[T], id ListenerID) int {
		return cmp.Compare(e.id, id)
	})
}

func (r *Registry[T]) snapshot() []entry[T] {
	if len(r.entries) == 0 {
		return nil
	}
	return slices.Clone(r.entries)
}
