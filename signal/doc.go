// Package signal provides typed callback registries (signals) for the
// Observer pattern.
//
// A signal represents exactly one event type. Listeners register with Add
// and receive the ID used to remove them later; the owner broadcasts a value
// to every listener with Dispatch.
//
// Two flavors are provided:
//
//	var onResize signal.Registry[Size]            // unordered contract, ID order in practice
//	var onKey signal.PriorityRegistry[KeyEvent]  // highest priority first, FIFO on ties
//
//	id := onResize.Add(func(s Size) { relayout(s) })
//	onKey.AddWithPriority(closeOnEsc, 100)
//	onResize.Dispatch(Size{W: 80, H: 24})
//	onResize.Remove(id)
//
// Signals with several parameters use a tuple struct (Args2, Args3) and
// zero-argument signals use Void. Methods are bound with Bind:
//
//	onSave.Add(signal.Bind(editor, (*Editor).OnSave))
//
// Registries are not safe for concurrent use. Dispatch iterates over a
// snapshot taken when it starts: listeners added during a dispatch are first
// called on the next one, and listeners removed during a dispatch are still
// called if they were part of the snapshot.
//
// A panicking listener aborts the dispatch; listeners after it are not
// called. TryDispatch recovers that panic and reports it as an error.
package signal
