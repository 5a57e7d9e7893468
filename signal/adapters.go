package signal

// Void is the argument type of signals that carry no value.
type Void = struct{}

// Args2 carries two values through a single-parameter signal.
type Args2[A, B any] struct {
	First  A
	Second B
}

// Args3 carries three values through a single-parameter signal.
type Args3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Bind adapts a method expression and its receiver into a listener:
//
//	sig.Add(signal.Bind(w, (*Window).OnResize))
func Bind[R, T any](recv R, method func(R, T)) Func[T] {
	return func(v T) { method(recv, v) }
}

// Ignore adapts a niladic function into a Void listener.
func Ignore(fn func()) Func[Void] {
	return func(Void) { fn() }
}

// Spread2 adapts a two-parameter function into an Args2 listener.
func Spread2[A, B any](fn func(A, B)) Func[Args2[A, B]] {
	return func(a Args2[A, B]) { fn(a.First, a.Second) }
}

// Spread3 adapts a three-parameter function into an Args3 listener.
func Spread3[A, B, C any](fn func(A, B, C)) Func[Args3[A, B, C]] {
	return func(a Args3[A, B, C]) { fn(a.First, a.Second, a.Third) }
}
