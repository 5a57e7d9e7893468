package signal

import (
	"errors"
	"fmt"
)

// ErrListenerPanic matches every *ListenerPanicError via errors.Is.
var ErrListenerPanic = errors.New("signal: listener panicked")

// ListenerPanicError reports a listener that panicked during TryDispatch.
type ListenerPanicError struct {
	ID    ListenerID
	Value any
}

func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("signal: listener %d panicked: %v", e.ID, e.Value)
}

// Is matches ErrListenerPanic.
func (e *ListenerPanicError) Is(target error) bool {
	return target == ErrListenerPanic
}

// Unwrap returns the panic value when it is an error.
func (e *ListenerPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func invoke[T any](id ListenerID, fn Func[T], v T) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ListenerPanicError{ID: id, Value: p}
		}
	}()
	fn(v)
	return nil
}
