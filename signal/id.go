package signal

import "math"

// ListenerID identifies a registered listener. The zero value is never
// issued, so it can be used as "not registered".
type ListenerID uint64

// idSource mints strictly increasing listener IDs starting at 1.
type idSource struct {
	last ListenerID
}

func (s *idSource) next() ListenerID {
	if s.last == math.MaxUint64 {
		panic("signal: listener ID space exhausted")
	}
	s.last++
	return s.last
}
