package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// record returns a listener that appends name to *log.
func record[T any](log *[]string, name string) Func[T] {
	return func(T) { *log = append(*log, name) }
}

func TestPriorityRegistry_OrdersByDescendingPriority(t *testing.T) {
	var r PriorityRegistry[int]
	var got []string

	r.AddWithPriority(record[int](&got, "p5"), 5)
	r.AddWithPriority(record[int](&got, "p1-first"), 1)
	r.AddWithPriority(record[int](&got, "p10"), 10)
	r.AddWithPriority(record[int](&got, "p1-second"), 1)

	r.Dispatch(0)
	require.Equal(t, []string{"p10", "p5", "p1-first", "p1-second"}, got)

	// A later priority-7 listener slots in between 10 and 5.
	got = nil
	r.AddWithPriority(record[int](&got, "p7"), 7)
	r.Dispatch(0)
	require.Equal(t, []string{"p10", "p7", "p5", "p1-first", "p1-second"}, got)
}

func TestPriorityRegistry_HighBeforeLow(t *testing.T) {
	r := NewPriorityRegistry[Void]()
	var got []string

	low := r.AddWithPriority(record[Void](&got, "low"), 0)
	high := r.AddWithPriority(record[Void](&got, "high"), 100)

	require.Equal(t, ListenerID(1), low)
	require.Equal(t, ListenerID(2), high)

	r.Dispatch(Void{})
	require.Equal(t, []string{"high", "low"}, got)
}

func TestPriorityRegistry_AddDefaultsToZero(t *testing.T) {
	var r PriorityRegistry[int]
	var got []string

	r.Add(record[int](&got, "default"))
	r.AddWithPriority(record[int](&got, "negative"), -1)
	r.AddWithPriority(record[int](&got, "positive"), 1)

	r.Dispatch(0)
	require.Equal(t, []string{"positive", "default", "negative"}, got)
	require.Equal(t, 0, r.Entries()[1].Priority())
}

func TestPriorityRegistry_Remove(t *testing.T) {
	var r PriorityRegistry[int]
	var got []string

	a := r.AddWithPriority(record[int](&got, "a"), 3)
	r.AddWithPriority(record[int](&got, "b"), 2)

	r.Remove(a)
	r.Remove(a)
	r.Remove(12345)
	r.Dispatch(0)

	require.Equal(t, []string{"b"}, got)
	require.False(t, r.Has(a))
	require.Equal(t, 1, r.Len())
}

func TestPriorityRegistry_RemoveAll(t *testing.T) {
	var r PriorityRegistry[int]
	calls := 0
	r.AddWithPriority(func(int) { calls++ }, 1)
	r.AddWithPriority(func(int) { calls++ }, 2)

	r.RemoveAll()
	r.RemoveAll()
	r.Dispatch(0)

	require.Equal(t, 0, calls)
	require.Equal(t, ListenerID(3), r.Add(func(int) {}))
}

func TestPriorityRegistry_Entries(t *testing.T) {
	var r PriorityRegistry[string]
	id1 := r.AddWithPriority(func(string) {}, 1)
	id2 := r.AddWithPriority(func(string) {}, 9)

	entries := r.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, id2, entries[0].ID())
	require.Equal(t, 9, entries[0].Priority())
	require.Equal(t, id1, entries[1].ID())
	require.NotNil(t, entries[1].Callback())

	// Mutating the copy does not affect the registry.
	entries[0] = PrioritizedEntry[string]{}
	require.Equal(t, id2, r.Entries()[0].ID())
}

func TestPriorityRegistry_MutationDuringDispatch(t *testing.T) {
	var r PriorityRegistry[int]
	var got []string
	var low ListenerID

	r.AddWithPriority(func(int) {
		got = append(got, "high")
		r.Remove(low)
		r.AddWithPriority(record[int](&got, "late"), 50)
	}, 100)
	low = r.AddWithPriority(record[int](&got, "low"), 1)

	r.Dispatch(0)
	require.Equal(t, []string{"high", "low"}, got)

	got = nil
	r.RemoveAll()
	r.Dispatch(0)
	require.Empty(t, got)
}

func TestPriorityRegistry_TryDispatchStopsAtPanic(t *testing.T) {
	var r PriorityRegistry[int]
	var got []string
	r.AddWithPriority(record[int](&got, "first"), 10)
	bad := r.AddWithPriority(func(int) { panic("nope") }, 5)
	r.AddWithPriority(record[int](&got, "never"), 1)

	err := r.TryDispatch(0)
	require.ErrorIs(t, err, ErrListenerPanic)
	require.Contains(t, err.Error(), "nope")

	var pe *ListenerPanicError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, bad, pe.ID)
	require.Nil(t, pe.Unwrap())
	require.Equal(t, []string{"first"}, got)
}

func TestComparePriority(t *testing.T) {
	hi := NewPrioritizedEntry[int](func(int) {}, 10, 1)
	lo := NewPrioritizedEntry[int](func(int) {}, 1, 2)
	eq := NewPrioritizedEntry[int](func(int) {}, 10, 3)

	require.Negative(t, ComparePriority(hi, lo))
	require.Positive(t, ComparePriority(lo, hi))
	require.Zero(t, ComparePriority(hi, eq))

	require.True(t, PriorityLess(hi, lo))
	require.False(t, PriorityLess(lo, hi))
	require.False(t, PriorityLess(hi, eq))
}
