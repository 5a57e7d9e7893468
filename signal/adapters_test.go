package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	total int
}

func (c *counter) OnValue(v int) { c.total += v }

func TestBind(t *testing.T) {
	c := &counter{}
	var r Registry[int]

	id := r.Add(Bind(c, (*counter).OnValue))
	r.Dispatch(3)
	r.Dispatch(4)
	require.Equal(t, 7, c.total)

	r.Remove(id)
	r.Dispatch(100)
	require.Equal(t, 7, c.total)
}

func TestSpread(t *testing.T) {
	var two Registry[Args2[int, int]]
	var sum int
	two.Add(Spread2(func(a, b int) { sum = a + b }))
	two.Dispatch(Args2[int, int]{First: 1, Second: 2})
	assert.Equal(t, 3, sum)

	var three PriorityRegistry[Args3[string, int, bool]]
	var got []any
	three.Add(Spread3(func(s string, n int, ok bool) { got = append(got, s, n, ok) }))
	three.Dispatch(Args3[string, int, bool]{First: "x", Second: 9, Third: true})
	assert.Equal(t, []any{"x", 9, true}, got)
}

func TestIgnore(t *testing.T) {
	var r Registry[Void]
	fired := 0
	r.Add(Ignore(func() { fired++ }))
	r.Dispatch(Void{})
	require.Equal(t, 1, fired)
}
