package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvent struct {
	at float64
	id int
}

func (e *stubEvent) Timestamp() float64     { return e.at }
func (e *stubEvent) Execute(sim *Simulator) {}

func TestEventQueue_OrdersByTimestamp(t *testing.T) {
	var q EventQueue
	q.PushEvent(&stubEvent{at: 12.0, id: 1})
	q.PushEvent(&stubEvent{at: 3.5, id: 2})
	q.PushEvent(&stubEvent{at: 7.0, id: 3})

	next, ok := q.PeekTime()
	require.True(t, ok)
	assert.InDelta(t, 3.5, next, 1e-9)

	var got []float64
	for q.Len() > 0 {
		got = append(got, q.PopEvent().Timestamp())
	}
	assert.Equal(t, []float64{3.5, 7.0, 12.0}, got)

	_, ok = q.PeekTime()
	assert.False(t, ok)
}

// Events at the same timestamp drain in insertion order, so causally
// ordered same-instant events replay the same way every run.
func TestEventQueue_FIFOAtEqualTimestamps(t *testing.T) {
	var q EventQueue
	for i := 0; i < 8; i++ {
		q.PushEvent(&stubEvent{at: 5.0, id: i})
	}
	q.PushEvent(&stubEvent{at: 1.0, id: 99})

	require.Equal(t, 9, q.Len())
	assert.Equal(t, 99, q.PopEvent().(*stubEvent).id)
	for i := 0; i < 8; i++ {
		assert.Equal(t, i, q.PopEvent().(*stubEvent).id)
	}
}
