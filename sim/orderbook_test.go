package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderBook_PlaceAndGet(t *testing.T) {
	b := NewOrderBook()
	o := testOrder(t, 5, nil)
	o.ID = "o1"
	require.NoError(t, b.PlaceOrder(o))

	assert.ErrorIs(t, b.PlaceOrder(o), ErrInvalidInput)

	got, err := b.Get("o1")
	require.NoError(t, err)
	assert.Same(t, o, got)

	_, err = b.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestOrderBook_LifecycleStampsTimestamps(t *testing.T) {
	b := NewOrderBook()
	o := testOrder(t, 5, nil)
	o.ID = "o1"
	require.NoError(t, b.PlaceOrder(o))

	require.NoError(t, b.SetState("o1", OrderOffered, 1.0))
	require.NoError(t, b.SetState("o1", OrderAssigned, 2.0))
	require.NoError(t, b.SetState("o1", OrderInDelivery, 3.0))
	require.NoError(t, b.SetState("o1", OrderDelivered, 9.0))

	assert.Equal(t, []float64{1.0}, o.OfferedAt)
	assert.Equal(t, 2.0, o.AssignedAt)
	assert.Equal(t, 3.0, o.PickedUpAt)
	assert.Equal(t, 9.0, o.DeliveredAt)
}

func TestOrderBook_RejectsBackwardTransitions(t *testing.T) {
	b := NewOrderBook()
	o := testOrder(t, 5, nil)
	o.ID = "o1"
	require.NoError(t, b.PlaceOrder(o))
	require.NoError(t, b.SetState("o1", OrderAssigned, 1.0))

	assert.ErrorIs(t, b.SetState("o1", OrderPending, 2.0), ErrInvalidInput)
	assert.ErrorIs(t, b.SetState("o1", OrderOffered, 2.0), ErrInvalidInput)
}

// The one sanctioned regression: a fully declined offer cascade sends the
// order back to pending.
func TestOrderBook_OfferedBackToPending(t *testing.T) {
	b := NewOrderBook()
	o := testOrder(t, 5, nil)
	o.ID = "o1"
	require.NoError(t, b.PlaceOrder(o))
	require.NoError(t, b.SetState("o1", OrderOffered, 1.0))
	require.NoError(t, b.SetState("o1", OrderPending, 1.25))

	// each offer attempt stamps its own entry
	require.NoError(t, b.SetState("o1", OrderOffered, 2.25))
	assert.Equal(t, []float64{1.0, 2.25}, o.OfferedAt)
}

func TestOrderBook_PendingClonesAreCopies(t *testing.T) {
	b := NewOrderBook()
	o := testOrder(t, 5, nil)
	o.ID = "o1"
	require.NoError(t, b.PlaceOrder(o))
	assigned := testOrder(t, 6, nil)
	assigned.ID = "o2"
	require.NoError(t, b.PlaceOrder(assigned))
	require.NoError(t, b.SetState("o2", OrderAssigned, 1.0))

	clones := b.PendingClones()
	require.Len(t, clones, 1)
	assert.Equal(t, "o1", clones[0].ID)
	clones[0].Hole = 9
	assert.Equal(t, Hole(5), o.Hole)
}

func TestOrderBook_AttachAssignment(t *testing.T) {
	b := NewOrderBook()
	o := testOrder(t, 5, nil)
	o.ID = "o1"
	require.NoError(t, b.PlaceOrder(o))

	require.NoError(t, b.AttachAssignment("o1", "cart-1", []string{"o1", "o2", "o3"}))
	assert.Equal(t, "cart-1", o.AssignedTo)
	assert.Equal(t, []string{"o2", "o3"}, o.BatchWith)
}
