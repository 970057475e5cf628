package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCart(t *testing.T, id string, loop Loop, at Hole) *BeverageCart {
	t.Helper()
	c, err := NewBeverageCart(id, id, loop, LocAtHole(at))
	require.NoError(t, err)
	return c
}

func TestNewBeverageCart_RejectsBadLoopAndPlacement(t *testing.T) {
	_, err := NewBeverageCart("c1", "c1", LoopNone, Clubhouse())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewBeverageCart("c1", "c1", LoopFront, LocAtHole(14))
	assert.ErrorIs(t, err, ErrZoneViolation)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewAssetRegistry()
	require.NoError(t, r.Register(testCart(t, "cart-1", LoopFront, 3)))
	assert.ErrorIs(t, r.Register(testCart(t, "cart-1", LoopFront, 3)), ErrInvalidInput)

	_, err := r.Get("ghost")
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestRegistry_UpdateLocationEnforcesZone(t *testing.T) {
	r := NewAssetRegistry()
	require.NoError(t, r.Register(testCart(t, "cart-1", LoopFront, 3)))

	assert.NoError(t, r.UpdateLocation("cart-1", LocAtHole(7)))
	assert.NoError(t, r.UpdateLocation("cart-1", Clubhouse()))
	assert.ErrorIs(t, r.UpdateLocation("cart-1", LocAtHole(12)), ErrZoneViolation)

	// staff roam anywhere
	require.NoError(t, r.Register(NewDeliveryStaff("staff-1", "staff-1", Clubhouse())))
	assert.NoError(t, r.UpdateLocation("staff-1", LocAtHole(12)))
}

// At most one outstanding offer per asset, ever.
func TestRegistry_SingleOfferPendingPerAsset(t *testing.T) {
	r := NewAssetRegistry()
	require.NoError(t, r.Register(NewDeliveryStaff("staff-1", "staff-1", Clubhouse())))

	require.NoError(t, r.SetStatus("staff-1", StatusOfferPending))
	assert.ErrorIs(t, r.SetStatus("staff-1", StatusOfferPending), ErrOfferPending)

	// resolving the offer clears the gate
	require.NoError(t, r.SetStatus("staff-1", StatusAvailable))
	assert.NoError(t, r.SetStatus("staff-1", StatusOfferPending))
}

func TestRegistry_QueueCapWhileBusy(t *testing.T) {
	r := NewAssetRegistry()
	require.NoError(t, r.Register(NewDeliveryStaff("staff-1", "staff-1", Clubhouse())))

	require.NoError(t, r.EnqueueOrder("staff-1", "o1", 2))
	require.NoError(t, r.SetStatus("staff-1", StatusEnRouteToCustomer))
	require.NoError(t, r.EnqueueOrder("staff-1", "o2", 2))
	assert.ErrorIs(t, r.EnqueueOrder("staff-1", "o3", 2), ErrInvalidInput)

	require.NoError(t, r.DequeueOrder("staff-1", "o1"))
	assert.NoError(t, r.EnqueueOrder("staff-1", "o3", 2))
	assert.ErrorIs(t, r.DequeueOrder("staff-1", "o1"), ErrUnknownOrder)
}

func TestRegistry_SnapshotAvailability(t *testing.T) {
	r := NewAssetRegistry()
	require.NoError(t, r.Register(testCart(t, "cart-1", LoopFront, 3)))
	require.NoError(t, r.Register(NewDeliveryStaff("staff-1", "staff-1", Clubhouse())))

	staff, err := r.Get("staff-1")
	require.NoError(t, err)
	require.NoError(t, r.SetStatus("staff-1", StatusEnRouteToCustomer))
	staff.state().busyUntil = 12.0

	snap := r.Snapshot(10.0)
	require.Len(t, snap, 2)
	// sorted by id
	assert.Equal(t, "cart-1", snap[0].ID)
	assert.Equal(t, 10.0, snap[0].AvailableAt)
	assert.Equal(t, 12.0, snap[1].AvailableAt)
}

// Assets that have not left the store yet can still absorb orders, so
// their snapshot availability is now, not the end of the planned route.
func TestRegistry_SnapshotPreDepartureIsAvailableNow(t *testing.T) {
	r := NewAssetRegistry()
	require.NoError(t, r.Register(NewDeliveryStaff("staff-1", "staff-1", Clubhouse())))
	staff, err := r.Get("staff-1")
	require.NoError(t, err)
	require.NoError(t, r.SetStatus("staff-1", StatusEnRouteToPickup))
	staff.state().busyUntil = 12.0

	snap := r.Snapshot(2.0)
	assert.Equal(t, 2.0, snap[0].AvailableAt)
}

func TestSnapshot_MutationDoesNotReachRegistry(t *testing.T) {
	r := NewAssetRegistry()
	require.NoError(t, r.Register(NewDeliveryStaff("staff-1", "staff-1", Clubhouse())))
	require.NoError(t, r.EnqueueOrder("staff-1", "o1", 3))

	snap := r.Snapshot(0)
	snap[0].Queue[0] = "tampered"

	a, err := r.Get("staff-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, a.Queue())
}
