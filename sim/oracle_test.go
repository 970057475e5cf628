package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(t *testing.T, hole Hole, items []MenuItem) *Order {
	t.Helper()
	o, err := NewOrder("order-test", hole, items, Afternoon, 0)
	require.NoError(t, err)
	return o
}

func TestPrepTime_Formula(t *testing.T) {
	oracle := NewPredictionOracle(DefaultCourse())

	tests := []struct {
		name  string
		items []MenuItem
		want  float64
	}{
		{
			"single simple item",
			[]MenuItem{{Name: "Water", Quantity: 1, Complexity: ComplexitySimple}},
			2.0 * 1 * 0.8, // sqrt(1)/1 = 1
		},
		{
			"four complex items",
			[]MenuItem{{Name: "Burger", Quantity: 4, Complexity: ComplexityComplex}},
			2.0 * 4 * 1.5 * 0.5, // sqrt(4)/4 = 0.5
		},
		{
			"mixed complexity uses the max factor",
			[]MenuItem{
				{Name: "Water", Quantity: 1, Complexity: ComplexitySimple},
				{Name: "Burger", Quantity: 1, Complexity: ComplexityComplex},
			},
			2.0 * 2 * 1.5 * math.Sqrt(2) / 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oracle.PrepTime(testOrder(t, 5, tt.items))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPrepTime_EmptyOrderUsesDefault(t *testing.T) {
	oracle := NewPredictionOracle(DefaultCourse())
	got, err := oracle.PrepTime(testOrder(t, 5, nil))
	require.NoError(t, err)
	assert.Equal(t, defaultPrepMin, got)
}

func TestTravelTime_TimeOfDayMultipliers(t *testing.T) {
	oracle := NewPredictionOracle(DefaultCourse())
	base, err := oracle.TravelTime(LocAtHole(3), 5, KindDeliveryStaff, LoopNone, Afternoon)
	require.NoError(t, err)

	morning, _ := oracle.TravelTime(LocAtHole(3), 5, KindDeliveryStaff, LoopNone, Morning)
	noon, _ := oracle.TravelTime(LocAtHole(3), 5, KindDeliveryStaff, LoopNone, Noon)
	assert.InDelta(t, base*0.8, morning, 1e-9)
	assert.InDelta(t, base*1.2, noon, 1e-9)
}

func TestTravelTime_UnreachablePassesInfThrough(t *testing.T) {
	oracle := NewPredictionOracle(DefaultCourse())
	got, err := oracle.TravelTime(LocAtHole(3), 14, KindBeverageCart, LoopFront, Noon)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, 1))
}

func TestTravelTime_RejectsUnknownHole(t *testing.T) {
	oracle := NewPredictionOracle(DefaultCourse())
	_, err := oracle.TravelTime(LocAtHole(3), 19, KindDeliveryStaff, LoopNone, Noon)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAcceptanceProb_Model(t *testing.T) {
	oracle := NewPredictionOracle(DefaultCourse())
	order := testOrder(t, 5, []MenuItem{{Name: "Water", Quantity: 1, Complexity: ComplexitySimple, UnitPrice: 3.5}})

	t.Run("idle staff at clubhouse", func(t *testing.T) {
		a := AssetSnapshot{ID: "staff-1", Kind: KindDeliveryStaff, Location: Clubhouse()}
		got, err := oracle.AcceptanceProb(a, []*Order{order})
		require.NoError(t, err)
		assert.InDelta(t, 0.80, got, 1e-9)
	})
	t.Run("distance and workload reduce acceptance", func(t *testing.T) {
		a := AssetSnapshot{ID: "staff-1", Kind: KindDeliveryStaff, Location: LocAtHole(4), Queue: []string{"x"}}
		got, err := oracle.AcceptanceProb(a, []*Order{order})
		require.NoError(t, err)
		assert.InDelta(t, 0.80-4*0.05-0.10, got, 1e-9)
	})
	t.Run("in-zone cart gets the bonus", func(t *testing.T) {
		a := AssetSnapshot{ID: "cart-1", Kind: KindBeverageCart, Loop: LoopFront, Location: Clubhouse()}
		got, err := oracle.AcceptanceProb(a, []*Order{order})
		require.NoError(t, err)
		assert.InDelta(t, 0.90, got, 1e-9)
	})
	t.Run("out-of-zone batch hits the mismatch penalty", func(t *testing.T) {
		far := testOrder(t, 14, nil)
		a := AssetSnapshot{ID: "cart-1", Kind: KindBeverageCart, Loop: LoopFront, Location: Clubhouse()}
		got, err := oracle.AcceptanceProb(a, []*Order{far})
		require.NoError(t, err)
		assert.InDelta(t, 0.50, got, 1e-9)
	})
	t.Run("high value order nudges up", func(t *testing.T) {
		big := testOrder(t, 5, []MenuItem{{Name: "Platter", Quantity: 5, Complexity: ComplexityComplex, UnitPrice: 20}})
		a := AssetSnapshot{ID: "staff-1", Kind: KindDeliveryStaff, Location: Clubhouse()}
		got, err := oracle.AcceptanceProb(a, []*Order{big})
		require.NoError(t, err)
		assert.InDelta(t, 0.85, got, 1e-9)
	})
	t.Run("clamped to the floor", func(t *testing.T) {
		a := AssetSnapshot{ID: "staff-1", Kind: KindDeliveryStaff, Location: LocAtHole(18), Queue: []string{"a", "b", "c"}}
		got, err := oracle.AcceptanceProb(a, []*Order{order})
		require.NoError(t, err)
		assert.Equal(t, minAcceptance, got)
	})
}

func TestSamplePrepTime_WithinBandAndFloored(t *testing.T) {
	oracle := NewPredictionOracle(DefaultCourse())
	order := testOrder(t, 5, []MenuItem{{Name: "Water", Quantity: 1, Complexity: ComplexitySimple}})
	est, _ := oracle.PrepTime(order)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		got := SamplePrepTime(oracle, order, rng)
		assert.GreaterOrEqual(t, got, math.Max(est*0.8, minPrepMin))
		assert.LessOrEqual(t, got, est*1.2)
	}
}

func TestSampleTravelTime_InfPassthrough(t *testing.T) {
	oracle := NewPredictionOracle(DefaultCourse())
	rng := rand.New(rand.NewSource(1))
	got := SampleTravelTime(oracle, LocAtHole(3), 14, KindBeverageCart, LoopFront, Noon, rng)
	assert.True(t, math.IsInf(got, 1))
}

// failingOracle errors on every call, exercising the fallback paths.
type failingOracle struct{}

func (failingOracle) PrepTime(*Order) (float64, error) {
	return 0, ErrOracleUnavailable
}
func (failingOracle) TravelTime(Location, Hole, AssetKind, Loop, TimeOfDay) (float64, error) {
	return 0, ErrOracleUnavailable
}
func (failingOracle) AcceptanceProb(AssetSnapshot, []*Order) (float64, error) {
	return 0, ErrOracleUnavailable
}

func TestOracleFallbacks(t *testing.T) {
	order := testOrder(t, 6, nil)
	assert.Equal(t, defaultPrepMin, prepTimeOrDefault(failingOracle{}, order))
	// hole-distance fallback: 1.5 per hole of separation
	assert.InDelta(t, 1.5*6, travelTimeOrDefault(failingOracle{}, Clubhouse(), 6, KindDeliveryStaff, LoopNone, Noon), 1e-9)
	a := AssetSnapshot{ID: "staff-1", Kind: KindDeliveryStaff, Location: Clubhouse()}
	assert.Equal(t, baseAcceptance, acceptanceOrDefault(failingOracle{}, a, []*Order{order}))
}
