package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreset_KnownNames(t *testing.T) {
	def, err := Preset("default")
	require.NoError(t, err)
	assert.Equal(t, StrategyCartPreference, def.Strategy)
	assert.Equal(t, 240.0, def.SimulationDurationMin)

	hv, err := Preset("high_volume")
	require.NoError(t, err)
	assert.Equal(t, 2.0, hv.VolumeMultiplier)
	assert.Equal(t, 4, hv.NumDeliveryStaff)

	rush, err := Preset("rush_hour")
	require.NoError(t, err)
	assert.Equal(t, StrategyBatchOrders, rush.Strategy)
	assert.Equal(t, 120.0, rush.SimulationDurationMin)

	eff, err := Preset("efficiency_test")
	require.NoError(t, err)
	assert.Equal(t, StrategyZoneOptimal, eff.Strategy)

	_, err = Preset("nope")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfig_Validate(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*ScenarioConfig)
	}{
		{"zero duration", func(c *ScenarioConfig) { c.SimulationDurationMin = 0 }},
		{"zero interval", func(c *ScenarioConfig) { c.OrderIntervalMin = 0 }},
		{"zero volume", func(c *ScenarioConfig) { c.VolumeMultiplier = 0 }},
		{"three carts", func(c *ScenarioConfig) { c.NumBeverageCarts = 3 }},
		{"negative staff", func(c *ScenarioConfig) { c.NumDeliveryStaff = -1 }},
		{"bad strategy", func(c *ScenarioConfig) { c.Strategy = "YOLO" }},
		{"zero batch size", func(c *ScenarioConfig) { c.MaxBatchSize = 0 }},
		{"bonus out of range", func(c *ScenarioConfig) { c.BatchEfficiencyBonus = 1.5 }},
		{"zero offer window", func(c *ScenarioConfig) { c.OfferWindowMin = 0 }},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
		})
	}
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadScenario_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	data := []byte(`
simulation_duration_min: 90
order_interval_min: 3.0
strategy: FASTEST_ETA
num_beverage_carts: 1
rng_seed: 7
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.SimulationDurationMin)
	assert.Equal(t, StrategyFastestETA, cfg.Strategy)
	assert.Equal(t, 1, cfg.NumBeverageCarts)
	assert.Equal(t, int64(7), cfg.RNGSeed)
	// untouched fields keep defaults
	assert.Equal(t, 3, cfg.MaxBatchSize)
}

func TestLoadScenario_InvalidFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: NOT_A_STRATEGY\n"), 0o644))
	_, err := LoadScenario(path)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildCourse_CustomMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CourseMap = []Segment{{From: 1, To: 3, Minutes: 1}}
	_, err := cfg.BuildCourse()
	assert.ErrorIs(t, err, ErrInvalidInput)

	cfg.CourseMap = nil
	c, err := cfg.BuildCourse()
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestTimeOfDayAt_Thirds(t *testing.T) {
	cfg := DefaultConfig() // 240 min
	assert.Equal(t, Morning, cfg.TimeOfDayAt(0))
	assert.Equal(t, Morning, cfg.TimeOfDayAt(79.9))
	assert.Equal(t, Noon, cfg.TimeOfDayAt(80))
	assert.Equal(t, Afternoon, cfg.TimeOfDayAt(160))
	assert.Equal(t, Afternoon, cfg.TimeOfDayAt(239))
}
