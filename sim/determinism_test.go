package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two runs of the same scenario and seed must replay identically: the
// same trace, line for line, and the same KPI numbers.
func TestIdenticalSeedsReplayIdentically(t *testing.T) {
	run := func() (*Simulator, error) {
		cfg, err := Preset("rush_hour")
		if err != nil {
			return nil, err
		}
		cfg.RNGSeed = 42
		sim, err := NewSimulator(cfg)
		if err != nil {
			return nil, err
		}
		return sim, sim.Run()
	}

	first, err := run()
	require.NoError(t, err)
	second, err := run()
	require.NoError(t, err)

	require.Positive(t, first.Trace().Len())
	assert.Equal(t, first.Trace().Lines(), second.Trace().Lines())
	assert.Equal(t, first.Report().ToMap(), second.Report().ToMap())
}

// Different seeds should diverge; a scenario this busy producing the
// same timeline twice would mean the seed is ignored somewhere.
func TestDifferentSeedsDiverge(t *testing.T) {
	run := func(seed int64) *Simulator {
		cfg, err := Preset("rush_hour")
		require.NoError(t, err)
		cfg.RNGSeed = seed
		sim, err := NewSimulator(cfg)
		require.NoError(t, err)
		require.NoError(t, sim.Run())
		return sim
	}

	assert.NotEqual(t, run(1).Trace().Lines(), run(2).Trace().Lines())
}
