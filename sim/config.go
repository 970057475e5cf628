package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScenarioConfig is the full configuration record for one simulation run.
// The zero value is not usable; start from DefaultConfig or a preset and
// override.
type ScenarioConfig struct {
	SimulationDurationMin    float64 `yaml:"simulation_duration_min"`
	OrderIntervalMin         float64 `yaml:"order_interval_min"`
	OrderIntervalVarianceMin float64 `yaml:"order_interval_variance_min"`
	VolumeMultiplier         float64 `yaml:"volume_multiplier"`

	NumBeverageCarts int `yaml:"num_beverage_carts"` // 0-2
	NumDeliveryStaff int `yaml:"num_delivery_staff"`

	Strategy string `yaml:"strategy"`

	TargetDeliveryTimeMin float64 `yaml:"target_delivery_time_min"`
	TargetWaitTimeMin     float64 `yaml:"target_wait_time_min"`

	RNGSeed         int64 `yaml:"rng_seed"`
	DetailedLogging bool  `yaml:"detailed_logging"`

	// Dispatch tunables. Defaults match the production dispatcher.
	MaxBatchSize                int     `yaml:"max_batch_size"`
	AdjacentHoleThreshold       int     `yaml:"adjacent_hole_threshold"`
	BatchDeliveryTimePenaltyMin float64 `yaml:"batch_delivery_time_penalty_min"`
	BatchEfficiencyBonus        float64 `yaml:"batch_efficiency_bonus"`
	CartPreferenceWindowMin     float64 `yaml:"cart_preference_window_min"`
	SoonAvailableMin            float64 `yaml:"soon_available_min"`
	OfferWindowMin              float64 `yaml:"offer_window_min"`
	MaxRetries                  int     `yaml:"max_retries"`
	RetryBackoffMin             float64 `yaml:"retry_backoff_min"`
	PlayerPaceMin               float64 `yaml:"player_pace_min"`
	LocationTickMin             float64 `yaml:"location_tick_min"`

	// CourseMap optionally overrides the built-in layout.
	CourseMap []Segment `yaml:"course_map,omitempty"`
}

// DefaultConfig is the balanced baseline scenario.
func DefaultConfig() ScenarioConfig {
	return ScenarioConfig{
		SimulationDurationMin:    240,
		OrderIntervalMin:         5.0,
		OrderIntervalVarianceMin: 2.0,
		VolumeMultiplier:         1.0,
		NumBeverageCarts:         2,
		NumDeliveryStaff:         3,
		Strategy:                 StrategyCartPreference,
		TargetDeliveryTimeMin:    25,
		TargetWaitTimeMin:        20,
		RNGSeed:                  42,

		MaxBatchSize:                3,
		AdjacentHoleThreshold:       2,
		BatchDeliveryTimePenaltyMin: 2.0,
		BatchEfficiencyBonus:        0.85,
		CartPreferenceWindowMin:     10,
		SoonAvailableMin:            3,
		OfferWindowMin:              0.25, // 15 seconds simulated
		MaxRetries:                  3,
		RetryBackoffMin:             1.0, // 60 seconds simulated
		PlayerPaceMin:               15,
		LocationTickMin:             0.5,
	}
}

// Preset returns a named scenario. Available presets: default,
// high_volume, rush_hour, efficiency_test.
func Preset(name string) (ScenarioConfig, error) {
	cfg := DefaultConfig()
	switch name {
	case "", "default":
	case "high_volume":
		cfg.OrderIntervalMin = 2.5
		cfg.OrderIntervalVarianceMin = 1.0
		cfg.VolumeMultiplier = 2.0
		cfg.NumBeverageCarts = 2
		cfg.NumDeliveryStaff = 4
	case "rush_hour":
		cfg.SimulationDurationMin = 120
		cfg.OrderIntervalMin = 1.5
		cfg.OrderIntervalVarianceMin = 0.5
		cfg.VolumeMultiplier = 3.0
		cfg.Strategy = StrategyBatchOrders
	case "efficiency_test":
		cfg.SimulationDurationMin = 480
		cfg.OrderIntervalMin = 4.0
		cfg.Strategy = StrategyZoneOptimal
		cfg.TargetDeliveryTimeMin = 20
		cfg.TargetWaitTimeMin = 15
	default:
		return cfg, fmt.Errorf("%w: unknown preset %q", ErrInvalidInput, name)
	}
	return cfg, nil
}

// Validate rejects ill-formed configurations at the boundary.
func (c *ScenarioConfig) Validate() error {
	if c.SimulationDurationMin <= 0 {
		return fmt.Errorf("%w: simulation_duration_min must be > 0, got %v", ErrInvalidInput, c.SimulationDurationMin)
	}
	if c.OrderIntervalMin <= 0 {
		return fmt.Errorf("%w: order_interval_min must be > 0", ErrInvalidInput)
	}
	if c.VolumeMultiplier <= 0 {
		return fmt.Errorf("%w: volume_multiplier must be > 0", ErrInvalidInput)
	}
	if c.NumBeverageCarts < 0 || c.NumBeverageCarts > 2 {
		return fmt.Errorf("%w: num_beverage_carts must be 0-2, got %d", ErrInvalidInput, c.NumBeverageCarts)
	}
	if c.NumDeliveryStaff < 0 {
		return fmt.Errorf("%w: num_delivery_staff must be >= 0", ErrInvalidInput)
	}
	if !IsValidStrategy(c.Strategy) {
		return fmt.Errorf("%w: unknown strategy %q (valid: %v)", ErrInvalidInput, c.Strategy, StrategyNames())
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("%w: max_batch_size must be >= 1", ErrInvalidInput)
	}
	if c.BatchEfficiencyBonus <= 0 || c.BatchEfficiencyBonus > 1 {
		return fmt.Errorf("%w: batch_efficiency_bonus must be in (0,1]", ErrInvalidInput)
	}
	if c.OfferWindowMin <= 0 || c.RetryBackoffMin <= 0 || c.LocationTickMin <= 0 || c.PlayerPaceMin <= 0 {
		return fmt.Errorf("%w: offer/retry/tick/pace intervals must be > 0", ErrInvalidInput)
	}
	return nil
}

// LoadScenario reads a yaml scenario file over the defaults and validates.
func LoadScenario(path string) (ScenarioConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read scenario %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// BuildCourse returns the scenario's course: the configured map if any,
// otherwise the default layout.
func (c *ScenarioConfig) BuildCourse() (*Course, error) {
	if len(c.CourseMap) == 0 {
		return DefaultCourse(), nil
	}
	return NewCourse(c.CourseMap)
}

// TimeOfDayAt buckets a simulated clock value into thirds of the run.
func (c *ScenarioConfig) TimeOfDayAt(t float64) TimeOfDay {
	third := c.SimulationDurationMin / 3
	switch {
	case t < third:
		return Morning
	case t < 2*third:
		return Noon
	default:
		return Afternoon
	}
}
