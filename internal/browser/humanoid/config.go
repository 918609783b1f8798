// internal/browser/humanoid/config.go
package humanoid

import (
	"math/rand"
	"time"
)

// DurationRange is an inclusive [Min, Max] interval sampled uniformly.
type DurationRange struct {
	Min time.Duration `mapstructure:"min" yaml:"min"`
	Max time.Duration `mapstructure:"max" yaml:"max"`
}

// Sample draws a duration from the range. A degenerate range yields Min.
func (r DurationRange) Sample(rng *rand.Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int63n(int64(r.Max-r.Min)+1))
}

// Config holds the tunable parameters of the pointer, keyboard and scroll
// simulation. Distances are in CSS pixels.
type Config struct {
	// Motion path shape.
	MinSteps     int     `mapstructure:"min_steps" yaml:"min_steps"`
	MaxSteps     int     `mapstructure:"max_steps" yaml:"max_steps"`
	Jitter       float64 `mapstructure:"jitter" yaml:"jitter"`
	TargetOffset float64 `mapstructure:"target_offset" yaml:"target_offset"`

	// Timing.
	StepDelay  DurationRange `mapstructure:"step_delay" yaml:"step_delay"`
	PreClick   DurationRange `mapstructure:"pre_click" yaml:"pre_click"`
	PostClick  DurationRange `mapstructure:"post_click" yaml:"post_click"`
	KeyDelay   DurationRange `mapstructure:"key_delay" yaml:"key_delay"`
	ScrollWait DurationRange `mapstructure:"scroll_wait" yaml:"scroll_wait"`

	// Wheel scroll distance range.
	ScrollMin int `mapstructure:"scroll_min" yaml:"scroll_min"`
	ScrollMax int `mapstructure:"scroll_max" yaml:"scroll_max"`
}

// DefaultConfig returns the parameters the workflow was tuned with.
func DefaultConfig() Config {
	return Config{
		MinSteps:     8,
		MaxSteps:     18,
		Jitter:       2,
		TargetOffset: 5,
		StepDelay:    DurationRange{Min: 10 * time.Millisecond, Max: 30 * time.Millisecond},
		PreClick:     DurationRange{Min: 50 * time.Millisecond, Max: 150 * time.Millisecond},
		PostClick:    DurationRange{Min: 80 * time.Millisecond, Max: 250 * time.Millisecond},
		KeyDelay:     DurationRange{Min: 40 * time.Millisecond, Max: 140 * time.Millisecond},
		ScrollWait:   DurationRange{Min: 150 * time.Millisecond, Max: 450 * time.Millisecond},
		ScrollMin:    10,
		ScrollMax:    100,
	}
}

// normalize clamps nonsensical values so planning never panics.
func (c Config) normalize() Config {
	if c.MinSteps < 1 {
		c.MinSteps = 1
	}
	if c.MaxSteps < c.MinSteps {
		c.MaxSteps = c.MinSteps
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	if c.TargetOffset < 0 {
		c.TargetOffset = 0
	}
	if c.ScrollMax < c.ScrollMin {
		c.ScrollMax = c.ScrollMin
	}
	return c
}
