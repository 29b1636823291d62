package config

import (
	"fmt"
	"time"
)

// IntN is the slice of a random source the ranges need. *rand.Rand from
// math/rand/v2 satisfies it.
type IntN interface {
	IntN(n int) int
}

// Range is an inclusive integer interval drawn from uniformly.
type Range struct {
	Min int `mapstructure:"min" yaml:"min"`
	Max int `mapstructure:"max" yaml:"max"`
}

// Draw returns a uniformly drawn value in [Min, Max].
func (r Range) Draw(rng IntN) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.IntN(r.Max-r.Min+1)
}

func (r Range) validate(key string, floor int) error {
	if r.Min < floor {
		return fmt.Errorf("%s.min must be at least %d", key, floor)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%s.max (%d) must not be less than %s.min (%d)", key, r.Max, key, r.Min)
	}
	return nil
}

// DurationRange is an inclusive duration interval, drawn at millisecond granularity.
type DurationRange struct {
	Min time.Duration `mapstructure:"min" yaml:"min"`
	Max time.Duration `mapstructure:"max" yaml:"max"`
}

// Draw returns a uniformly drawn duration in [Min, Max].
func (r DurationRange) Draw(rng IntN) time.Duration {
	span := (r.Max - r.Min) / time.Millisecond
	if span <= 0 {
		return r.Min
	}
	return r.Min + time.Duration(rng.IntN(int(span)+1))*time.Millisecond
}

func (r DurationRange) validate(key string) error {
	if r.Min < 0 {
		return fmt.Errorf("%s.min must not be negative", key)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%s.max (%s) must not be less than %s.min (%s)", key, r.Max, key, r.Min)
	}
	return nil
}
