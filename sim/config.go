// sim/config.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/coastersim/coaster/motion"
	"github.com/coastersim/coaster/ride"
	"github.com/coastersim/coaster/track"
	"github.com/coastersim/coaster/util"

	"github.com/go-gl/mathgl/mgl32"
)

// Duration is a time.Duration that is written in JSON as a string like
// "10s"; plain numbers are taken as seconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		dur, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(dur)
		return nil
	}

	var sec float64
	if err := json.Unmarshal(b, &sec); err != nil {
		return fmt.Errorf("%s: expected a duration string or seconds", string(b))
	}
	*d = Duration(sec * float64(time.Second))
	return nil
}

// Config holds the ride's tunables. The zero value isn't useful; start
// from DefaultConfig.
type Config struct {
	Reduce track.ReduceOptions `json:"reduce"`

	Policy         string  `json:"policy"`
	EvenSegments   bool    `json:"even_segments"`
	SplineEpsilon  float32 `json:"spline_epsilon"`
	ClosureEpsilon float32 `json:"closure_epsilon"`
	SeekSmoothing  float32 `json:"seek_smoothing"`

	MinSpeed      float32  `json:"min_speed"`
	MaxSpeed      float32  `json:"max_speed"`
	LaunchSpeed   float32  `json:"launch_speed"`
	GravityFactor float32  `json:"gravity_factor"`
	BrakeRate     float32  `json:"brake_rate"`
	ReturnSpeed   float32  `json:"return_speed"`
	Dwell         Duration `json:"dwell"`

	Capacity    int        `json:"capacity"`
	SeatSpacing [3]float32 `json:"seat_spacing"`
	CarScale    float32    `json:"car_scale"`
}

func DefaultConfig() Config {
	return Config{
		Reduce: track.ReduceOptions{
			Mode:      track.ReduceChunks,
			ChunkSize: 8,
			MinDist:   0.5,
		},
		Policy:         motion.PolicyArcLength,
		SplineEpsilon:  0.01,
		ClosureEpsilon: 0.05,
		SeekSmoothing:  8,
		MinSpeed:       0.5,
		MaxSpeed:       8,
		LaunchSpeed:    1,
		GravityFactor:  2,
		BrakeRate:      1.5,
		ReturnSpeed:    1,
		Dwell:          Duration(10 * time.Second),
		Capacity:       ride.DefaultCapacity,
		SeatSpacing:    ride.DefaultSeatSpacing,
		CarScale:       0.8,
	}
}

// LoadConfig reads the JSON configuration at path on top of the
// defaults. Unknown fields are errors.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	contents, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	var e util.ErrorLogger
	e.Push(path)
	util.CheckJSON(contents, &config, &e)
	if !e.HaveErrors() {
		config.Validate(&e)
	}
	e.Pop()

	return config, e.Err()
}

// Validate records any out-of-range settings with e.
func (c *Config) Validate(e *util.ErrorLogger) {
	e.Push("reduce")
	switch c.Reduce.Mode {
	case track.ReduceChunks:
		if c.Reduce.ChunkSize <= 0 {
			e.ErrorString("chunk_size %d must be positive", c.Reduce.ChunkSize)
		}
	case track.ReducePairsMode:
		if c.Reduce.MinDist < 0 {
			e.ErrorString("min_dist %g must not be negative", c.Reduce.MinDist)
		}
	default:
		e.ErrorString("%q: unknown mode; expected %q or %q", c.Reduce.Mode, track.ReduceChunks, track.ReducePairsMode)
	}
	e.Pop()

	if !motion.ValidPolicy(c.Policy) {
		e.ErrorString("%q: unknown policy; expected one of %v", c.Policy, motion.PolicyNames())
	}
	if c.SplineEpsilon <= 0 || c.SplineEpsilon >= 1 {
		e.ErrorString("spline_epsilon %g must be in (0,1)", c.SplineEpsilon)
	}
	if c.ClosureEpsilon <= 0 {
		e.ErrorString("closure_epsilon %g must be positive", c.ClosureEpsilon)
	}
	if c.SeekSmoothing <= 0 {
		e.ErrorString("seek_smoothing %g must be positive", c.SeekSmoothing)
	}

	if c.MinSpeed < 0 {
		e.ErrorString("min_speed %g must not be negative", c.MinSpeed)
	}
	if c.MaxSpeed < c.MinSpeed {
		e.ErrorString("max_speed %g is below min_speed %g", c.MaxSpeed, c.MinSpeed)
	}
	if c.LaunchSpeed <= 0 {
		e.ErrorString("launch_speed %g must be positive", c.LaunchSpeed)
	}
	if c.GravityFactor < 0 {
		e.ErrorString("gravity_factor %g must not be negative", c.GravityFactor)
	}
	if c.BrakeRate <= 0 {
		e.ErrorString("brake_rate %g must be positive", c.BrakeRate)
	}
	if c.ReturnSpeed <= 0 {
		e.ErrorString("return_speed %g must be positive", c.ReturnSpeed)
	}
	if c.Dwell < 0 {
		e.ErrorString("dwell %s must not be negative", time.Duration(c.Dwell))
	}

	if c.Capacity <= 0 {
		e.ErrorString("capacity %d must be positive", c.Capacity)
	}
	if c.CarScale <= 0 {
		e.ErrorString("car_scale %g must be positive", c.CarScale)
	}
}

func (c *Config) SpeedLaw() motion.SpeedLaw {
	return motion.SpeedLaw{
		MinSpeed:      c.MinSpeed,
		MaxSpeed:      c.MaxSpeed,
		GravityFactor: c.GravityFactor,
		BrakeRate:     c.BrakeRate,
		ReturnSpeed:   c.ReturnSpeed,
		LaunchSpeed:   c.LaunchSpeed,
	}
}

func (c *Config) PolicyOptions() motion.Options {
	return motion.Options{
		SplineEpsilon:  c.SplineEpsilon,
		EvenSegments:   c.EvenSegments,
		ClosureEpsilon: c.ClosureEpsilon,
		SeekSmoothing:  c.SeekSmoothing,
	}
}

func (c *Config) seatSpacing() mgl32.Vec3 {
	return mgl32.Vec3(c.SeatSpacing)
}
