// motion/policy.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package motion moves the vehicle along a track.Path. Interchangeable
// Policy implementations parameterize position along the loop, and a
// SpeedLaw integrates speed from the track slope.
package motion

import (
	"fmt"
	"slices"

	"github.com/coastersim/coaster/track"

	"github.com/go-gl/mathgl/mgl32"
)

// Policy parameterizes the vehicle's position along a closed path. All
// methods take the path explicitly; a Policy only stores its own
// progress parameter. Callers must not invoke the mutators on paths with
// fewer than MinPoints keypoints.
type Policy interface {
	Name() string
	// MinPoints returns the smallest path the policy can traverse.
	MinPoints() int
	// Reset returns the policy to the start of the path.
	Reset()
	// Advance moves forward dist units of arc length, wrapping around the
	// loop.
	Advance(p *track.Path, dist float32)
	// Retreat moves backward dist units, stopping at the start of the
	// path; it returns true once the start has been reached.
	Retreat(p *track.Path, dist float32) bool
	Position(p *track.Path) mgl32.Vec3
	// Forward returns the unit direction of forward travel along the track.
	Forward(p *track.Path) mgl32.Vec3
	// Segment returns the keypoints bounding the current position, in
	// track order.
	Segment(p *track.Path) (from, to mgl32.Vec3)
	// Progress returns the fraction of the loop traversed, in [0,1).
	Progress(p *track.Path) float32
}

// timestepped is implemented by policies whose update depends on the
// elapsed time as well as the distance travelled.
type timestepped interface {
	SetTimestep(dt float32)
}

const (
	PolicySpline    = "spline"
	PolicyArcLength = "arclength"
	PolicySeek      = "seek"
)

// Options collects the tunables for the policies.
type Options struct {
	SplineEpsilon  float32
	EvenSegments   bool
	ClosureEpsilon float32
	SeekSmoothing  float32
}

func DefaultOptions() Options {
	return Options{
		SplineEpsilon:  0.01,
		ClosureEpsilon: 0.05,
		SeekSmoothing:  8,
	}
}

// PolicyNames returns the names accepted by PolicyByName.
func PolicyNames() []string {
	return []string{PolicyArcLength, PolicySeek, PolicySpline}
}

// PolicyByName returns a new policy at the start of the path.
func PolicyByName(name string, opts Options) (Policy, error) {
	switch name {
	case PolicySpline:
		return &Spline{Epsilon: opts.SplineEpsilon}, nil
	case PolicyArcLength, "":
		return &ArcLength{EvenSegments: opts.EvenSegments}, nil
	case PolicySeek:
		return &Seek{Epsilon: opts.ClosureEpsilon, Smoothing: opts.SeekSmoothing}, nil
	default:
		return nil, fmt.Errorf("%s: unknown motion policy; expected one of %v", name, PolicyNames())
	}
}

// ValidPolicy reports whether PolicyByName accepts name.
func ValidPolicy(name string) bool {
	return name == "" || slices.Contains(PolicyNames(), name)
}
