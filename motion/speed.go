// motion/speed.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package motion

import (
	"github.com/coastersim/coaster/math"
)

// SpeedLaw integrates vehicle speed. While driving, descending track
// accelerates and climbing decelerates; while braking, speed decays
// linearly.
type SpeedLaw struct {
	MinSpeed      float32
	MaxSpeed      float32
	GravityFactor float32
	BrakeRate     float32
	ReturnSpeed   float32
	LaunchSpeed   float32
}

// Accelerate returns the speed after dt seconds on a segment that rises
// by dy, clamped to [MinSpeed, MaxSpeed].
func (l SpeedLaw) Accelerate(speed, dy, dt float32) float32 {
	speed += -dy * l.GravityFactor * dt
	return math.Clamp(speed, l.MinSpeed, l.MaxSpeed)
}

// Brake returns the speed after braking for dt seconds; it never goes
// below zero.
func (l SpeedLaw) Brake(speed, dt float32) float32 {
	return math.Max(0, speed-l.BrakeRate*dt)
}
