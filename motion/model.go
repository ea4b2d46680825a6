// motion/model.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package motion

import (
	"log/slog"
	gomath "math"

	"github.com/coastersim/coaster/math"
	"github.com/coastersim/coaster/track"

	"github.com/go-gl/mathgl/mgl32"
)

// State is the vehicle's kinematic state as seen by renderers.
type State struct {
	Progress float32    `json:"progress"`
	Position mgl32.Vec3 `json:"position"`
	Forward  mgl32.Vec3 `json:"forward"`
	Speed    float32    `json:"speed"`
}

func (s State) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("progress", float64(s.Progress)),
		slog.Any("position", s.Position),
		slog.Float64("speed", float64(s.Speed)))
}

// Model couples a Policy with the path it follows and the speed law.
// Paths too short for the policy leave the vehicle parked at the origin:
// speed is still integrated so that braking completes, but the position
// never changes and the vehicle is always at the start.
type Model struct {
	Law    SpeedLaw
	path   *track.Path
	policy Policy
	speed  float32
}

func NewModel(p *track.Path, policy Policy, law SpeedLaw) *Model {
	policy.Reset()
	return &Model{Law: law, path: p, policy: policy}
}

func (m *Model) Path() *track.Path { return m.path }
func (m *Model) Policy() Policy    { return m.policy }

// Usable reports whether the path has enough keypoints for the policy
// and a finite length. Paths with non-finite coordinates can come from
// a stale cache or be built by hand; the vehicle never moves on them.
func (m *Model) Usable() bool {
	if m.path.Len() < m.policy.MinPoints() {
		return false
	}
	l := float64(m.path.TotalLength)
	return !gomath.IsNaN(l) && !gomath.IsInf(l, 0)
}

func (m *Model) setTimestep(dt float32) {
	if ts, ok := m.policy.(timestepped); ok {
		ts.SetTimestep(dt)
	}
}

// Drive applies the slope law and moves forward.
func (m *Model) Drive(dt float32) {
	if !m.Usable() {
		return
	}
	from, to := m.policy.Segment(m.path)
	m.speed = m.Law.Accelerate(m.speed, to.Y()-from.Y(), dt)
	m.setTimestep(dt)
	m.policy.Advance(m.path, m.speed*dt)
}

// Coast brakes and moves forward with whatever speed remains. It
// returns true once the vehicle has stopped.
func (m *Model) Coast(dt float32) bool {
	m.speed = m.Law.Brake(m.speed, dt)
	if m.Usable() {
		m.setTimestep(dt)
		m.policy.Advance(m.path, m.speed*dt)
	}
	return m.speed == 0
}

// Reverse moves backward toward the start of the path at the current
// speed and returns true once the start has been reached.
func (m *Model) Reverse(dt float32) bool {
	if !m.Usable() {
		return true
	}
	m.setTimestep(dt)
	return m.policy.Retreat(m.path, m.speed*dt)
}

// Hold stops the vehicle in place.
func (m *Model) Hold() {
	m.speed = 0
}

func (m *Model) SetSpeed(s float32) {
	m.speed = math.Max(0, s)
}

func (m *Model) Speed() float32 { return m.speed }

// Reset returns the vehicle to the start of the path at rest.
func (m *Model) Reset() {
	m.policy.Reset()
	m.speed = 0
}

func (m *Model) State() State {
	if !m.Usable() {
		return State{Speed: m.speed}
	}
	return State{
		Progress: m.policy.Progress(m.path),
		Position: m.policy.Position(m.path),
		Forward:  m.policy.Forward(m.path),
		Speed:    m.speed,
	}
}

// Yaw returns the heading about the y axis in degrees; zero faces +z.
func (m *Model) Yaw() float32 {
	if !m.Usable() {
		return 0
	}
	return math.YawDegrees(m.policy.Forward(m.path))
}
