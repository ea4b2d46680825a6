// motion/seek.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package motion

import (
	"github.com/coastersim/coaster/math"
	"github.com/coastersim/coaster/track"

	"github.com/go-gl/mathgl/mgl32"
)

// Seek steers toward one keypoint at a time. Its heading is low-pass
// filtered toward the target so that turns at keypoints are smoothed;
// the vehicle snaps onto a keypoint once it is within Epsilon of it.
type Seek struct {
	// Epsilon is the distance at which a target counts as reached.
	Epsilon float32
	// Smoothing is the rate (per second) at which the heading turns
	// toward the target.
	Smoothing float32

	target      int
	pos         mgl32.Vec3
	heading     mgl32.Vec3 // direction of travel
	reverse     bool
	dt          float32
	initialized bool
}

// Cosine of the smallest turn (120 degrees) that is taken immediately
// rather than smoothed. Smoothing a heading toward a target behind it
// barely turns it, and lerping between opposite directions doesn't turn
// it at all.
const sharpTurnCos = -0.5

func (s *Seek) Name() string   { return PolicySeek }
func (s *Seek) MinPoints() int { return 2 }

func (s *Seek) Reset() {
	*s = Seek{Epsilon: s.Epsilon, Smoothing: s.Smoothing, dt: s.dt}
}

func (s *Seek) SetTimestep(dt float32) { s.dt = dt }

func (s *Seek) init(p *track.Path) {
	if !s.initialized {
		s.pos = p.At(0)
		s.target = 1 % p.Len()
		s.heading = math.Normalize3f(p.At(1).Sub(p.At(0)))
		s.initialized = true
	}
}

// step moves up to dist toward the current target and reports whether
// the target was reached.
func (s *Seek) step(p *track.Path, dist float32) bool {
	tp := p.At(s.target)
	d := tp.Sub(s.pos)
	remaining := d.Len()
	if remaining <= s.Epsilon || dist >= remaining {
		s.pos = tp
		return true
	}

	desired := d.Mul(1 / remaining)
	alpha := float32(1)
	if s.dt > 0 {
		alpha = math.Clamp(s.Smoothing*s.dt, 0, 1)
	}
	if s.heading.Dot(desired) <= sharpTurnCos {
		s.heading = desired
	} else if h := math.Lerp3f(alpha, s.heading, desired); h.Len() > 1e-6 {
		s.heading = h.Normalize()
	} else {
		s.heading = desired
	}
	s.pos = s.pos.Add(s.heading.Mul(math.Min(remaining, dist)))
	return false
}

func (s *Seek) Advance(p *track.Path, dist float32) {
	s.init(p)
	if s.reverse {
		s.reverse = false
		s.target = math.Wrap(s.target+1, p.Len())
		s.heading = s.heading.Mul(-1)
	}
	if s.step(p, dist) {
		s.target = (s.target + 1) % p.Len()
	}
}

func (s *Seek) Retreat(p *track.Path, dist float32) bool {
	s.init(p)
	if !s.reverse {
		s.reverse = true
		s.target = math.Wrap(s.target-1, p.Len())
		s.heading = s.heading.Mul(-1)
	}
	if s.step(p, dist) {
		if s.target == 0 {
			return true
		}
		s.target--
	}
	return false
}

func (s *Seek) Position(p *track.Path) mgl32.Vec3 {
	s.init(p)
	return s.pos
}

func (s *Seek) Forward(p *track.Path) mgl32.Vec3 {
	s.init(p)
	if s.reverse {
		return s.heading.Mul(-1)
	}
	return s.heading
}

// segmentIndex returns the index of the track segment being traversed.
func (s *Seek) segmentIndex(p *track.Path) int {
	if s.reverse {
		return s.target
	}
	return math.Wrap(s.target-1, p.Len())
}

func (s *Seek) Segment(p *track.Path) (mgl32.Vec3, mgl32.Vec3) {
	s.init(p)
	i := s.segmentIndex(p)
	return p.At(i), p.At(i + 1)
}

func (s *Seek) Progress(p *track.Path) float32 {
	if p.TotalLength <= 0 {
		return 0
	}
	s.init(p)
	i := s.segmentIndex(p)
	along := math.Min(math.Distance3f(p.At(i), s.pos), p.SegmentLengths[i])
	return math.Mod((p.CumulativeLengths[i]+along)/p.TotalLength, 1)
}
