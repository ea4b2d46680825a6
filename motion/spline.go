// motion/spline.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package motion

import (
	"github.com/coastersim/coaster/math"
	"github.com/coastersim/coaster/track"

	"github.com/go-gl/mathgl/mgl32"
)

// Spline follows a Catmull-Rom curve through the keypoints. Distance is
// consumed using the chord length of each segment, so speed along the
// curve is approximate.
type Spline struct {
	// Epsilon is the parameter offset used to estimate the tangent.
	Epsilon float32

	seg    int
	localT float32
}

func (s *Spline) Name() string   { return PolicySpline }
func (s *Spline) MinPoints() int { return 4 }

func (s *Spline) Reset() {
	s.seg, s.localT = 0, 0
}

func (s *Spline) Advance(p *track.Path, dist float32) {
	if p.TotalLength <= 0 || dist <= 0 {
		return
	}
	// Whole loops don't change anything.
	dist = math.Mod(dist, p.TotalLength)

	n := p.Len()
	for dist > 0 {
		segLen := p.SegmentLengths[s.seg]
		if segLen == 0 {
			s.seg, s.localT = (s.seg+1)%n, 0
			continue
		}

		if remain := (1 - s.localT) * segLen; dist < remain {
			s.localT += dist / segLen
			dist = 0
		} else {
			dist -= remain
			s.seg, s.localT = (s.seg+1)%n, 0
		}
	}
}

func (s *Spline) Retreat(p *track.Path, dist float32) bool {
	for dist > 0 && !s.atStart() {
		segLen := p.SegmentLengths[s.seg]
		back := s.localT * segLen
		if segLen > 0 && dist < back {
			s.localT -= dist / segLen
			return false
		}
		dist -= back

		if s.seg == 0 {
			s.localT = 0
		} else {
			s.seg, s.localT = s.seg-1, 1
		}
	}
	return s.atStart()
}

func (s *Spline) atStart() bool {
	return s.seg == 0 && s.localT <= 0
}

func (s *Spline) eval(p *track.Path, u float32) mgl32.Vec3 {
	return math.CatmullRom(u, p.At(s.seg-1), p.At(s.seg), p.At(s.seg+1), p.At(s.seg+2))
}

func (s *Spline) Position(p *track.Path) mgl32.Vec3 {
	return s.eval(p, s.localT)
}

func (s *Spline) Forward(p *track.Path) mgl32.Vec3 {
	d := s.eval(p, s.localT+s.Epsilon).Sub(s.eval(p, s.localT))
	if d.Len() < 1e-6 {
		// Degenerate tangent; use the chord.
		d = p.At(s.seg + 1).Sub(p.At(s.seg))
	}
	return math.Normalize3f(d)
}

func (s *Spline) Segment(p *track.Path) (mgl32.Vec3, mgl32.Vec3) {
	return p.At(s.seg), p.At(s.seg + 1)
}

func (s *Spline) Progress(p *track.Path) float32 {
	if p.TotalLength <= 0 {
		return 0
	}
	arc := p.CumulativeLengths[s.seg] + s.localT*p.SegmentLengths[s.seg]
	return math.Mod(arc/p.TotalLength, 1)
}
