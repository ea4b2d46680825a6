// motion/arclength.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package motion

import (
	"github.com/coastersim/coaster/math"
	"github.com/coastersim/coaster/track"

	"github.com/go-gl/mathgl/mgl32"
)

// ArcLength tracks a single parameter t in [0,1), the fraction of the
// loop's arc length traversed, and interpolates linearly between
// keypoints.
type ArcLength struct {
	// EvenSegments treats every segment as covering the same share of t
	// regardless of its length.
	EvenSegments bool

	t float32
}

func (a *ArcLength) Name() string   { return PolicyArcLength }
func (a *ArcLength) MinPoints() int { return 2 }
func (a *ArcLength) Reset()         { a.t = 0 }

func (a *ArcLength) Advance(p *track.Path, dist float32) {
	if p.TotalLength <= 0 {
		return
	}
	a.t = math.Mod(a.t+dist/p.TotalLength, 1)
}

func (a *ArcLength) Retreat(p *track.Path, dist float32) bool {
	if p.TotalLength > 0 {
		a.t -= dist / p.TotalLength
	}
	if a.t <= 0 {
		a.t = 0
		return true
	}
	return false
}

// locate returns the current segment and the blend factor within it.
func (a *ArcLength) locate(p *track.Path) (int, float32) {
	n := p.Len()
	if a.EvenSegments {
		f := a.t * float32(n)
		i := math.Min(int(math.Floor(f)), n-1)
		return i, f - float32(i)
	}

	s := a.t * p.TotalLength
	i := p.SegmentAt(s)
	if p.SegmentLengths[i] == 0 {
		return i, 0
	}
	return i, math.Clamp((s-p.CumulativeLengths[i])/p.SegmentLengths[i], 0, 1)
}

func (a *ArcLength) Position(p *track.Path) mgl32.Vec3 {
	i, alpha := a.locate(p)
	return math.Lerp3f(alpha, p.At(i), p.At(i+1))
}

func (a *ArcLength) Forward(p *track.Path) mgl32.Vec3 {
	i, _ := a.locate(p)
	return math.Normalize3f(p.At(i + 1).Sub(p.At(i)))
}

func (a *ArcLength) Segment(p *track.Path) (mgl32.Vec3, mgl32.Vec3) {
	i, _ := a.locate(p)
	return p.At(i), p.At(i + 1)
}

func (a *ArcLength) Progress(p *track.Path) float32 {
	return a.t
}
