// track/path.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package track

import (
	"log/slog"
	"sort"

	"github.com/coastersim/coaster/math"

	"github.com/go-gl/mathgl/mgl32"
)

// Path is a closed loop of keypoints; segment i runs from Points[i] to
// Points[(i+1)%N]. It is immutable once built.
type Path struct {
	Points         []mgl32.Vec3 `msgpack:"points"`
	SegmentLengths []float32    `msgpack:"segment_lengths"`
	// CumulativeLengths[i] is the arc length from Points[0] to Points[i];
	// it has N+1 entries, the last being TotalLength.
	CumulativeLengths []float32 `msgpack:"cumulative_lengths"`
	TotalLength       float32   `msgpack:"total_length"`
}

// NewPath computes segment and cumulative arc lengths for the given
// ordered points, which are taken to form a loop.
func NewPath(points []mgl32.Vec3) *Path {
	n := len(points)
	p := &Path{
		Points:            points,
		SegmentLengths:    make([]float32, n),
		CumulativeLengths: make([]float32, n+1),
	}
	for i := range n {
		p.SegmentLengths[i] = math.Distance3f(points[i], points[(i+1)%n])
		p.TotalLength += p.SegmentLengths[i]
		p.CumulativeLengths[i+1] = p.TotalLength
	}
	return p
}

// Len returns the number of keypoints; nil paths have length 0.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Points)
}

// At returns the i'th keypoint with wraparound in both directions.
func (p *Path) At(i int) mgl32.Vec3 {
	return p.Points[math.Wrap(i, len(p.Points))]
}

// SegmentAt returns the index of the segment containing arc length s,
// which must be in [0, TotalLength).
func (p *Path) SegmentAt(s float32) int {
	// First cumulative length strictly greater than s; the segment
	// starts one before it.
	i := sort.Search(len(p.Points), func(i int) bool { return p.CumulativeLengths[i+1] > s })
	return math.Min(i, len(p.Points)-1)
}

func (p *Path) LogValue() slog.Value {
	if p == nil {
		return slog.GroupValue(slog.Int("keypoints", 0))
	}
	return slog.GroupValue(
		slog.Int("keypoints", p.Len()),
		slog.Float64("total_length", float64(p.TotalLength)))
}

// ReduceMode selects how raw vertices are reduced to keypoints.
type ReduceMode string

const (
	// ReduceChunks averages fixed-size chunks of consecutive vertices.
	ReduceChunks ReduceMode = "chunks"
	// ReducePairsMode takes midpoints of (left, right) rail vertex pairs.
	ReducePairsMode ReduceMode = "pairs"
)

type ReduceOptions struct {
	Mode      ReduceMode `json:"mode"`
	ChunkSize int        `json:"chunk_size"`
	MinDist   float32    `json:"min_dist"`
}

// Build reduces the raw vertices to keypoints, resolves their visiting
// order, and returns the resulting path.
func Build(points []mgl32.Vec3, opts ReduceOptions) *Path {
	var keypoints []mgl32.Vec3
	if opts.Mode == ReducePairsMode {
		keypoints = ReducePairs(points, opts.MinDist)
	} else {
		keypoints = Reduce(points, opts.ChunkSize)
	}
	return NewPath(Order(keypoints))
}
