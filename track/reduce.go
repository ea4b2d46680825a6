// track/reduce.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package track

import (
	"github.com/coastersim/coaster/math"

	"github.com/go-gl/mathgl/mgl32"
)

// Reduce partitions points into consecutive chunks of chunkSize (the
// last one may be shorter) and returns the centroid of each chunk, in
// chunk order.
func Reduce(points []mgl32.Vec3, chunkSize int) []mgl32.Vec3 {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	if len(points) == 0 {
		return nil
	}

	keypoints := make([]mgl32.Vec3, 0, (len(points)+chunkSize-1)/chunkSize)
	for start := 0; start < len(points); start += chunkSize {
		end := math.Min(start+chunkSize, len(points))
		keypoints = append(keypoints, math.Centroid3f(points[start:end]))
	}
	return keypoints
}

// ReducePairs treats the vertices as consecutive (left, right) rail
// pairs and returns the midpoint of each pair, skipping midpoints that
// are closer than minDist to the previously kept one.
func ReducePairs(points []mgl32.Vec3, minDist float32) []mgl32.Vec3 {
	if len(points) < 2 {
		return nil
	}

	last := math.Lerp3f(0.5, points[0], points[1])
	keypoints := []mgl32.Vec3{last}
	for i := 2; i+1 < len(points); i += 2 {
		center := math.Lerp3f(0.5, points[i], points[i+1])
		if math.Distance3f(center, last) >= minDist {
			keypoints = append(keypoints, center)
			last = center
		}
	}
	return keypoints
}
