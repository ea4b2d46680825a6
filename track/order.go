// track/order.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package track

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Order returns the keypoints in greedy nearest-neighbor visiting order:
// starting from keypoints[0], it repeatedly appends the closest
// not-yet-visited keypoint. This approximates the loop the keypoints
// were sampled from but is not guaranteed to be the shortest tour; ties
// go to the lowest index.
func Order(keypoints []mgl32.Vec3) []mgl32.Vec3 {
	n := len(keypoints)
	if n == 0 {
		return nil
	}

	visited := make([]bool, n)
	ordered := make([]mgl32.Vec3, 0, n)

	cur := 0
	visited[cur] = true
	ordered = append(ordered, keypoints[cur])

	for len(ordered) < n {
		next, best := -1, float32(gomath.MaxFloat32)
		for i, kp := range keypoints {
			if visited[i] {
				continue
			}
			// Squared distance orders the same as distance.
			d := kp.Sub(keypoints[cur])
			if dsq := d.Dot(d); next == -1 || dsq < best {
				next, best = i, dsq
			}
		}

		visited[next] = true
		ordered = append(ordered, keypoints[next])
		cur = next
	}
	return ordered
}
