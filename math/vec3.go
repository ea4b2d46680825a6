// math/vec3.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

///////////////////////////////////////////////////////////////////////////
// point 3f

// Distance3f returns the Euclidean distance between a and b.
func Distance3f(a, b mgl32.Vec3) float32 {
	return a.Sub(b).Len()
}

// Linearly interpolate x of the way between a and b. x==0 corresponds to
// a, x==1 corresponds to b, etc.
func Lerp3f(x float32, a, b mgl32.Vec3) mgl32.Vec3 {
	return a.Mul(1 - x).Add(b.Mul(x))
}

// Normalize3f normalizes v, returning the zero vector (rather than NaNs)
// for zero-length input.
func Normalize3f(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// Centroid3f returns the arithmetic mean of the points; the zero vector
// for an empty slice.
func Centroid3f(p []mgl32.Vec3) mgl32.Vec3 {
	if len(p) == 0 {
		return mgl32.Vec3{}
	}
	var sum mgl32.Vec3
	for _, v := range p {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float32(len(p)))
}

// CatmullRom evaluates the uniform Catmull-Rom spline through p1 and p2
// with neighbors p0 and p3 at parameter u in [0,1]; u==0 gives p1 and
// u==1 gives p2.
func CatmullRom(u float32, p0, p1, p2, p3 mgl32.Vec3) mgl32.Vec3 {
	u2 := u * u
	u3 := u2 * u

	a := p1.Mul(2)
	b := p2.Sub(p0).Mul(u)
	c := p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3).Mul(u2)
	d := p1.Mul(3).Sub(p0).Sub(p2.Mul(3)).Add(p3).Mul(u3)

	return a.Add(b).Add(c).Add(d).Mul(0.5)
}

// YawDegrees returns the heading of the forward vector f about the +y
// axis, measured from +z toward +x.
func YawDegrees(f mgl32.Vec3) float32 {
	if f.X() == 0 && f.Z() == 0 {
		return 0
	}
	return Degrees(Atan2(f.X(), f.Z()))
}

// ModelMatrix returns translate(t) * rotateY(yawDegrees) * scale(s).
func ModelMatrix(t mgl32.Vec3, yawDegrees float32, s float32) mgl32.Mat4 {
	m := mgl32.Translate3D(t.X(), t.Y(), t.Z())
	m = m.Mul4(mgl32.HomogRotate3DY(Radians(yawDegrees)))
	return m.Mul4(mgl32.Scale3D(s, s, s))
}
