// math/math_test.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func vecNear(a, b mgl32.Vec3, eps float32) bool {
	return Distance3f(a, b) <= eps
}

func TestCatmullRomEndpoints(t *testing.T) {
	p0 := mgl32.Vec3{-1, 0, 0}
	p1 := mgl32.Vec3{0, 0, 0}
	p2 := mgl32.Vec3{1, 2, 0}
	p3 := mgl32.Vec3{2, 2, 1}

	if p := CatmullRom(0, p0, p1, p2, p3); !vecNear(p, p1, 1e-6) {
		t.Errorf("u=0: got %v, expected %v", p, p1)
	}
	if p := CatmullRom(1, p0, p1, p2, p3); !vecNear(p, p2, 1e-5) {
		t.Errorf("u=1: got %v, expected %v", p, p2)
	}
}

func TestCatmullRomCollinear(t *testing.T) {
	// Evenly spaced collinear control points give linear interpolation.
	p0, p1, p2, p3 := mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{3, 0, 0}
	for _, u := range []float32{0.1, 0.25, 0.5, 0.9} {
		p := CatmullRom(u, p0, p1, p2, p3)
		if expect := (mgl32.Vec3{1 + u, 0, 0}); !vecNear(p, expect, 1e-5) {
			t.Errorf("u=%f: got %v, expected %v", u, p, expect)
		}
	}
}

func TestMod(t *testing.T) {
	for _, tc := range []struct{ a, b, want float32 }{
		{0.25, 1, 0.25},
		{1.25, 1, 0.25},
		{-0.25, 1, 0.75},
		{3, 2, 1},
		{2, 2, 0},
	} {
		if got := Mod(tc.a, tc.b); Abs(got-tc.want) > 1e-6 {
			t.Errorf("Mod(%f, %f) = %f, expected %f", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestWrap(t *testing.T) {
	for _, tc := range []struct{ i, n, want int }{
		{0, 4, 0}, {5, 4, 1}, {-1, 4, 3}, {-5, 4, 3},
	} {
		if got := Wrap(tc.i, tc.n); got != tc.want {
			t.Errorf("Wrap(%d, %d) = %d, expected %d", tc.i, tc.n, got, tc.want)
		}
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid3f([]mgl32.Vec3{{0, 0, 0}, {2, 0, 0}, {1, 3, 0}})
	if !vecNear(c, mgl32.Vec3{1, 1, 0}, 1e-6) {
		t.Errorf("got centroid %v, expected (1,1,0)", c)
	}
	if c := Centroid3f(nil); c != (mgl32.Vec3{}) {
		t.Errorf("got centroid %v for empty input", c)
	}
}

func TestYawDegrees(t *testing.T) {
	for _, tc := range []struct {
		f    mgl32.Vec3
		want float32
	}{
		{mgl32.Vec3{0, 0, 1}, 0},
		{mgl32.Vec3{1, 0, 0}, 90},
		{mgl32.Vec3{-1, 0, 0}, -90},
		{mgl32.Vec3{0, 1, 0}, 0},
	} {
		if got := YawDegrees(tc.f); Abs(got-tc.want) > 1e-4 {
			t.Errorf("YawDegrees(%v) = %f, expected %f", tc.f, got, tc.want)
		}
	}
}

func TestModelMatrix(t *testing.T) {
	m := ModelMatrix(mgl32.Vec3{1, 2, 3}, 90, 2)
	// +z in model space rotates to +x, scaled by 2, then translated.
	p := m.Mul4x1(mgl32.Vec4{0, 0, 1, 1}).Vec3()
	if !vecNear(p, mgl32.Vec3{3, 2, 3}, 1e-5) {
		t.Errorf("got %v, expected (3,2,3)", p)
	}
}

func TestClampLerp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Errorf("Clamp mismatch")
	}
	if v := Lerp(0.25, 4, 8); v != 5 {
		t.Errorf("Lerp(0.25, 4, 8) = %f, expected 5", v)
	}
	if v := Lerp3f(0.5, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 4, 6}); v != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("Lerp3f = %v", v)
	}
}
