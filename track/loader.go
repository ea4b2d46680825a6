// track/loader.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package track turns a mesh description of a closed track into an
// ordered, cyclic path of keypoints that the vehicle can follow.
package track

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	gomath "math"
	"strconv"
	"strings"

	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/util"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexRecord is the line marker for vertex positions in OBJ files.
const VertexRecord = "v"

// ParseOBJ returns the vertex positions in the given OBJ mesh
// description. Only vertex records are consumed; faces, normals, texture
// coordinates, groups and comments are ignored. A vertex record with
// missing or non-finite coordinates makes the whole source malformed:
// every such record is reported in the returned error and no points are
// returned.
func ParseOBJ(r io.Reader) ([]mgl32.Vec3, error) {
	var points []mgl32.Vec3
	var e util.ErrorLogger

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != VertexRecord {
			continue
		}

		e.Push(fmt.Sprintf("line %d", lineno))
		if p, err := parseVertex(fields[1:]); err != nil {
			e.Error(err)
		} else {
			points = append(points, p)
		}
		e.Pop()
	}
	if err := scanner.Err(); err != nil {
		e.Error(err)
	}

	if e.HaveErrors() {
		return nil, e.Err()
	}
	return points, nil
}

func parseVertex(fields []string) (mgl32.Vec3, error) {
	// Some exporters append a w coordinate or vertex colors; only the
	// first three are positions.
	if len(fields) < 3 {
		return mgl32.Vec3{}, fmt.Errorf("expected 3 coordinates, got %d", len(fields))
	}
	var p mgl32.Vec3
	for i := range 3 {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return mgl32.Vec3{}, fmt.Errorf("%q: invalid coordinate", fields[i])
		} else if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return mgl32.Vec3{}, fmt.Errorf("%q: coordinate is not finite", fields[i])
		}
		p[i] = float32(v)
	}
	return p, nil
}

// LoadPoints reads the vertices of the OBJ file at path (which may be
// zstd compressed). An unreadable or malformed source yields an empty
// point set; the problem is logged but is not fatal since downstream
// stages treat too few points as an idle track.
func LoadPoints(path string, lg *log.Logger) []mgl32.Vec3 {
	r, err := util.OpenResource(path)
	if err != nil {
		lg.Warn("unable to open track source", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	defer r.Close()

	points, err := ParseOBJ(r)
	if err != nil {
		lg.Warn("malformed track source", slog.String("path", path), slog.Any("error", err))
		return nil
	}

	lg.Info("loaded track vertices", slog.String("path", path), slog.Int("vertices", len(points)))
	if hasLeft, hasRight := EdgeSides(points); hasLeft && hasRight {
		lg.Debug("track has left and right edges")
	} else {
		lg.Debug("track edges not clearly defined")
	}
	return points
}

// EdgeSides reports whether any vertex lies on either side of the x=0
// plane; meshes modelled as left/right rails around the origin have both.
func EdgeSides(points []mgl32.Vec3) (hasLeft, hasRight bool) {
	for _, p := range points {
		if p.X() < 0 {
			hasLeft = true
		}
		if p.X() > 0 {
			hasRight = true
		}
	}
	return
}
