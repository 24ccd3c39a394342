// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package distort builds the lens distortion mesh of a head-mounted
// display: a grid per eye whose texture coordinates encode the inverse
// of the lens distortion, separately for each color channel so that
// chromatic aberration is corrected at the same time.
package distort

import (
	"fmt"
	"log/slog"

	"github.com/atwkit/atw/hmd"
	"github.com/atwkit/atw/math32"
	"github.com/atwkit/atw/spline"
)

// Eye identifies one of the two eyes.
type Eye int

const (
	// Left is eye 0, drawn into the left half of the display.
	Left Eye = iota

	// Right is eye 1, drawn into the right half of the display.
	Right
)

// NumEyes is the number of eyes.
const NumEyes = hmd.NumEyes

func (e Eye) String() string {
	switch e {
	case Left:
		return "Left"
	case Right:
		return "Right"
	}
	return fmt.Sprintf("Eye(%d)", int(e))
}

// Channel identifies a color channel.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// NumChannels is the number of color channels.
const NumChannels = 3

func (c Channel) String() string {
	switch c {
	case Red:
		return "Red"
	case Green:
		return "Green"
	case Blue:
		return "Blue"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// Mesh is the distortion mesh of both eyes. It is built once by
// [BuildDistortionMesh] and is read-only afterwards.
type Mesh struct {

	// TilesWide and TilesHigh are the number of grid cells of one eye.
	TilesWide, TilesHigh int

	// UV are the tan-angle texture coordinates per eye and channel,
	// each of length [Mesh.VerticesPerEye], in row-major grid order.
	UV [NumEyes][NumChannels][]math32.Vector2

	// Positions are the undistorted screen positions of the vertices
	// of eye 0 followed by those of eye 1.
	Positions []math32.Vector3

	// Indices are the triangle indices of one eye. They are local to
	// an eye: the eye is selected by a base vertex of
	// eye*VerticesPerEye at draw time.
	Indices []uint32
}

// VerticesPerEye returns the number of vertices of one eye.
func (m *Mesh) VerticesPerEye() int {
	return (m.TilesHigh + 1) * (m.TilesWide + 1)
}

// IndexCount returns the number of indices shared by both eyes.
func (m *Mesh) IndexCount() int {
	return len(m.Indices)
}

// BaseVertex returns the first vertex of the given eye.
func (m *Mesh) BaseVertex(eye Eye) int {
	return int(eye) * m.VerticesPerEye()
}

// PositionArray returns the positions of both eyes as a flat
// xyz array ready for upload.
func (m *Mesh) PositionArray() math32.ArrayF32 {
	a := math32.NewArrayF32(0, len(m.Positions)*3)
	a.AppendVector3(m.Positions...)
	return a
}

// UVArray returns the texture coordinates of the given channel for
// eye 0 followed by eye 1, as a flat uv array ready for upload.
// The layout matches [Mesh.PositionArray], so one base vertex
// selects the same eye in both.
func (m *Mesh) UVArray(c Channel) math32.ArrayF32 {
	a := math32.NewArrayF32(0, NumEyes*m.VerticesPerEye()*2)
	for eye := range NumEyes {
		a.AppendVector2(m.UV[eye][c]...)
	}
	return a
}

// IndexArray returns the indices ready for upload.
func (m *Mesh) IndexArray() math32.ArrayU32 {
	a := math32.NewArrayU32(0, len(m.Indices))
	a.Append(m.Indices...)
	return a
}

// vertexIndex returns the index of grid vertex (x, y) within one eye.
func (m *Mesh) vertexIndex(x, y int) uint32 {
	return uint32(y*(m.TilesWide+1) + x)
}

// BuildDistortionMesh builds the distortion mesh for the given profile.
// The profile is validated first, and is not modified.
func BuildDistortionMesh(p *hmd.OpticalProfile) (*Mesh, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("distort.BuildDistortionMesh: %w", err)
	}
	m := &Mesh{TilesWide: p.EyeTilesWide, TilesHigh: p.EyeTilesHigh}
	nv := m.VerticesPerEye()
	for eye := range NumEyes {
		for c := range NumChannels {
			m.UV[eye][c] = make([]math32.Vector2, nv)
		}
	}
	m.Positions = make([]math32.Vector3, NumEyes*nv)

	// shift of the lens center from the center of the eye viewport,
	// in units of the eye viewport width
	shiftMeters := p.LensSeparationInMeters/2 - p.VisibleMetersWide/4
	shift := shiftMeters / (p.VisibleMetersWide / 2)

	ndcToPixels := math32.Vec2(float32(p.VisiblePixelsWide)*0.25, float32(p.VisiblePixelsHigh)*0.5)
	pixelsToMeters := math32.Vec2(p.VisibleMetersWide/float32(p.VisiblePixelsWide), p.VisibleMetersHigh/float32(p.VisiblePixelsHigh))
	ca := p.ChromaticAberration

	tw := float32(m.TilesWide)
	th := float32(m.TilesHigh)
	// fraction of the display height covered by the tiles
	heightFrac := th * float32(p.TilePixelsHigh) / float32(p.DisplayPixelsHigh)

	for eye := range NumEyes {
		eyeShift := shift
		if eye == int(Right) {
			eyeShift = -shift
		}
		for y := 0; y <= m.TilesHigh; y++ {
			yf := 1 - float32(y)/th
			for x := 0; x <= m.TilesWide; x++ {
				xf := float32(x) / tw
				in := math32.Vec2(xf+eyeShift, yf)
				theta := tanAngle(in, ndcToPixels, pixelsToMeters, p.MetersPerTanAngleAtCenter)

				rsq := theta.LengthSquared()
				scale := spline.EvaluateScale(rsq, p.K)
				chroma := [NumChannels]float32{
					scale * (1 + ca[0] + rsq*ca[1]),
					scale,
					scale * (1 + ca[2] + rsq*ca[3]),
				}
				vi := m.vertexIndex(x, y)
				for c := range NumChannels {
					m.UV[eye][c][vi] = theta.MulScalar(chroma[c])
				}
				m.Positions[eye*nv+int(vi)] = math32.Vec3(
					-1+float32(eye)+float32(x)/tw,
					-1+2*((th-float32(y))/th)*heightFrac,
					0)
			}
		}
	}

	m.Indices = make([]uint32, 0, m.TilesHigh*m.TilesWide*6)
	for y := 0; y < m.TilesHigh; y++ {
		for x := 0; x < m.TilesWide; x++ {
			m.Indices = append(m.Indices,
				m.vertexIndex(x, y), m.vertexIndex(x, y+1), m.vertexIndex(x+1, y),
				m.vertexIndex(x+1, y), m.vertexIndex(x, y+1), m.vertexIndex(x+1, y+1))
		}
	}
	slog.Debug("built distortion mesh", "tiles", fmt.Sprintf("%dx%d", m.TilesWide, m.TilesHigh),
		"verticesPerEye", nv, "indices", len(m.Indices))
	return m, nil
}

// tanAngle maps a unit eye-viewport coordinate through NDC, pixels and
// meters to tan-angle units, independently per axis.
func tanAngle(in, ndcToPixels, pixelsToMeters math32.Vector2, metersPerTanAngle float32) math32.Vector2 {
	ndc := in.MulScalar(2).Sub(math32.Vec2(1, 1))
	meters := ndc.Mul(ndcToPixels).Mul(pixelsToMeters)
	return math32.Vec2(meters.X/metersPerTanAngle, meters.Y/metersPerTanAngle)
}
