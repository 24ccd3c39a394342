// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distort

import (
	"math"
	"slices"
	"testing"

	"github.com/atwkit/atw/base/tolassert"
	"github.com/atwkit/atw/hmd"
	"github.com/atwkit/atw/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitProfile is a single tile per eye with no distortion, whose
// tan-angle range is exactly [-1, 1] on both axes.
func unitProfile() *hmd.OpticalProfile {
	return &hmd.OpticalProfile{
		DisplayPixelsWide:         4,
		DisplayPixelsHigh:         2,
		TilePixelsWide:            2,
		TilePixelsHigh:            2,
		EyeTilesWide:              1,
		EyeTilesHigh:              1,
		VisiblePixelsWide:         4,
		VisiblePixelsHigh:         2,
		VisibleMetersWide:         0.4,
		VisibleMetersHigh:         0.2,
		LensSeparationInMeters:    0.2,
		MetersPerTanAngleAtCenter: 0.1,
		K:                         []float32{1, 1},
	}
}

func TestUnitMesh(t *testing.T) {
	m, err := BuildDistortionMesh(unitProfile())
	require.NoError(t, err)
	assert.Equal(t, 4, m.VerticesPerEye())
	assert.Equal(t, 6, m.IndexCount())

	corners := []math32.Vector2{{X: -1, Y: 1}, {X: 1, Y: 1}, {X: -1, Y: -1}, {X: 1, Y: -1}}
	for eye := range NumEyes {
		for c := range NumChannels {
			uv := m.UV[eye][c]
			require.Len(t, uv, 4)
			for i, want := range corners {
				tolassert.EqualTol(t, want.X, uv[i].X, 1e-6, "%v %v %d", Eye(eye), Channel(c), i)
				tolassert.EqualTol(t, want.Y, uv[i].Y, 1e-6, "%v %v %d", Eye(eye), Channel(c), i)
			}
		}
	}

	assert.Equal(t, []math32.Vector3{
		{X: -1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: -1, Y: -1, Z: 0}, {X: 0, Y: -1, Z: 0},
		{X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: -1, Z: 0}, {X: 1, Y: -1, Z: 0},
	}, m.Positions)
	assert.Equal(t, []uint32{0, 2, 1, 1, 2, 3}, m.Indices)
}

func TestCounts(t *testing.T) {
	p := hmd.Default()
	m, err := BuildDistortionMesh(p)
	require.NoError(t, err)

	nv := (p.EyeTilesHigh + 1) * (p.EyeTilesWide + 1)
	assert.Equal(t, nv, m.VerticesPerEye())
	assert.Equal(t, p.VerticesPerEye(), m.VerticesPerEye())
	assert.Len(t, m.Positions, 2*nv)
	assert.Len(t, m.Indices, p.EyeTilesHigh*p.EyeTilesWide*6)
	for eye := range NumEyes {
		for c := range NumChannels {
			assert.Len(t, m.UV[eye][c], nv)
		}
	}
	for _, idx := range m.Indices {
		assert.Less(t, idx, uint32(nv))
	}

	assert.Equal(t, 2*nv*3, m.PositionArray().Len())
	assert.Equal(t, len(m.Indices), m.IndexArray().Len())
	assert.Equal(t, 0, m.BaseVertex(Left))
	assert.Equal(t, nv, m.BaseVertex(Right))
}

func TestTopology(t *testing.T) {
	p := hmd.DefaultFor(640, 320)
	m, err := BuildDistortionMesh(p)
	require.NoError(t, err)

	type tri [3]uint32
	seen := map[tri]bool{}
	edges := map[[2]uint32]int{}
	for i := 0; i < len(m.Indices); i += 3 {
		tr := tri{m.Indices[i], m.Indices[i+1], m.Indices[i+2]}
		key := tr
		slices.Sort(key[:])
		assert.False(t, seen[key], "duplicate triangle %v", tr)
		seen[key] = true
		for e := range 3 {
			a, b := tr[e], tr[(e+1)%3]
			edges[[2]uint32{min(a, b), max(a, b)}]++
		}
	}
	assert.Len(t, seen, 2*m.TilesWide*m.TilesHigh)
	for e, n := range edges {
		assert.LessOrEqual(t, n, 2, "edge %v", e)
	}

	// both triangles of a cell share the diagonal (x+1, y) - (x, y+1)
	w := uint32(m.TilesWide + 1)
	for y := range uint32(m.TilesHigh) {
		for x := range uint32(m.TilesWide) {
			a, b := y*w+x+1, (y+1)*w+x
			assert.GreaterOrEqual(t, edges[[2]uint32{min(a, b), max(a, b)}], 2)
		}
	}
}

func TestChannelSymmetry(t *testing.T) {
	p := hmd.Default()
	p.ChromaticAberration = [4]float32{}
	m, err := BuildDistortionMesh(p)
	require.NoError(t, err)
	for eye := range NumEyes {
		assert.Equal(t, m.UV[eye][Green], m.UV[eye][Red])
		assert.Equal(t, m.UV[eye][Green], m.UV[eye][Blue])
	}
}

func TestChromaticAberration(t *testing.T) {
	p := hmd.Default()
	m, err := BuildDistortionMesh(p)
	require.NoError(t, err)
	ca := p.ChromaticAberration
	for i := 0; i < m.VerticesPerEye(); i += 37 {
		g := m.UV[Left][Green][i]
		r := m.UV[Left][Red][i]
		b := m.UV[Left][Blue][i]
		if math32.Abs(g.X) > 1e-3 {
			assert.Less(t, math32.Abs(r.X), math32.Abs(g.X)+1e-6)
			assert.Greater(t, math32.Abs(b.X), math32.Abs(g.X)-1e-6)
			tolassert.EqualTol(t, 1+ca[0], r.X/g.X, 1e-4)
			tolassert.EqualTol(t, 1+ca[2], b.X/g.X, 1e-4)
		}
	}
}

func TestEyeMirror(t *testing.T) {
	p := hmd.Default()
	p.LensSeparationInMeters = 0.0635
	m, err := BuildDistortionMesh(p)
	require.NoError(t, err)

	w := m.TilesWide + 1
	nv := m.VerticesPerEye()
	for y := 0; y <= m.TilesHigh; y++ {
		for x := 0; x < w; x++ {
			l := m.UV[Left][Green][y*w+x]
			r := m.UV[Right][Green][y*w+(w-1-x)]
			tolassert.EqualTol(t, -l.X, r.X, 1e-4)
			tolassert.EqualTol(t, l.Y, r.Y, 1e-4)

			lp := m.Positions[y*w+x]
			rp := m.Positions[nv+y*w+x]
			tolassert.EqualTol(t, lp.X+1, rp.X, 1e-6)
			assert.Equal(t, lp.Y, rp.Y)
			assert.Equal(t, float32(0), rp.Z)
		}
	}
	// the lens is not centered in the eye viewport
	assert.NotEqual(t, m.UV[Left][Green][0].X, -m.UV[Left][Green][w-1].X)
}

func TestPositionsCoverViewport(t *testing.T) {
	p := hmd.Default()
	m, err := BuildDistortionMesh(p)
	require.NoError(t, err)
	nv := m.VerticesPerEye()
	top := -1 + 2*float32(p.EyeTilesHigh*p.TilePixelsHigh)/float32(p.DisplayPixelsHigh)
	tolassert.EqualTol(t, top, m.Positions[0].Y, 1e-5)
	assert.Equal(t, float32(-1), m.Positions[nv-1].Y)
	assert.Equal(t, float32(-1), m.Positions[0].X)
	assert.Equal(t, float32(0), m.Positions[m.TilesWide].X)
	assert.Equal(t, float32(1), m.Positions[2*nv-1].X)
}

func TestUVArrayLayout(t *testing.T) {
	m, err := BuildDistortionMesh(hmd.DefaultFor(640, 320))
	require.NoError(t, err)
	nv := m.VerticesPerEye()
	for c := range NumChannels {
		a := m.UVArray(Channel(c))
		require.Equal(t, 2*nv*2, a.Len())
		var v math32.Vector2
		a.GetVector2(m.BaseVertex(Right)*2, &v)
		assert.Equal(t, m.UV[Right][c][0], v)
		a.GetVector2(0, &v)
		assert.Equal(t, m.UV[Left][c][0], v)
	}
}

func TestBuildErrors(t *testing.T) {
	p := unitProfile()
	p.K = []float32{1}
	_, err := BuildDistortionMesh(p)
	assert.ErrorIs(t, err, hmd.ErrTooFewKnots)

	p = unitProfile()
	p.EyeTilesHigh = 0
	_, err = BuildDistortionMesh(p)
	assert.ErrorIs(t, err, hmd.ErrZeroTiles)

	p = unitProfile()
	p.MetersPerTanAngleAtCenter = 0
	_, err = BuildDistortionMesh(p)
	assert.ErrorIs(t, err, hmd.ErrInvalidGeometry)

	p = unitProfile()
	p.MetersPerTanAngleAtCenter = float32(math.NaN())
	assert.NotPanics(t, func() { _, err = BuildDistortionMesh(p) })
	assert.ErrorIs(t, err, hmd.ErrInvalidGeometry)

	p = unitProfile()
	p.K = []float32{1, float32(math.Inf(1))}
	_, err = BuildDistortionMesh(p)
	assert.ErrorIs(t, err, hmd.ErrInvalidKnots)
}

func TestDeterministic(t *testing.T) {
	p := hmd.Default()
	k := slices.Clone(p.K)
	before := *p
	m1, err := BuildDistortionMesh(p)
	require.NoError(t, err)
	m2, err := BuildDistortionMesh(p)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
	assert.Equal(t, k, p.K)
	assert.Equal(t, before, *p)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "Right", Right.String())
	assert.Equal(t, "Blue", Blue.String())
	assert.Equal(t, "Channel(7)", Channel(7).String())
}
