// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compositor

import (
	"github.com/atwkit/atw/distort"
	"github.com/atwkit/atw/math32"
)

// minDepth bounds the perspective divide of warped coordinates.
const minDepth = 1e-5

// Sampler samples a texture at [0, 1] texture coordinates,
// with v = 0 at the bottom.
type Sampler interface {
	Sample(uv math32.Vector2) math32.Vector4
}

// WarpVertex is the vertex stage of the timewarp program. It returns the
// clip position of the mesh vertex and its three channel texture
// coordinates warped by the transform interpolated between the start and
// end of scan-out at the horizontal display position of the vertex.
func WarpVertex(pos math32.Vector3, uv [distort.NumChannels]math32.Vector2, u *Uniforms) (math32.Vector4, [distort.NumChannels]math32.Vector2) {
	fraction := pos.X*0.5 + 0.5
	var out [distort.NumChannels]math32.Vector2
	for c, tc := range uv {
		out[c] = WarpTexCoord(tc, fraction, u)
	}
	return math32.Vec4(pos.X, pos.Y, pos.Z, 1), out
}

// WarpTexCoord warps one tan-angle texture coordinate with the transform
// at the given fraction of scan-out.
func WarpTexCoord(uv math32.Vector2, fraction float32, u *Uniforms) math32.Vector2 {
	v := math32.Vector4FromVector2(uv, -1, 1)
	start := v.MulMatrix3x4(&u.TimeWarpStart)
	end := v.MulMatrix3x4(&u.TimeWarpEnd)
	cur := start.Lerp(end, fraction)
	z := math32.Max(cur.Z, minDepth)
	return math32.Vec2(cur.X/z, cur.Y/z)
}

// ShadeFragment is the fragment stage of the timewarp program. It samples
// the scene once per channel and keeps the matching color channel of each
// sample, or outputs the green texture coordinate in the debug view.
func ShadeFragment(uv [distort.NumChannels]math32.Vector2, u *Uniforms, s Sampler) math32.Vector4 {
	if u.DebugUV {
		return math32.Vec4(uv[distort.Green].X, uv[distort.Green].Y, 1, 1)
	}
	r := s.Sample(uv[distort.Red])
	g := s.Sample(uv[distort.Green])
	b := s.Sample(uv[distort.Blue])
	return math32.Vec4(r.X, g.Y, b.Z, 1)
}
