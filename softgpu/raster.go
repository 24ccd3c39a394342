// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package softgpu

import (
	"fmt"

	"github.com/atwkit/atw/compositor"
	"github.com/atwkit/atw/distort"
	"github.com/atwkit/atw/math32"
)

// vertex is the output of the vertex stage in pixel coordinates.
type vertex struct {
	pos   math32.Vector3
	uv    [distort.NumChannels]math32.Vector2
	valid bool
}

// DrawIndexed runs the timewarp program over the given slice of the mesh
// into the current target, sampling the texture target of the draw call.
func (d *Device) DrawIndexed(dc *compositor.DrawCall) error {
	if _, ok := dc.Program.(*Program); !ok {
		return fmt.Errorf("softgpu: program %v was not compiled by this device", dc.Program)
	}
	mb, ok := dc.Mesh.(*MeshBuffers)
	if !ok {
		return fmt.Errorf("softgpu: mesh buffers were not uploaded to this device")
	}
	tex, ok := dc.Texture.(*Target)
	if !ok {
		return fmt.Errorf("softgpu: texture %v was not created by this device", dc.Texture)
	}
	if mb.released || tex.released {
		return ErrReleased
	}
	if tex == d.current {
		return fmt.Errorf("softgpu: texture %v is also the render target", tex)
	}
	if dc.IndexCount > mb.Indices.Len() || dc.IndexCount%3 != 0 {
		return fmt.Errorf("softgpu: index count %d out of range of %d indices", dc.IndexCount, mb.Indices.Len())
	}
	nv := mb.Positions.Len() / 3
	if dc.BaseVertex < 0 || dc.BaseVertex+mb.verticesPerEye > nv {
		return fmt.Errorf("softgpu: base vertex %d out of range of %d vertices", dc.BaseVertex, nv)
	}

	// uniforms go through the same block a hardware device uploads
	u, err := compositor.DecodeUniforms(dc.Uniforms.Bytes())
	if err != nil {
		return err
	}

	// vertex stage, run once per vertex of the slice
	verts := make([]vertex, mb.verticesPerEye)
	run := func(i uint32) (*vertex, error) {
		if int(i) >= len(verts) {
			return nil, fmt.Errorf("softgpu: index %d out of range of %d vertices per eye", i, len(verts))
		}
		v := &verts[i]
		if v.valid {
			return v, nil
		}
		vi := dc.BaseVertex + int(i)
		var pos math32.Vector3
		mb.Positions.GetVector3(vi*3, &pos)
		var uv [distort.NumChannels]math32.Vector2
		for c := range uv {
			mb.UV[c].GetVector2(vi*2, &uv[c])
		}
		clip, out := compositor.WarpVertex(pos, uv, &u)
		v.pos = d.current.toPixels(clip)
		v.uv = out
		v.valid = true
		return v, nil
	}

	for i := 0; i < dc.IndexCount; i += 3 {
		var tri [3]*vertex
		for k := range tri {
			v, err := run(mb.Indices[i+k])
			if err != nil {
				return err
			}
			tri[k] = v
		}
		d.current.fillTriangle(tri, func(uv [distort.NumChannels]math32.Vector2) math32.Vector4 {
			return compositor.ShadeFragment(uv, &u, tex)
		})
	}
	return nil
}

// toPixels maps a clip position to pixel coordinates, with y down,
// and depth in [0, 1].
func (t *Target) toPixels(clip math32.Vector4) math32.Vector3 {
	ndc := clip.PerspDiv()
	sz := t.Size()
	return math32.Vec3((ndc.X+1)*0.5*float32(sz.X), (1-ndc.Y)*0.5*float32(sz.Y), ndc.Z*0.5+0.5)
}

// edge returns twice the signed area of the triangle a, b, c.
func edge(a, b, c math32.Vector3) float32 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// fillTriangle rasterizes a triangle, covering the pixels whose centers
// are inside it, and shades each with the interpolated texture
// coordinates. Both windings are drawn.
func (t *Target) fillTriangle(tri [3]*vertex, shade func(uv [distort.NumChannels]math32.Vector2) math32.Vector4) {
	p0, p1, p2 := tri[0].pos, tri[1].pos, tri[2].pos
	area := edge(p0, p1, p2)
	if area == 0 {
		return
	}
	sz := t.Size()
	minX := max(int(math32.Floor(min(p0.X, p1.X, p2.X))), 0)
	maxX := min(int(math32.Floor(max(p0.X, p1.X, p2.X)))+1, sz.X)
	minY := max(int(math32.Floor(min(p0.Y, p1.Y, p2.Y))), 0)
	maxY := min(int(math32.Floor(max(p0.Y, p1.Y, p2.Y)))+1, sz.Y)

	var uv [distort.NumChannels]math32.Vector2
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			c := math32.Vec3(float32(x)+0.5, float32(y)+0.5, 0)
			b0 := edge(p1, p2, c) / area
			b1 := edge(p2, p0, c) / area
			b2 := edge(p0, p1, c) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}
			for ch := range uv {
				uv[ch] = tri[0].uv[ch].MulScalar(b0).Add(tri[1].uv[ch].MulScalar(b1)).Add(tri[2].uv[ch].MulScalar(b2))
			}
			depth := b0*p0.Z + b1*p1.Z + b2*p2.Z
			t.SetPixel(x, y, depth, shade(uv))
		}
	}
}
