// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package softgpu

import (
	"fmt"
	"image"
	"image/color"

	"github.com/atwkit/atw/math32"
)

// Target is a color and depth render target in memory.
// Color rows start at the top; texture coordinates used to sample
// it have v = 0 at the bottom.
type Target struct {

	// Color is the color buffer.
	Color *image.RGBA

	// Depth is the depth buffer, one value per pixel in row order.
	Depth []float32

	released bool
}

// NewTarget returns a new target of the given size, with transparent
// black color and depth at the far plane.
func NewTarget(size image.Point) *Target {
	t := &Target{
		Color: image.NewRGBA(image.Rectangle{Max: size}),
		Depth: make([]float32, size.X*size.Y),
	}
	for i := range t.Depth {
		t.Depth[i] = 1
	}
	return t
}

// Size returns the size of the target in pixels.
func (t *Target) Size() image.Point {
	return t.Color.Rect.Size()
}

func (t *Target) String() string {
	sz := t.Size()
	return fmt.Sprintf("%dx%d RGBA8 + Depth32F", sz.X, sz.Y)
}

// Release marks the target as released.
func (t *Target) Release() {
	t.released = true
}

// Clear sets all pixels to the given color and the depth to the far plane.
func (t *Target) Clear(c color.RGBA) {
	pix := t.Color.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	for i := range t.Depth {
		t.Depth[i] = 1
	}
}

// SetPixel sets the color of a pixel if depth is nearer than the
// stored depth.
func (t *Target) SetPixel(x, y int, depth float32, c math32.Vector4) {
	sz := t.Size()
	if x < 0 || y < 0 || x >= sz.X || y >= sz.Y {
		return
	}
	di := y*sz.X + x
	if depth > t.Depth[di] {
		return
	}
	t.Depth[di] = depth
	t.Color.SetRGBA(x, y, toRGBA(c))
}

// Sample returns the bilinearly filtered color at the given texture
// coordinates, clamped to the edges of the target.
func (t *Target) Sample(uv math32.Vector2) math32.Vector4 {
	sz := t.Size()
	x := uv.X*float32(sz.X) - 0.5
	y := (1-uv.Y)*float32(sz.Y) - 0.5
	x0 := math32.Floor(x)
	y0 := math32.Floor(y)
	fx := x - x0
	fy := y - y0
	ix, iy := int(x0), int(y0)
	c00 := t.texel(ix, iy)
	c10 := t.texel(ix+1, iy)
	c01 := t.texel(ix, iy+1)
	c11 := t.texel(ix+1, iy+1)
	return c00.Lerp(c10, fx).Lerp(c01.Lerp(c11, fx), fy)
}

// texel returns the color of a pixel, clamping to the edges.
func (t *Target) texel(x, y int) math32.Vector4 {
	sz := t.Size()
	x = math32.Clamp(x, 0, sz.X-1)
	y = math32.Clamp(y, 0, sz.Y-1)
	c := t.Color.RGBAAt(x, y)
	return math32.Vec4(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255)
}

// toRGBA converts a [0, 1] color to 8-bit components.
func toRGBA(c math32.Vector4) color.RGBA {
	conv := func(f float32) uint8 {
		return uint8(math32.Clamp(f, 0, 1)*255 + 0.5)
	}
	return color.RGBA{conv(c.X), conv(c.Y), conv(c.Z), conv(c.W)}
}
