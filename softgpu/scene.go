// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package softgpu

import (
	"fmt"
	"image"

	"github.com/atwkit/atw/compositor"
	"github.com/atwkit/atw/math32"
	"golang.org/x/image/draw"
)

// currentTarget returns the current target of a software device.
func currentTarget(dev compositor.Device) (*Target, error) {
	d, ok := dev.(*Device)
	if !ok {
		return nil, fmt.Errorf("softgpu: scenes can only render on a software device, not %T", dev)
	}
	return d.current, nil
}

// forEachRay calls f with the world direction of the ray through the
// center of each pixel of t, for the given projection and view.
func forEachRay(t *Target, proj, view math32.Matrix4, f func(x, y int, dir math32.Vector3)) {
	inv := view.InverseHomogeneous()
	sz := t.Size()
	for y := 0; y < sz.Y; y++ {
		ndcY := 1 - 2*(float32(y)+0.5)/float32(sz.Y)
		for x := 0; x < sz.X; x++ {
			ndcX := 2*(float32(x)+0.5)/float32(sz.X) - 1
			eye := math32.Vec3((ndcX+proj[8])/proj[0], (ndcY+proj[9])/proj[5], -1)
			f(x, y, eye.MulMatrix4AsVector(&inv).Normal())
		}
	}
}

// EnvScene is an environment around the viewer, drawn as a
// latitude/longitude grid so that any rotation of the view is visible.
type EnvScene struct {

	// GridDegrees is the spacing of the grid lines in degrees.
	GridDegrees float32

	// LineDegrees is the width of the grid lines in degrees.
	LineDegrees float32
}

// NewEnvScene returns an environment with a 15 degree grid.
func NewEnvScene() *EnvScene {
	return &EnvScene{GridDegrees: 15, LineDegrees: 0.6}
}

// Render draws the environment into the current target.
func (s *EnvScene) Render(dev compositor.Device, proj, view math32.Matrix4) error {
	t, err := currentTarget(dev)
	if err != nil {
		return err
	}
	forEachRay(t, proj, view, func(x, y int, dir math32.Vector3) {
		t.SetPixel(x, y, 1, s.Color(dir))
	})
	return nil
}

// Color returns the color of the environment in the given unit direction.
// Grid lines are white; the cells are a checkerboard whose hue changes
// with the yaw of the direction, and the ground below the horizon is
// darker than the sky.
func (s *EnvScene) Color(dir math32.Vector3) math32.Vector4 {
	yaw := math32.RadToDeg(math32.Atan2(dir.X, -dir.Z)) + 180
	pitch := math32.RadToDeg(math32.Asin(math32.Clamp(dir.Y, -1, 1))) + 90
	if onLine(yaw, s.GridDegrees, s.LineDegrees) || onLine(pitch, s.GridDegrees, s.LineDegrees) {
		return math32.Vec4(1, 1, 1, 1)
	}
	cell := int(yaw/s.GridDegrees) + int(pitch/s.GridDegrees)
	quadrant := yaw / 360
	c := math32.Vec4(0.2+0.6*quadrant, 0.3, 0.8-0.6*quadrant, 1)
	if cell%2 == 0 {
		c = c.MulScalar(0.6)
		c.W = 1
	}
	if dir.Y < 0 {
		c = math32.Vec4(c.X*0.5, c.Y*0.7, c.Z*0.3, 1)
	}
	return c
}

// onLine reports whether a is within width/2 of a multiple of spacing.
func onLine(a, spacing, width float32) bool {
	m := math32.Mod(a, spacing)
	return m < width/2 || m > spacing-width/2
}

// ImageScene is a flat image facing the viewer, like a screen in a
// virtual room, in front of a plain background.
type ImageScene struct {

	// Image is the image shown.
	Image image.Image

	// Distance is the distance of the image plane along -Z.
	Distance float32

	// Width is the width of the image in world units. The height
	// follows from the aspect ratio of the image.
	Width float32

	// Background is the color around the image.
	Background math32.Vector4

	scaled *image.RGBA
}

// NewImageScene returns a scene showing the image 2 units wide at a
// distance of 1.5 units.
func NewImageScene(img image.Image) *ImageScene {
	return &ImageScene{Image: img, Distance: 1.5, Width: 2, Background: math32.Vec4(0.1, 0.1, 0.1, 1)}
}

// Render draws the image into the current target. The image is scaled
// once to the resolution of the target.
func (s *ImageScene) Render(dev compositor.Device, proj, view math32.Matrix4) error {
	t, err := currentTarget(dev)
	if err != nil {
		return err
	}
	sz := t.Size()
	if s.scaled == nil || s.scaled.Rect.Size() != sz {
		s.scaled = image.NewRGBA(image.Rectangle{Max: sz})
		draw.BiLinear.Scale(s.scaled, s.scaled.Rect, s.Image, s.Image.Bounds(), draw.Src, nil)
	}
	ib := s.Image.Bounds()
	height := s.Width * float32(ib.Dy()) / float32(ib.Dx())
	forEachRay(t, proj, view, func(x, y int, dir math32.Vector3) {
		if dir.Z >= 0 {
			t.SetPixel(x, y, 1, s.Background)
			return
		}
		d := -s.Distance / dir.Z
		u := (dir.X*d)/s.Width + 0.5
		v := (dir.Y*d)/height + 0.5
		if u < 0 || u >= 1 || v < 0 || v >= 1 {
			t.SetPixel(x, y, 1, s.Background)
			return
		}
		px := min(int(u*float32(sz.X)), sz.X-1)
		py := min(int((1-v)*float32(sz.Y)), sz.Y-1)
		c := s.scaled.RGBAAt(px, py)
		t.SetPixel(x, y, 1, math32.Vec4(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, 1))
	})
	return nil
}
