// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compositor runs the per-frame timewarp: it renders the scene
// into an off-screen target with the head pose at render time, then
// draws the distortion mesh of each eye to the display, sampling the
// scene through the timewarp transforms for the start and end of
// scan-out.
//
// A [Context] is not safe for concurrent use.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/atwkit/atw/base/iox/tomlx"
	"github.com/atwkit/atw/distort"
	"github.com/atwkit/atw/hmd"
	"github.com/atwkit/atw/math32"
	"github.com/atwkit/atw/timewarp"
)

// Scene renders the content shown to the user.
type Scene interface {

	// Render draws the scene into the current render target of the
	// device, with the given projection and view matrices.
	Render(dev Device, proj, view math32.Matrix4) error
}

// Options are the settings of a [Context].
type Options struct {

	// SceneWidth and SceneHeight are the size of the off-screen
	// scene target, which is independent of the display size.
	SceneWidth  int `toml:"scene_width"`
	SceneHeight int `toml:"scene_height"`

	// FovY is the vertical field of view of the scene in degrees.
	FovY float32 `toml:"fov_y"`

	// Near and Far are the clip distances of the scene projection.
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`

	// ClearColor is the RGBA color the scene target is cleared to.
	ClearColor [4]uint8 `toml:"clear_color"`

	// DebugUV draws the warped texture coordinates instead of the scene.
	DebugUV bool `toml:"debug_uv"`
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		SceneWidth:  1024,
		SceneHeight: 1024,
		FovY:        100,
		Near:        0.1,
		Far:         100,
		ClearColor:  [4]uint8{0, 0, 0, 255},
	}
}

// OpenOptions loads options from a TOML file. Omitted settings keep
// their default values.
func OpenOptions(filename string) (Options, error) {
	o := DefaultOptions()
	if err := tomlx.Open(&o, filename); err != nil {
		return o, fmt.Errorf("compositor.OpenOptions %s: %w", filename, err)
	}
	return o, nil
}

// SceneSize returns the size of the scene target.
func (o Options) SceneSize() image.Point {
	return image.Pt(o.SceneWidth, o.SceneHeight)
}

// Clear returns the clear color.
func (o Options) Clear() color.RGBA {
	return color.RGBA{o.ClearColor[0], o.ClearColor[1], o.ClearColor[2], o.ClearColor[3]}
}

// Projection returns the scene projection.
func (o Options) Projection() math32.Matrix4 {
	aspect := float32(o.SceneWidth) / float32(o.SceneHeight)
	return math32.NewPerspective(o.FovY, aspect, o.Near, o.Far)
}

// Validate returns an error for options that cannot produce a frame.
func (o Options) Validate() error {
	switch {
	case o.SceneWidth <= 0 || o.SceneHeight <= 0:
		return fmt.Errorf("compositor: invalid scene size %dx%d", o.SceneWidth, o.SceneHeight)
	case o.FovY <= 0 || o.FovY >= 180:
		return fmt.Errorf("compositor: invalid vertical field of view %g", o.FovY)
	case o.Near <= 0 || o.Far <= o.Near:
		return fmt.Errorf("compositor: invalid clip distances %g, %g", o.Near, o.Far)
	}
	return nil
}

// Context owns the distortion mesh, the timewarp program and the
// scene target of one display. It is created with [New], used once per
// frame with [Context.Frame], and freed with [Context.Release].
type Context struct {

	// Options are the settings the context was created with.
	Options Options

	// Profile is the optical profile of the display.
	Profile *hmd.OpticalProfile

	// Mesh is the distortion mesh built from Profile.
	Mesh *distort.Mesh

	// Projection is the projection the scene is rendered with.
	Projection math32.Matrix4

	// Frames is the number of frames presented so far.
	Frames int

	device  Device
	program Program
	target  RenderTarget
	buffers MeshBuffers
}

// New builds the distortion mesh of the profile and creates the program,
// scene target and mesh buffers on the device.
func New(dev Device, p *hmd.OpticalProfile, opts Options) (*Context, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	mesh, err := distort.BuildDistortionMesh(p)
	if err != nil {
		return nil, err
	}
	c := &Context{Options: opts, Profile: p, Mesh: mesh, Projection: opts.Projection(), device: dev}
	c.program, err = dev.CompileProgram(ProgramName, ProgramSource)
	if err != nil {
		return nil, fmt.Errorf("compositor.New: compiling program: %w", err)
	}
	c.target, err = dev.CreateRenderTarget(opts.SceneSize())
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("compositor.New: creating scene target: %w", err)
	}
	slog.Debug("created scene target", "target", c.target.String())
	c.buffers, err = dev.UploadMesh(mesh)
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("compositor.New: uploading mesh: %w", err)
	}
	slog.Info("compositor ready", "display", dev.DisplaySize(), "scene", c.target.Size(),
		"verticesPerEye", mesh.VerticesPerEye(), "indices", mesh.IndexCount())
	return c, nil
}

// SceneTarget returns the off-screen target the scene is rendered into.
func (c *Context) SceneTarget() RenderTarget {
	return c.target
}

// Frame renders and presents one frame: the scene is rendered with the
// view at the render time of ft, then each eye of the mesh is drawn to
// the display with the timewarp transforms for the scan-out times of ft.
func (c *Context) Frame(scene Scene, poses timewarp.PoseSource, ft FrameTiming) error {
	dev := c.device
	renderView := poses.ViewAt(ft.Render)
	if err := dev.SetRenderTarget(c.target); err != nil {
		return fmt.Errorf("compositor.Frame %d: %w", ft.Frame, err)
	}
	dev.Clear(c.Options.Clear())
	if err := scene.Render(dev, c.Projection, renderView); err != nil {
		return fmt.Errorf("compositor.Frame %d: rendering scene: %w", ft.Frame, err)
	}

	viewBegin := poses.ViewAt(ft.ScanoutStart)
	viewEnd := poses.ViewAt(ft.ScanoutEnd)
	pair := timewarp.ComputePair(c.Projection, renderView, viewBegin, viewEnd)

	if err := dev.SetRenderTarget(nil); err != nil {
		return fmt.Errorf("compositor.Frame %d: %w", ft.Frame, err)
	}
	dev.Clear(color.RGBA{A: 255})
	for eye := range distort.NumEyes {
		dc := &DrawCall{
			Program:    c.program,
			Mesh:       c.buffers,
			BaseVertex: c.Mesh.BaseVertex(distort.Eye(eye)),
			IndexCount: c.Mesh.IndexCount(),
			Texture:    c.target,
			Uniforms: Uniforms{
				TimeWarpStart: pair.Start,
				TimeWarpEnd:   pair.End,
				DebugUV:       c.Options.DebugUV,
			},
		}
		if err := dev.DrawIndexed(dc); err != nil {
			return fmt.Errorf("compositor.Frame %d: drawing %v eye: %w", ft.Frame, distort.Eye(eye), err)
		}
	}
	if err := dev.Present(); err != nil {
		return fmt.Errorf("compositor.Frame %d: %w", ft.Frame, err)
	}
	c.Frames++
	slog.Debug("presented frame", "timing", ft.String())
	return nil
}

// Release frees the device objects of the context.
func (c *Context) Release() {
	for _, o := range []any{c.buffers, c.target, c.program} {
		if r, ok := o.(Releaser); ok {
			r.Release()
		}
	}
	c.buffers, c.target, c.program = nil, nil, nil
}
