// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package softgpu is a software implementation of the compositor
// device. It validates WGSL programs with naga, runs the matching Go
// stages of the timewarp program on the CPU, and rasterizes into
// in-memory render targets. It is used for tests, tools, and as a
// reference for hardware devices.
package softgpu

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"github.com/atwkit/atw/base/iox/imagex"
	"github.com/atwkit/atw/compositor"
	"github.com/atwkit/atw/distort"
	"github.com/atwkit/atw/math32"
	"github.com/gogpu/naga"
)

// ErrUnknownProgram is returned by [Device.CompileProgram] for a program
// that has no CPU implementation.
var ErrUnknownProgram = errors.New("softgpu: no CPU implementation of program")

// ErrReleased is returned when drawing with a released object.
var ErrReleased = errors.New("softgpu: use of released object")

// Device is a [compositor.Device] that renders in memory.
type Device struct {

	// OnPresent, if set, is called with each presented frame.
	// The image is only valid during the call.
	OnPresent func(frame *image.RGBA) error

	display *Target
	current *Target
	last    *image.RGBA
}

var _ compositor.Device = (*Device)(nil)

// NewDevice returns a new device with a display of the given size.
func NewDevice(displaySize image.Point) *Device {
	d := &Device{display: NewTarget(displaySize)}
	d.current = d.display
	return d
}

// Program is a compiled program.
type Program struct {
	name  string
	spirv []byte
}

// Name returns the name of the program.
func (p *Program) Name() string {
	return p.name
}

// SPIRV returns the SPIR-V binary the program source compiled to,
// or nil if the compiler does not support it yet.
func (p *Program) SPIRV() []byte {
	return p.spirv
}

// CompileProgram compiles the WGSL source to SPIR-V to validate it. Only
// the timewarp program can be run. Sources using language features that
// the compiler does not implement yet are accepted with a warning.
func (d *Device) CompileProgram(name, source string) (compositor.Program, error) {
	if name != compositor.ProgramName {
		return nil, fmt.Errorf("%w %q", ErrUnknownProgram, name)
	}
	spirv, err := naga.Compile(source)
	if err != nil {
		msg := err.Error()
		if !strings.Contains(msg, "not yet implemented") && !strings.Contains(msg, "not supported") {
			return nil, fmt.Errorf("softgpu: compiling %s: %w", name, err)
		}
		slog.Warn("program uses features the compiler does not support; running the CPU stages only", "program", name, "err", err)
		spirv = nil
	}
	slog.Debug("compiled program", "program", name, "spirvBytes", len(spirv))
	return &Program{name: name, spirv: spirv}, nil
}

// CreateRenderTarget returns a new [Target].
func (d *Device) CreateRenderTarget(size image.Point) (compositor.RenderTarget, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("softgpu: invalid render target size %v", size)
	}
	return NewTarget(size), nil
}

// DisplaySize returns the size of the display.
func (d *Device) DisplaySize() image.Point {
	return d.display.Size()
}

// Display returns the display target.
func (d *Device) Display() *Target {
	return d.display
}

// Current returns the target drawing currently goes to.
func (d *Device) Current() *Target {
	return d.current
}

// SetRenderTarget sets the current target; nil is the display.
func (d *Device) SetRenderTarget(rt compositor.RenderTarget) error {
	if rt == nil {
		d.current = d.display
		return nil
	}
	t, ok := rt.(*Target)
	if !ok {
		return fmt.Errorf("softgpu: render target %v was not created by this device", rt)
	}
	if t.released {
		return fmt.Errorf("softgpu: render target %v: %w", t, ErrReleased)
	}
	d.current = t
	return nil
}

// Clear clears the current target.
func (d *Device) Clear(c color.RGBA) {
	d.current.Clear(c)
}

// Present copies the display and passes it to [Device.OnPresent].
func (d *Device) Present() error {
	d.last = imagex.CloneAsRGBA(d.display.Color)
	if d.OnPresent != nil {
		return d.OnPresent(d.last)
	}
	return nil
}

// LastFrame returns the last presented frame, or nil.
func (d *Device) LastFrame() *image.RGBA {
	return d.last
}

// MeshBuffers are the flat vertex and index arrays of an uploaded mesh.
type MeshBuffers struct {
	Positions      math32.ArrayF32
	UV             [distort.NumChannels]math32.ArrayF32
	Indices        math32.ArrayU32
	verticesPerEye int
	released       bool
}

// VerticesPerEye returns the number of vertices of one eye.
func (mb *MeshBuffers) VerticesPerEye() int { return mb.verticesPerEye }

// IndexCount returns the number of indices.
func (mb *MeshBuffers) IndexCount() int { return mb.Indices.Len() }

// Release marks the buffers as released.
func (mb *MeshBuffers) Release() { mb.released = true }

// UploadMesh copies the upload arrays of the mesh.
func (d *Device) UploadMesh(m *distort.Mesh) (compositor.MeshBuffers, error) {
	mb := &MeshBuffers{
		Positions:      m.PositionArray(),
		Indices:        m.IndexArray(),
		verticesPerEye: m.VerticesPerEye(),
	}
	for c := range distort.NumChannels {
		mb.UV[c] = m.UVArray(distort.Channel(c))
	}
	return mb, nil
}
