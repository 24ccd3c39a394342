// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compositor

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/atwkit/atw/distort"
	"github.com/atwkit/atw/math32"
)

// Device is the graphics device the compositor draws with.
// It compiles programs, owns render targets and mesh buffers,
// and presents finished frames to the display.
type Device interface {

	// CompileProgram compiles and links the vertex and fragment
	// stages of the given program source.
	CompileProgram(name, source string) (Program, error)

	// CreateRenderTarget creates an off-screen color and depth target
	// of the given size, which can later be sampled as a texture.
	CreateRenderTarget(size image.Point) (RenderTarget, error)

	// DisplaySize returns the size of the on-screen target.
	DisplaySize() image.Point

	// UploadMesh uploads the positions, per-channel texture
	// coordinates and indices of both eyes of the mesh.
	UploadMesh(m *distort.Mesh) (MeshBuffers, error)

	// SetRenderTarget directs subsequent drawing to the given target,
	// or to the display if it is nil.
	SetRenderTarget(rt RenderTarget) error

	// Clear clears the color and depth of the current target.
	Clear(c color.RGBA)

	// DrawIndexed draws indexed triangles into the current target.
	DrawIndexed(dc *DrawCall) error

	// Present presents the display target.
	Present() error
}

// Program is a compiled vertex and fragment program.
type Program interface {
	Name() string
}

// RenderTarget is an off-screen color and depth target.
// Its String method describes its size and formats.
type RenderTarget interface {
	fmt.Stringer
	Size() image.Point
}

// MeshBuffers are the device buffers of an uploaded mesh.
type MeshBuffers interface {
	VerticesPerEye() int
	IndexCount() int
}

// Releaser is implemented by device objects that hold resources
// beyond their garbage collection.
type Releaser interface {
	Release()
}

// DrawCall is one indexed draw of a slice of a mesh.
type DrawCall struct {
	Program Program
	Mesh    MeshBuffers

	// BaseVertex is added to every index when fetching vertex
	// attributes. It selects the eye of the mesh.
	BaseVertex int

	// IndexCount is the number of indices to draw.
	IndexCount int

	// Texture is the scene target sampled by the program.
	Texture RenderTarget

	Uniforms Uniforms
}

// Uniforms are the per-draw program parameters.
type Uniforms struct {

	// TimeWarpStart and TimeWarpEnd are the timewarp transforms for
	// the start and the end of display scan-out.
	TimeWarpStart math32.Matrix3x4
	TimeWarpEnd   math32.Matrix3x4

	// DebugUV outputs the warped green texture coordinates as color
	// instead of sampling the scene.
	DebugUV bool
}

// UniformsSize is the size in bytes of the uniform block
// of the timewarp program.
const UniformsSize = 7 * 16

// Bytes returns the uniform block in the layout of the timewarp
// program: the three rows of the start transform, the three rows of the
// end transform, then a vec4 whose x is 1 for the debug view. Devices
// upload it as the uniform buffer of each draw.
func (u *Uniforms) Bytes() []byte {
	b := make([]byte, UniformsSize)
	for i, f := range u.TimeWarpStart {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	for i, f := range u.TimeWarpEnd {
		binary.LittleEndian.PutUint32(b[48+4*i:], math.Float32bits(f))
	}
	if u.DebugUV {
		binary.LittleEndian.PutUint32(b[96:], math.Float32bits(1))
	}
	return b
}

// DecodeUniforms returns the uniforms encoded in a uniform block
// written by [Uniforms.Bytes].
func DecodeUniforms(b []byte) (Uniforms, error) {
	var u Uniforms
	if len(b) != UniformsSize {
		return u, fmt.Errorf("compositor: uniform block is %d bytes, want %d", len(b), UniformsSize)
	}
	for i := range u.TimeWarpStart {
		u.TimeWarpStart[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	for i := range u.TimeWarpEnd {
		u.TimeWarpEnd[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[48+4*i:]))
	}
	u.DebugUV = math.Float32frombits(binary.LittleEndian.Uint32(b[96:])) != 0
	return u, nil
}
