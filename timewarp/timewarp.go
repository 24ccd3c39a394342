// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timewarp computes the rotation-only correction that re-projects
// an already rendered frame to the head orientation predicted for the
// moment each part of the display is scanned out.
//
// Matrices follow the math32 conventions: column-major storage, column
// vectors, GL clip space and a camera looking down -Z. Texture space
// has v = 0 at the bottom.
package timewarp

import (
	"fmt"

	"github.com/atwkit/atw/math32"
)

// singularTolerance is the smallest rotation-block determinant accepted
// for a view matrix.
const singularTolerance = 1e-6

// Pair holds the transforms for the start and the end of display
// scan-out, in the 3x4 form uploaded as uniforms. A vertex interpolates
// between them by its horizontal position on the display.
type Pair struct {
	Start math32.Matrix3x4
	End   math32.Matrix3x4
}

// TexCoordProjection returns the projection that maps a tan-angle
// direction (u, v, -1) into [0, 1] texture coordinates of a scene
// rendered with the given projection: x and y are scaled by 0.5 and
// offset by 0.5 (through the z = -1 column), and z is negated so that
// the perspective divide is by a positive value.
func TexCoordProjection(proj math32.Matrix4) math32.Matrix4 {
	var m math32.Matrix4
	m[0] = 0.5 * proj[0]
	m[5] = 0.5 * proj[5]
	m[8] = 0.5*proj[8] - 0.5
	m[9] = 0.5*proj[9] - 0.5
	m[10] = -1
	m[15] = 1
	return m
}

// ComputeTimeWarpTransform returns the transform from mesh tan-angle
// coordinates to scene texture coordinates that corrects for the
// rotation between renderView, the view the scene was rendered with,
// and predictedView, the view expected when the vertex is displayed.
// The translation between the two views is not corrected.
//
// When renderView equals predictedView the result is exactly
// [TexCoordProjection] of proj.
//
// Both views must be rigid transforms; ComputeTimeWarpTransform
// panics if either has a singular rotation block.
func ComputeTimeWarpTransform(proj, renderView, predictedView math32.Matrix4) math32.Matrix4 {
	mustBeRigid("renderView", &renderView)
	mustBeRigid("predictedView", &predictedView)
	tc := TexCoordProjection(proj)
	deltaView := renderView.InverseHomogeneous().Mul(predictedView)
	inverseDelta := deltaView.InverseHomogeneous()
	inverseDelta.SetTranslation(math32.Vector3{})
	return tc.Mul(inverseDelta)
}

// ComputePair returns the transforms for the start and end of scan-out.
func ComputePair(proj, renderView, viewBegin, viewEnd math32.Matrix4) Pair {
	start := ComputeTimeWarpTransform(proj, renderView, viewBegin)
	end := ComputeTimeWarpTransform(proj, renderView, viewEnd)
	return Pair{Start: start.Matrix3x4(), End: end.Matrix3x4()}
}

// IdentityPair returns the pair for a view that does not change.
func IdentityPair(proj math32.Matrix4) Pair {
	tc := TexCoordProjection(proj)
	r := tc.Matrix3x4()
	return Pair{Start: r, End: r}
}

func mustBeRigid(name string, m *math32.Matrix4) {
	if d := m.Determinant3(); math32.Abs(d) < singularTolerance {
		panic(fmt.Sprintf("timewarp: %s has a singular rotation (determinant %g)", name, d))
	}
}
