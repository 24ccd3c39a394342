// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timewarp

import (
	"testing"
	"time"

	"github.com/atwkit/atw/base/tolassert"
	"github.com/atwkit/atw/math32"
	"github.com/stretchr/testify/assert"
)

func TestTexCoordProjection(t *testing.T) {
	proj := math32.NewFrustum(-1, 1, -1, 1, 1, 100)
	tc := TexCoordProjection(proj)
	assert.Equal(t, math32.Matrix4{
		0.5, 0, 0, 0,
		0, 0.5, 0, 0,
		-0.5, -0.5, -1, 0,
		0, 0, 0, 1,
	}, tc)

	// an off-center frustum shifts the texture center
	off := TexCoordProjection(math32.NewFrustum(-1, 3, -1, 1, 1, 100))
	tolassert.Equal(t, 0.5*0.5-0.5, off[8])
}

func TestIdentityRoundTrip(t *testing.T) {
	proj := math32.NewFrustum(-1, 1, -1, 1, 1, 100)
	id := math32.Identity4()
	assert.Equal(t, TexCoordProjection(proj), ComputeTimeWarpTransform(proj, id, id))

	persp := math32.NewPerspective(100, 1.2, 0.1, 50)
	assert.Equal(t, TexCoordProjection(persp), ComputeTimeWarpTransform(persp, id, id))
	assert.Equal(t, IdentityPair(persp), ComputePair(persp, id, id, id))
}

func TestSameViewRoundTrip(t *testing.T) {
	proj := math32.NewPerspective(90, 1, 0.1, 100)
	axis := math32.Vec3(1, 2, 3).Normal()
	v := math32.NewRotationFromQuat(math32.NewQuatAxisAngle(axis, 0.7))
	v.SetTranslation(math32.Vec3(1, -2, 3))

	got := ComputeTimeWarpTransform(proj, v, v)
	want := TexCoordProjection(proj)
	tolassert.EqualTolSlice(t, want[:], got[:], 1e-5)
}

func TestTranslationIgnored(t *testing.T) {
	proj := math32.NewPerspective(90, 1, 0.1, 100)
	id := math32.Identity4()
	moved := math32.NewTranslation(0.3, 0.1, -2)
	got := ComputeTimeWarpTransform(proj, id, moved)
	want := TexCoordProjection(proj)
	tolassert.EqualTolSlice(t, want[:], got[:], 1e-6)
}

func TestYawCorrection(t *testing.T) {
	proj := math32.NewPerspective(90, 1, 0.1, 100)
	id := math32.Identity4()
	pose := YawRate{Start: math32.NewQuatIdentity(), DegreesPerSecond: 90}
	predicted := pose.ViewAt(100 * time.Millisecond)

	m := ComputeTimeWarpTransform(proj, id, predicted)
	r := m.Matrix3x4()
	c := math32.Vec4(0, 0, -1, 1).MulMatrix3x4(&r)
	u, v := c.X/c.Z, c.Y/c.Z

	// turning left shows what was to the left of the rendered center
	theta := math32.DegToRad(9)
	tolassert.EqualTol(t, 0.5-0.5*proj[0]*math32.Tan(theta), u, 1e-5)
	tolassert.EqualTol(t, 0.5, v, 1e-5)
	assert.Less(t, u, float32(0.5))
}

func TestComputePair(t *testing.T) {
	proj := math32.NewPerspective(90, 1, 0.1, 100)
	id := math32.Identity4()
	pose := YawRate{DegreesPerSecond: 60, Start: math32.NewQuatIdentity()}
	begin := pose.ViewAt(10 * time.Millisecond)
	end := pose.ViewAt(20 * time.Millisecond)

	p := ComputePair(proj, id, begin, end)
	b := ComputeTimeWarpTransform(proj, id, begin)
	e := ComputeTimeWarpTransform(proj, id, end)
	assert.Equal(t, b.Matrix3x4(), p.Start)
	assert.Equal(t, e.Matrix3x4(), p.End)
	assert.NotEqual(t, p.Start, p.End)

	same := ComputePair(proj, id, begin, begin)
	assert.Equal(t, same.Start, same.End)
}

func TestSingularViewPanics(t *testing.T) {
	proj := math32.NewPerspective(90, 1, 0.1, 100)
	id := math32.Identity4()
	assert.Panics(t, func() { ComputeTimeWarpTransform(proj, math32.Matrix4{}, id) })
	assert.Panics(t, func() { ComputeTimeWarpTransform(proj, id, math32.Matrix4{}) })
}
