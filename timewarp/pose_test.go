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

func TestViewFromOrientation(t *testing.T) {
	q := math32.NewQuatAxisAngle(math32.Vec3(0, 1, 0), math32.DegToRad(30))
	view := ViewFromOrientation(q)
	head := math32.NewRotationFromQuat(q)
	prod := view.Mul(head)
	id := math32.Identity4()
	tolassert.EqualTolSlice(t, id[:], prod[:], 1e-6)

	assert.Equal(t, math32.Identity4(), ViewFromOrientation(math32.NewQuatIdentity()))
}

func TestStaticPose(t *testing.T) {
	q := math32.NewQuatAxisAngle(math32.Vec3(1, 0, 0), 0.2)
	s := StaticPose{Orientation: q}
	assert.Equal(t, s.ViewAt(0), s.ViewAt(time.Second))
}

func TestYawRate(t *testing.T) {
	y := YawRate{Start: math32.NewQuatIdentity(), DegreesPerSecond: 45}
	v := y.ViewAt(2 * time.Second)
	// after 90 degrees to the left, the world -X axis is straight ahead
	fwd := math32.Vec3(-1, 0, 0).MulMatrix4AsVector(&v)
	tolassert.EqualTol(t, 0, fwd.X, 1e-6)
	tolassert.EqualTol(t, -1, fwd.Z, 1e-6)

	id := math32.Identity4()
	got := y.ViewAt(0)
	tolassert.EqualTolSlice(t, id[:], got[:], 1e-7)
}

func TestTrack(t *testing.T) {
	yaw90 := math32.NewQuatAxisAngle(math32.Vec3(0, 1, 0), math32.Pi/2)
	tr := Track{
		{Time: 0, Orientation: math32.NewQuatIdentity()},
		{Time: time.Second, Orientation: yaw90},
	}
	assert.Equal(t, math32.NewQuatIdentity(), tr.OrientationAt(-time.Second))
	assert.Equal(t, yaw90, tr.OrientationAt(2*time.Second))

	mid := tr.OrientationAt(500 * time.Millisecond)
	want := math32.NewQuatAxisAngle(math32.Vec3(0, 1, 0), math32.Pi/4)
	tolassert.EqualTol(t, want.Y, mid.Y, 1e-5)
	tolassert.EqualTol(t, want.W, mid.W, 1e-5)

	assert.Equal(t, math32.NewQuatIdentity(), Track(nil).OrientationAt(time.Second))
	assert.Equal(t, ViewFromOrientation(mid), tr.ViewAt(500*time.Millisecond))
}
