// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timewarp

import (
	"sort"
	"time"

	"github.com/atwkit/atw/math32"
)

// PoseSource gives the view matrix of the head at a time since the
// start of the session. Prediction is up to the source: the compositor
// asks for the times at which the frame will be displayed.
type PoseSource interface {
	ViewAt(t time.Duration) math32.Matrix4
}

// ViewFromOrientation returns the view matrix of a head with the given
// orientation, which is the inverse of the head rotation.
func ViewFromOrientation(q math32.Quat) math32.Matrix4 {
	q.Normalize()
	return math32.NewRotationFromQuat(q.Conjugate())
}

// StaticPose is a head that does not move.
type StaticPose struct {
	Orientation math32.Quat
}

// ViewAt returns the same view at all times.
func (s StaticPose) ViewAt(t time.Duration) math32.Matrix4 {
	return ViewFromOrientation(s.Orientation)
}

// YawRate is a head turning at a constant rate about the vertical axis,
// starting from Start. Positive rates turn to the left.
type YawRate struct {
	Start            math32.Quat
	DegreesPerSecond float32
}

// ViewAt returns the view after turning for time t.
func (y YawRate) ViewAt(t time.Duration) math32.Matrix4 {
	angle := math32.DegToRad(y.DegreesPerSecond * float32(t.Seconds()))
	yaw := math32.NewQuatAxisAngle(math32.Vec3(0, 1, 0), angle)
	return ViewFromOrientation(yaw.Mul(y.Start))
}

// Sample is a head orientation at a point in time.
type Sample struct {
	Time        time.Duration
	Orientation math32.Quat
}

// Track plays back recorded orientations, interpolating between samples
// with slerp and holding the first and last sample outside their range.
// Samples must be sorted by time.
type Track []Sample

// ViewAt returns the interpolated view at time t.
func (tr Track) ViewAt(t time.Duration) math32.Matrix4 {
	return ViewFromOrientation(tr.OrientationAt(t))
}

// OrientationAt returns the interpolated orientation at time t.
// An empty track is the identity.
func (tr Track) OrientationAt(t time.Duration) math32.Quat {
	switch {
	case len(tr) == 0:
		return math32.NewQuatIdentity()
	case t <= tr[0].Time:
		return tr[0].Orientation
	case t >= tr[len(tr)-1].Time:
		return tr[len(tr)-1].Orientation
	}
	i := sort.Search(len(tr), func(i int) bool { return tr[i].Time > t })
	a, b := tr[i-1], tr[i]
	f := float32(t-a.Time) / float32(b.Time-a.Time)
	return a.Orientation.Slerp(b.Orientation, f)
}
