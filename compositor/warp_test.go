// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compositor

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/atwkit/atw/base/tolassert"
	"github.com/atwkit/atw/distort"
	"github.com/atwkit/atw/math32"
	"github.com/atwkit/atw/timewarp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityUniforms() *Uniforms {
	pair := timewarp.IdentityPair(math32.NewFrustum(-1, 1, -1, 1, 1, 100))
	return &Uniforms{TimeWarpStart: pair.Start, TimeWarpEnd: pair.End}
}

func TestWarpVertexIdentity(t *testing.T) {
	u := identityUniforms()
	uv := [distort.NumChannels]math32.Vector2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: -1, Y: -1}}
	clip, out := WarpVertex(math32.Vec3(-0.5, 0.25, 0), uv, u)
	assert.Equal(t, math32.Vec4(-0.5, 0.25, 0, 1), clip)
	assert.Equal(t, math32.Vec2(0.5, 0.5), out[distort.Red])
	assert.Equal(t, math32.Vec2(1, 1), out[distort.Green])
	assert.Equal(t, math32.Vec2(0, 0), out[distort.Blue])
}

func TestWarpInterpolation(t *testing.T) {
	proj := math32.NewFrustum(-1, 1, -1, 1, 1, 100)
	pose := timewarp.YawRate{Start: math32.NewQuatIdentity(), DegreesPerSecond: 90}
	begin := pose.ViewAt(0)
	end := pose.ViewAt(100_000_000)
	pair := timewarp.ComputePair(proj, math32.Identity4(), begin, end)
	u := &Uniforms{TimeWarpStart: pair.Start, TimeWarpEnd: pair.End}

	uv := math32.Vec2(0.2, -0.1)
	startU := &Uniforms{TimeWarpStart: pair.Start, TimeWarpEnd: pair.Start}
	endU := &Uniforms{TimeWarpStart: pair.End, TimeWarpEnd: pair.End}

	// left edge of the display is the start of scan-out, right edge the end
	left := WarpTexCoord(uv, 0, u)
	right := WarpTexCoord(uv, 1, u)
	tolassert.EqualTol(t, WarpTexCoord(uv, 0.3, startU).X, left.X, 1e-6)
	tolassert.EqualTol(t, WarpTexCoord(uv, 0.3, endU).X, right.X, 1e-6)
	assert.Less(t, right.X, left.X)

	_, out := WarpVertex(math32.Vec3(0, 0, 0), [distort.NumChannels]math32.Vector2{uv, uv, uv}, u)
	mid := WarpTexCoord(uv, 0.5, u)
	assert.Equal(t, mid, out[distort.Green])
	assert.Less(t, out[distort.Green].X, left.X)
	assert.Greater(t, out[distort.Green].X, right.X)
}

func TestWarpBehindCamera(t *testing.T) {
	u := &Uniforms{}
	// a zero transform divides by the minimum depth instead of zero
	got := WarpTexCoord(math32.Vec2(1, 1), 0.5, u)
	assert.Equal(t, math32.Vec2(0, 0), got)
	assert.False(t, math32.IsNaN(got.X))
}

// channelSampler returns a color that encodes which uv it was sampled at.
type channelSampler struct{}

func (channelSampler) Sample(uv math32.Vector2) math32.Vector4 {
	return math32.Vec4(uv.X, uv.X*2, uv.X*3, 0.5)
}

func TestShadeFragment(t *testing.T) {
	uv := [distort.NumChannels]math32.Vector2{{X: 0.1, Y: 0}, {X: 0.2, Y: 0.7}, {X: 0.3, Y: 0}}
	u := &Uniforms{}
	c := ShadeFragment(uv, u, channelSampler{})
	tolassert.Equal(t, 0.1, c.X)
	tolassert.Equal(t, 0.4, c.Y)
	tolassert.Equal(t, 0.9, c.Z)
	assert.Equal(t, float32(1), c.W)

	u.DebugUV = true
	assert.Equal(t, math32.Vec4(0.2, 0.7, 1, 1), ShadeFragment(uv, u, channelSampler{}))
}

func TestUniformsBytes(t *testing.T) {
	u := identityUniforms()
	u.TimeWarpEnd[11] = 3
	b := u.Bytes()
	assert.Len(t, b, UniformsSize)
	f := func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])) }
	assert.Equal(t, float32(0.5), f(0))
	assert.Equal(t, float32(-0.5), f(2))
	assert.Equal(t, float32(-1), f(10))
	assert.Equal(t, float32(3), f(23))
	assert.Equal(t, float32(0), f(24))

	u.DebugUV = true
	b = u.Bytes()
	assert.Equal(t, float32(1), f(24))
}

func TestDecodeUniforms(t *testing.T) {
	u := identityUniforms()
	u.TimeWarpStart[3] = -0.25
	u.TimeWarpEnd[7] = 2
	u.DebugUV = true
	got, err := DecodeUniforms(u.Bytes())
	require.NoError(t, err)
	assert.Equal(t, *u, got)

	u.DebugUV = false
	got, err = DecodeUniforms(u.Bytes())
	require.NoError(t, err)
	assert.False(t, got.DebugUV)

	_, err = DecodeUniforms(make([]byte, UniformsSize-4))
	assert.Error(t, err)
}

func TestProgramSource(t *testing.T) {
	for _, s := range []string{"@vertex", "@fragment", "fn vs_main", "fn fs_main", "textureSample", "struct Uniforms"} {
		assert.True(t, strings.Contains(ProgramSource, s), s)
	}
}
