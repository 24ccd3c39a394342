// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spline evaluates the radial magnification profile of a lens
// from its calibration knots.
package spline

import "github.com/atwkit/atw/math32"

// snapTolerance is how close a scaled position must be to a knot index
// to be treated as exactly on the knot, absorbing the rounding of
// i/(n-1)*(n-1).
const snapTolerance = 1e-5

// EvaluateScale returns the radial magnification at the squared
// tan-angle radius rsq, interpolating the given knots with a cubic
// Hermite (Catmull-Rom) spline. Knot i sits at rsq = i/(len(knots)-1),
// so the knots span rsq in [0, 1].
//
// Interior knots use the Catmull-Rom tangent (K[i+1]-K[i-1])/2; the end
// knots use the one-sided difference to their neighbor. Values of rsq
// outside [0, 1] are clamped to the end knots, and NaN evaluates the
// first knot. The curve passes through every knot and has a continuous
// first derivative.
//
// EvaluateScale panics if there are fewer than two knots.
func EvaluateScale(rsq float32, knots []float32) float32 {
	n := len(knots)
	if n < 2 {
		panic("spline.EvaluateScale: at least two knots are required")
	}
	last := float32(n - 1)
	pos := math32.Clamp(rsq*last, 0, last)
	if math32.IsNaN(pos) {
		pos = 0
	}
	if r := math32.Round(pos); math32.Abs(pos-r) < snapTolerance {
		pos = r
	}
	k := int(math32.Floor(pos))
	if k > n-2 {
		k = n - 2
	}
	t := pos - float32(k)

	p0 := knots[k]
	p1 := knots[k+1]
	m0 := tangent(knots, k)
	m1 := tangent(knots, k+1)

	omt := 1 - t
	return (p0*(1+2*t)+m0*t)*omt*omt + (p1*(1+2*omt)-m1*omt)*t*t
}

// tangent returns the slope of the profile at knot i, in units of
// value per knot interval.
func tangent(knots []float32, i int) float32 {
	n := len(knots)
	switch {
	case i == 0:
		return knots[1] - knots[0]
	case i == n-1:
		return knots[n-1] - knots[n-2]
	default:
		return 0.5 * (knots[i+1] - knots[i-1])
	}
}
