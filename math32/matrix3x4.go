// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

// Matrix3x4 is the top three rows of a [Matrix4] whose bottom row is
// (0, 0, 0, 1), stored row-major: m[r*4+c] is row r, column c.
// Each row is one vec4 in a GPU uniform block.
type Matrix3x4 [12]float32

// Matrix4 expands this matrix back to a [Matrix4] with a bottom
// row of (0, 0, 0, 1).
func (m *Matrix3x4) Matrix4() Matrix4 {
	var r Matrix4
	for row := 0; row < 3; row++ {
		for c := 0; c < 4; c++ {
			r[c*4+row] = m[row*4+c]
		}
	}
	r[15] = 1
	return r
}

// Row returns the given row as a [Vector4].
func (m *Matrix3x4) Row(row int) Vector4 {
	return Vec4(m[row*4], m[row*4+1], m[row*4+2], m[row*4+3])
}
