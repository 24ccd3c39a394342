// Copyright 2019 Cogent Core. All rights reserved.
// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Initially copied from G3N: github.com/g3n/engine/math32
// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

import (
	"fmt"
	"strings"
)

// Matrix4 is 4x4 matrix organized internally as column matrix.
// Element m[c*4+r] is column c, row r; the translation of a
// homogeneous transform is in elements 12, 13 and 14.
type Matrix4 [16]float32

// Identity4 returns a new identity [Matrix4] matrix.
func Identity4() Matrix4 {
	m := Matrix4{}
	m.SetIdentity()
	return m
}

// NewTranslation returns a pure translation matrix.
func NewTranslation(x, y, z float32) Matrix4 {
	m := Identity4()
	m[12] = x
	m[13] = y
	m[14] = z
	return m
}

// NewRotationFromQuat returns the rotation matrix of the
// given (normalized) quaternion.
func NewRotationFromQuat(q Quat) Matrix4 {
	m := Matrix4{}
	m.SetRotationFromQuat(q)
	return m
}

// NewFrustum returns a GL-style perspective projection for the given
// clip planes. The camera looks down -Z and clip space is [-1, 1].
func NewFrustum(left, right, bottom, top, near, far float32) Matrix4 {
	m := Matrix4{}
	m[0] = 2 * near / (right - left)
	m[5] = 2 * near / (top - bottom)
	m[8] = (right + left) / (right - left)
	m[9] = (top + bottom) / (top - bottom)
	m[10] = -(far + near) / (far - near)
	m[11] = -1
	m[14] = -(2 * far * near) / (far - near)
	return m
}

// NewPerspective returns a symmetric perspective projection for the given
// vertical field of view in degrees, aspect ratio (width / height)
// and clip distances.
func NewPerspective(fovY, aspect, near, far float32) Matrix4 {
	ymax := near * Tan(DegToRad(fovY*0.5))
	xmax := ymax * aspect
	return NewFrustum(-xmax, xmax, -ymax, ymax, near, far)
}

// Set sets all the elements of this matrix row by row starting at row1, column1,
// row1, column2, row1, column3 and so forth.
func (m *Matrix4) Set(n11, n12, n13, n14, n21, n22, n23, n24, n31, n32, n33, n34, n41, n42, n43, n44 float32) {
	m[0] = n11
	m[4] = n12
	m[8] = n13
	m[12] = n14
	m[1] = n21
	m[5] = n22
	m[9] = n23
	m[13] = n24
	m[2] = n31
	m[6] = n32
	m[10] = n33
	m[14] = n34
	m[3] = n41
	m[7] = n42
	m[11] = n43
	m[15] = n44
}

// SetIdentity sets this matrix as the identity matrix.
func (m *Matrix4) SetIdentity() {
	m.Set(
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	)
}

// At returns the element at the given row and column.
func (m *Matrix4) At(row, col int) float32 {
	return m[col*4+row]
}

// SetRotationFromQuat sets this matrix as a rotation matrix from the specified quaternion.
func (m *Matrix4) SetRotationFromQuat(q Quat) {
	x := q.X
	y := q.Y
	z := q.Z
	w := q.W
	x2 := x + x
	y2 := y + y
	z2 := z + z
	xx := x * x2
	xy := x * y2
	xz := x * z2
	yy := y * y2
	yz := y * z2
	zz := z * z2
	wx := w * x2
	wy := w * y2
	wz := w * z2

	m[0] = 1 - (yy + zz)
	m[4] = xy - wz
	m[8] = xz + wy

	m[1] = xy + wz
	m[5] = 1 - (xx + zz)
	m[9] = yz - wx

	m[2] = xz - wy
	m[6] = yz + wx
	m[10] = 1 - (xx + yy)

	m[3] = 0
	m[7] = 0
	m[11] = 0

	m[12] = 0
	m[13] = 0
	m[14] = 0
	m[15] = 1
}

// MulMatrices sets this matrix as matrix multiplication a by b (i.e., a*b).
func (m *Matrix4) MulMatrices(a, b *Matrix4) {
	var r Matrix4
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			r[c*4+row] = a[row]*b[c*4] + a[4+row]*b[c*4+1] + a[8+row]*b[c*4+2] + a[12+row]*b[c*4+3]
		}
	}
	*m = r
}

// Mul returns this matrix times other matrix (this matrix is unchanged)
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	nm := Matrix4{}
	nm.MulMatrices(&m, &other)
	return nm
}

// Determinant3 returns the determinant of the upper-left 3x3
// (rotation and scale) block of this matrix.
func (m *Matrix4) Determinant3() float32 {
	return m[0]*(m[5]*m[10]-m[9]*m[6]) -
		m[4]*(m[1]*m[10]-m[9]*m[2]) +
		m[8]*(m[1]*m[6]-m[5]*m[2])
}

// InverseHomogeneous returns the inverse of a rigid (rotation plus
// translation) transform: the transposed rotation and the negated,
// rotated translation. It does not divide, so it is only correct when
// the upper 3x3 block is orthonormal.
func (m Matrix4) InverseHomogeneous() Matrix4 {
	var r Matrix4
	r[0] = m[0]
	r[1] = m[4]
	r[2] = m[8]
	r[3] = 0
	r[4] = m[1]
	r[5] = m[5]
	r[6] = m[9]
	r[7] = 0
	r[8] = m[2]
	r[9] = m[6]
	r[10] = m[10]
	r[11] = 0
	r[12] = -(m[0]*m[12] + m[1]*m[13] + m[2]*m[14])
	r[13] = -(m[4]*m[12] + m[5]*m[13] + m[6]*m[14])
	r[14] = -(m[8]*m[12] + m[9]*m[13] + m[10]*m[14])
	r[15] = 1
	return r
}

// Translation returns the translation part of this matrix.
func (m *Matrix4) Translation() Vector3 {
	return Vec3(m[12], m[13], m[14])
}

// SetTranslation sets the translation part of this matrix.
func (m *Matrix4) SetTranslation(v Vector3) {
	m[12] = v.X
	m[13] = v.Y
	m[14] = v.Z
}

// Matrix3x4 returns the top three rows of this matrix in row-major
// order, dropping the bottom row.
func (m *Matrix4) Matrix3x4() Matrix3x4 {
	var r Matrix3x4
	for row := 0; row < 3; row++ {
		for c := 0; c < 4; c++ {
			r[row*4+c] = m[c*4+row]
		}
	}
	return r
}

// String returns the matrix rows, one per line.
func (m Matrix4) String() string {
	var b strings.Builder
	for row := 0; row < 4; row++ {
		fmt.Fprintf(&b, "[%v %v %v %v]\n", m[row], m[4+row], m[8+row], m[12+row])
	}
	return b.String()
}
