// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package imagex

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := range 4 {
		for x := range 8 {
			img.Set(x, y, color.RGBA{uint8(x * 30), uint8(y * 60), 128, 255})
		}
	}
	return img
}

func TestExtToFormat(t *testing.T) {
	for ext, want := range map[string]Formats{
		".png": PNG, "PNG": PNG, ".jpg": JPEG, "jpeg": JPEG, ".gif": GIF,
		".tif": TIFF, ".tiff": TIFF, ".bmp": BMP, ".webp": WebP,
	} {
		f, err := ExtToFormat(ext)
		assert.NoError(t, err, ext)
		assert.Equal(t, want, f, ext)
	}
	_, err := ExtToFormat("")
	assert.Error(t, err)
	_, err = ExtToFormat(".svg")
	assert.Error(t, err)
	assert.Equal(t, "BMP", BMP.String())
	assert.Equal(t, "Formats(42)", Formats(42).String())
}

func TestLosslessRoundTrip(t *testing.T) {
	img := testImage()
	for _, f := range []Formats{PNG, TIFF, BMP} {
		var b bytes.Buffer
		require.NoError(t, Write(img, &b, f), f.String())
		got, gf, err := Read(&b)
		require.NoError(t, err, f.String())
		assert.Equal(t, f, gf)
		assert.Equal(t, img.Bounds(), got.Bounds(), f.String())
		assert.Equal(t, img.Pix, AsRGBA(got).Pix, f.String())
	}
}

func TestSaveOpen(t *testing.T) {
	img := testImage()
	dir := t.TempDir()
	fn := filepath.Join(dir, "img.png")
	require.NoError(t, Save(img, fn))
	got, f, err := Open(fn)
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, img.Pix, AsRGBA(got).Pix)

	jfn := filepath.Join(dir, "img.jpg")
	require.NoError(t, Save(img, jfn))
	got, f, err = Open(jfn)
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)
	assert.Equal(t, img.Bounds(), got.Bounds())

	assert.Error(t, Save(img, filepath.Join(dir, "img.svg")))
	_, _, err = Open(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestReadUnknown(t *testing.T) {
	_, f, err := Read(bytes.NewReader([]byte("not an image at all")))
	assert.Error(t, err)
	assert.Equal(t, None, f)
}

func TestCloneAsRGBA(t *testing.T) {
	img := testImage()
	c := CloneAsRGBA(img)
	assert.Equal(t, img.Pix, c.Pix)
	c.Pix[0] = 7
	assert.NotEqual(t, img.Pix[0], c.Pix[0])
	assert.Same(t, img, AsRGBA(img))
}

func TestCompareColors(t *testing.T) {
	assert.True(t, CompareColors(color.RGBA{10, 20, 30, 255}, color.RGBA{11, 19, 30, 255}, 1))
	assert.False(t, CompareColors(color.RGBA{10, 20, 30, 255}, color.RGBA{13, 20, 30, 255}, 1))
}
