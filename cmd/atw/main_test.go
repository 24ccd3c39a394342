// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atwkit/atw/base/iox/imagex"
	"github.com/atwkit/atw/distort"
	"github.com/atwkit/atw/hmd"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func saveProfile(t *testing.T, name string, w, h int) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	body := hmd.DefaultBody()
	body.InterpupillaryDistance = 0.062
	require.NoError(t, hmd.Save(fn, hmd.DefaultFor(w, h), body))
	return fn
}

func readMesh(t *testing.T, fn string) *distort.Mesh {
	t.Helper()
	f, err := os.Open(fn)
	require.NoError(t, err)
	defer f.Close()
	m, err := distort.ReadMesh(f)
	require.NoError(t, err)
	return m
}

func TestProfileCmd(t *testing.T) {
	out, err := execute(t, "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "1920x1080 display")
	assert.Contains(t, out, "interpupillary distance: 0.0640 m")

	fn := saveProfile(t, "dk2.toml", 1920, 1080)
	saved := filepath.Join(t.TempDir(), "dk2.yaml")
	out, err = execute(t, "profile", fn, "-o", saved)
	require.NoError(t, err)
	assert.Contains(t, out, "interpupillary distance: 0.0620 m")

	p, body, err := hmd.Open(saved)
	require.NoError(t, err)
	assert.Equal(t, 30, p.EyeTilesWide)
	assert.InDelta(t, 0.062, body.InterpupillaryDistance, 1e-6)
}

func TestProfileCmdErrors(t *testing.T) {
	_, err := execute(t, "profile", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = execute(t, "profile", "a.toml", "b.toml")
	assert.Error(t, err)

	fn := saveProfile(t, "dk2.toml", 1920, 1080)
	_, err = execute(t, "profile", fn, "-o", filepath.Join(t.TempDir(), "dk2.json"))
	assert.Error(t, err)
}

func TestMeshCmd(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "mesh.bin")
	_, err := execute(t, "mesh", "-o", out)
	require.NoError(t, err)
	m := readMesh(t, out)
	assert.Equal(t, 30, m.TilesWide)
	assert.Equal(t, 33, m.TilesHigh)
	assert.NoFileExists(t, out+".tmp")

	fn := saveProfile(t, "small.yaml", 640, 320)
	_, err = execute(t, "mesh", fn, "-o", out)
	require.NoError(t, err)
	m = readMesh(t, out)
	assert.Equal(t, 10, m.TilesWide)
	assert.Equal(t, 10, m.TilesHigh)
}

func TestMeshCmdErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "mesh", "-o", filepath.Join(dir, "mesh.bin"), "--watch")
	assert.ErrorContains(t, err, "--watch")

	_, err = execute(t, "mesh", "-o", filepath.Join(dir, "missing", "mesh.bin"))
	assert.Error(t, err)
}

func TestWatchMesh(t *testing.T) {
	fn := saveProfile(t, "watched.toml", 640, 320)
	out := filepath.Join(t.TempDir(), "mesh.bin")
	require.NoError(t, exportMesh([]string{fn}, out))
	assert.Equal(t, 10, readMesh(t, out).TilesWide)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchMesh(ctx, fn, out)
	}()

	body := hmd.DefaultBody()
	assert.Eventually(t, func() bool {
		// rewritten until the watcher is ready and sees the change
		if err := hmd.Save(fn, hmd.DefaultFor(1280, 640), body); err != nil {
			return false
		}
		f, err := os.Open(out)
		if err != nil {
			return false
		}
		defer f.Close()
		m, err := distort.ReadMesh(f)
		return err == nil && m.TilesWide == 20
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func writeConfig(t *testing.T, out string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "atw.toml")
	cfg := fmt.Sprintf(`frames = 2
refresh_hz = 60.0
out = %q

[compositor]
scene_width = 64
scene_height = 64
fov_y = 90.0
`, out)
	require.NoError(t, os.WriteFile(fn, []byte(cfg), 0o644))
	return fn
}

func TestRenderCmd(t *testing.T) {
	fn := saveProfile(t, "small.toml", 128, 64)
	out := filepath.Join(t.TempDir(), "frames")
	cfg := writeConfig(t, out)

	_, err := execute(t, "render", fn, "-c", cfg, "--frames", "3", "--yaw-rate", "90")
	require.NoError(t, err)
	for i := range 3 {
		img, _, err := imagex.Open(filepath.Join(out, fmt.Sprintf("frame_%04d.png", i)))
		require.NoError(t, err)
		assert.Equal(t, image.Pt(128, 64), img.Bounds().Size())
	}
	assert.NoFileExists(t, filepath.Join(out, "frame_0003.png"))
}

func TestRenderImageScene(t *testing.T) {
	dir := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	src.Set(0, 0, color.RGBA{255, 0, 0, 255})
	scenefn := filepath.Join(dir, "scene.png")
	require.NoError(t, imagex.Save(src, scenefn))

	fn := saveProfile(t, "small.toml", 128, 64)
	out := filepath.Join(dir, "frames")
	_, err := execute(t, "render", fn, "-c", writeConfig(t, out), "--image", scenefn, "--frames", "1")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "frame_0000.png"))

	_, err = execute(t, "render", fn, "-c", writeConfig(t, out), "--image", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestRenderConfig(t *testing.T) {
	cfg, err := openRenderConfig(writeConfig(t, "frames"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Frames)
	assert.Equal(t, 60.0, cfg.RefreshHz)
	assert.Equal(t, float32(30), cfg.YawRate)
	assert.Equal(t, 64, cfg.Compositor.SceneWidth)
	assert.Equal(t, float32(90), cfg.Compositor.FovY)
	assert.Equal(t, float32(0.1), cfg.Compositor.Near)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("frame = 2\n"), 0o644))
	_, err = openRenderConfig(bad)
	assert.Error(t, err)
}

func TestRenderCmdErrors(t *testing.T) {
	fn := saveProfile(t, "small.toml", 128, 64)
	out := filepath.Join(t.TempDir(), "frames")
	cfg := writeConfig(t, out)

	_, err := execute(t, "render", fn, "-c", cfg, "--frames", "0")
	assert.Error(t, err)

	_, err = execute(t, "render", fn, "-c", cfg, "--refresh=-1")
	assert.Error(t, err)

	_, err = execute(t, "render", fn, "-c", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	// a display without width is rejected instead of rendering nothing
	zero := filepath.Join(t.TempDir(), "zero.toml")
	require.NoError(t, os.WriteFile(zero, []byte(`version = "1.0.0"

[optical]
display_pixels_wide = 0
display_pixels_high = 64
eye_tiles_wide = 2
visible_meters_wide = 0.11
meters_per_tan_angle = 0.037
knots = [1.0, 1.1]
`), 0o644))
	_, err = execute(t, "render", zero, "-c", cfg)
	assert.ErrorIs(t, err, hmd.ErrInvalidGeometry)
	assert.NoFileExists(t, filepath.Join(out, "frame_0000.png"))
}
