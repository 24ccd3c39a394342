// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/atwkit/atw/base/errors"
	"github.com/atwkit/atw/base/iox/imagex"
	"github.com/atwkit/atw/base/iox/tomlx"
	"github.com/atwkit/atw/compositor"
	"github.com/atwkit/atw/hmd"
	"github.com/atwkit/atw/math32"
	"github.com/atwkit/atw/softgpu"
	"github.com/atwkit/atw/timewarp"
)

// renderConfig are the settings of the render command. They are read
// from a TOML config file and overridden by flags.
type renderConfig struct {

	// Frames is the number of frames to present.
	Frames int `toml:"frames"`

	// RefreshHz is the refresh rate of the display.
	RefreshHz float64 `toml:"refresh_hz"`

	// YawRate is the synthetic head rotation in degrees per second.
	YawRate float32 `toml:"yaw_rate"`

	// Image is a scene image file; the grid environment is shown when empty.
	Image string `toml:"image"`

	// Out is the directory frames are written to.
	Out string `toml:"out"`

	Compositor compositor.Options `toml:"compositor"`
}

func defaultRenderConfig() renderConfig {
	return renderConfig{
		Frames:     10,
		RefreshHz:  75,
		YawRate:    30,
		Out:        "frames",
		Compositor: compositor.DefaultOptions(),
	}
}

// openRenderConfig loads a config file over the defaults.
func openRenderConfig(filename string) (renderConfig, error) {
	cfg := defaultRenderConfig()
	if err := tomlx.Open(&cfg, filename); err != nil {
		return cfg, fmt.Errorf("opening render config %s: %w", filename, err)
	}
	return cfg, nil
}

func newRenderCmd() *cobra.Command {
	var config string
	flagCfg := defaultRenderConfig()
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Run the compositor on the software device and save the frames",
		Long: `Render builds the compositor for the given device file, or the default
profile, on the software device. Each frame renders the scene with the
head pose at render time and warps it for the poses at the start and end
of scan-out. Every presented frame is written to <out>/frame_NNNN.png.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultRenderConfig()
			if config != "" {
				var err error
				cfg, err = openRenderConfig(config)
				if err != nil {
					return err
				}
			}
			fl := cmd.Flags()
			if fl.Changed("frames") {
				cfg.Frames = flagCfg.Frames
			}
			if fl.Changed("refresh") {
				cfg.RefreshHz = flagCfg.RefreshHz
			}
			if fl.Changed("yaw-rate") {
				cfg.YawRate = flagCfg.YawRate
			}
			if fl.Changed("image") {
				cfg.Image = flagCfg.Image
			}
			if fl.Changed("out") {
				cfg.Out = flagCfg.Out
			}
			if fl.Changed("debug-uv") {
				cfg.Compositor.DebugUV = flagCfg.Compositor.DebugUV
			}
			p, _, err := loadProfile(args)
			if err != nil {
				return err
			}
			return render(cmd.Context(), p, cfg)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&config, "config", "c", "", "TOML render config file")
	fl.IntVarP(&flagCfg.Frames, "frames", "n", flagCfg.Frames, "number of frames to present")
	fl.Float64Var(&flagCfg.RefreshHz, "refresh", flagCfg.RefreshHz, "display refresh rate in Hz")
	fl.Float32Var(&flagCfg.YawRate, "yaw-rate", flagCfg.YawRate, "head yaw rate in degrees per second")
	fl.StringVar(&flagCfg.Image, "image", "", "scene image; a grid environment when empty")
	fl.StringVarP(&flagCfg.Out, "out", "o", flagCfg.Out, "directory to write the frames to")
	fl.BoolVar(&flagCfg.Compositor.DebugUV, "debug-uv", false, "draw the warped texture coordinates")
	return cmd
}

// render presents cfg.Frames frames of the scene on a software device
// with the display size of p, saving each one as a PNG file.
func render(ctx context.Context, p *hmd.OpticalProfile, cfg renderConfig) error {
	if cfg.Frames <= 0 || cfg.RefreshHz <= 0 {
		return fmt.Errorf("invalid frame count %d or refresh rate %g", cfg.Frames, cfg.RefreshHz)
	}
	scene, err := newScene(cfg.Image)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return err
	}

	dev := softgpu.NewDevice(image.Pt(p.DisplayPixelsWide, p.DisplayPixelsHigh))
	frame := 0
	dev.OnPresent = func(img *image.RGBA) error {
		return imagex.Save(img, filepath.Join(cfg.Out, fmt.Sprintf("frame_%04d.png", frame)))
	}
	c, err := compositor.New(dev, p, cfg.Compositor)
	if err != nil {
		return err
	}
	defer c.Release()

	poses := timewarp.YawRate{Start: math32.NewQuatIdentity(), DegreesPerSecond: cfg.YawRate}
	bar := progressbar.Default(int64(cfg.Frames), "rendering")
	defer bar.Close()
	for frame = 0; frame < cfg.Frames; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Frame(scene, poses, compositor.TimingForFrame(frame, cfg.RefreshHz)); err != nil {
			return err
		}
		errors.Log(bar.Add(1))
	}
	slog.Info("rendered frames", "frames", c.Frames, "out", cfg.Out)
	return nil
}

func newScene(filename string) (compositor.Scene, error) {
	if filename == "" {
		return softgpu.NewEnvScene(), nil
	}
	img, _, err := imagex.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening scene image: %w", err)
	}
	return softgpu.NewImageScene(img), nil
}
