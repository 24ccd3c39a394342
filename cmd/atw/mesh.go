// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/atwkit/atw/base/errors"
	"github.com/atwkit/atw/distort"
)

func newMeshCmd() *cobra.Command {
	var out string
	var watch bool
	cmd := &cobra.Command{
		Use:   "mesh [file]",
		Short: "Build the distortion mesh of a device file and export it",
		Long: `Mesh builds the distortion mesh of the given device file, or of the
default profile, and writes it in the binary mesh format. With --watch the
device file is watched and the mesh is rebuilt whenever it changes, until
interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := exportMesh(args, out); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("--watch needs a device file")
			}
			return watchMesh(cmd.Context(), args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "mesh.bin", "mesh file to write")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild the mesh when the device file changes")
	return cmd
}

// exportMesh builds the mesh of the profile named by args and writes it
// to out, replacing out only once the whole mesh is written.
func exportMesh(args []string, out string) error {
	p, _, err := loadProfile(args)
	if err != nil {
		return err
	}
	m, err := distort.BuildDistortionMesh(p)
	if err != nil {
		return err
	}
	tmp := out + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	n, err := m.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, out); err != nil {
		return err
	}
	slog.Info("wrote mesh", "file", out, "bytes", n, "tiles", fmt.Sprintf("%dx%d", m.TilesWide, m.TilesHigh))
	return nil
}

// watchMesh rebuilds the mesh every time the device file is written,
// until ctx is done. The directory is watched so that editors that
// replace the file are seen too.
func watchMesh(ctx context.Context, filename, out string) error {
	watch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watch.Close()
	if err := watch.Add(filepath.Dir(filename)); err != nil {
		return err
	}
	slog.Info("watching device file", "file", filename)
	target := filepath.Clean(filename)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watch.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			slog.Debug("device file changed", "op", event.Op.String())
			// a broken edit keeps the last good mesh
			errors.Log(exportMesh([]string{filename}, out))
		case err, ok := <-watch.Errors:
			if !ok {
				return nil
			}
			errors.Log(err)
		}
	}
}
