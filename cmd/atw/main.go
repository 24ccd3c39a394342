// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command atw inspects head-mounted display profiles, exports their
// distortion meshes, and runs the timewarp compositor on the software
// device, writing every presented frame to a PNG file.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/atwkit/atw/base/errors"
	"github.com/atwkit/atw/base/logx"
	"github.com/atwkit/atw/hmd"
)

func main() {
	logx.SetDefault()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if errors.Log(err) != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "atw",
		Short:         "Asynchronous timewarp distortion tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logx.UserLevel.Set(slog.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
	root.AddCommand(newProfileCmd(), newMeshCmd(), newRenderCmd())
	return root
}

// loadProfile opens the device file named by the first argument, or
// returns the default profiles when there is none.
func loadProfile(args []string) (*hmd.OpticalProfile, hmd.BodyProfile, error) {
	if len(args) == 0 {
		slog.Debug("using default profile")
		return hmd.Default(), hmd.DefaultBody(), nil
	}
	return hmd.Open(args[0])
}
