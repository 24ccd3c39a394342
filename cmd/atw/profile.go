// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/atwkit/atw/hmd"
)

func newProfileCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "profile [file]",
		Short: "Validate a device file and print its profile",
		Long: `Profile loads the given device file (TOML or YAML), or the default
profile when no file is given, fills in the derived fields, validates it
and prints a summary. With -o the complete profile is written to a new
device file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, body, err := loadProfile(args)
			if err != nil {
				return err
			}
			printProfile(cmd, p, body)
			if out == "" {
				return nil
			}
			if err := hmd.Save(out, p, body); err != nil {
				return err
			}
			slog.Info("saved profile", "file", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the complete profile to this device file")
	return cmd
}

func printProfile(cmd *cobra.Command, p *hmd.OpticalProfile, body hmd.BodyProfile) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, p.String())
	fmt.Fprintf(w, "lens separation: %.5f m, meters per tan angle: %.5f\n", p.LensSeparationInMeters, p.MetersPerTanAngleAtCenter)
	fmt.Fprintf(w, "knots: %v\n", p.K)
	fmt.Fprintf(w, "chromatic aberration: %v\n", p.ChromaticAberration)
	fmt.Fprintf(w, "mesh: %d vertices per eye, %d indices\n", p.VerticesPerEye(), p.IndexCount())
	fmt.Fprintf(w, "interpupillary distance: %.4f m\n", body.InterpupillaryDistance)
}
