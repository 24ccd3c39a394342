// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/atwkit/atw/base/errors"
	"github.com/atwkit/atw/base/iox/tomlx"
	"github.com/atwkit/atw/base/iox/yamlx"
)

// SchemaVersion is the device file version written by [Save].
const SchemaVersion = "1.0.0"

// SupportedVersions is the constraint a device file version must satisfy.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

// ErrUnsupportedVersion is returned by [Open] for a device file whose
// version does not satisfy [SupportedVersions].
var ErrUnsupportedVersion = errors.New("hmd: unsupported device file version")

// File is the on-disk description of a device and its wearer.
// Optical fields that can be derived from the tile grid may be omitted.
type File struct {

	// Version is the schema version of the file; empty means [SchemaVersion].
	Version string `toml:"version" yaml:"version"`

	// Optical is the optical profile of the display.
	Optical OpticalProfile `toml:"optical" yaml:"optical"`

	// Panel is the physical size of the whole panel, used to derive
	// the visible meters when they are omitted.
	Panel Panel `toml:"panel,omitempty" yaml:"panel,omitempty"`

	// Body describes the wearer.
	Body BodyProfile `toml:"body" yaml:"body"`
}

// Panel is the physical size of a display panel in meters.
type Panel struct {
	MetersWide float32 `toml:"meters_wide" yaml:"meters_wide"`
	MetersHigh float32 `toml:"meters_high" yaml:"meters_high"`
}

// defaultPanel is the size of the panel of the default profile.
var defaultPanel = Panel{MetersWide: 0.11047, MetersHigh: 0.06214}

// Open loads a device file in TOML (.toml) or YAML (.yaml, .yml) format,
// checks its version, fills omitted derived fields and validates the
// resulting optical profile.
func Open(filename string) (*OpticalProfile, BodyProfile, error) {
	var f File
	var err error
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".toml":
		err = tomlx.Open(&f, filename)
	case ".yaml", ".yml":
		err = yamlx.Open(&f, filename)
	default:
		return nil, BodyProfile{}, fmt.Errorf("hmd.Open: unknown device file extension %q", ext)
	}
	if err != nil {
		return nil, BodyProfile{}, fmt.Errorf("hmd.Open %s: %w", filename, err)
	}
	p, body, err := f.Profile()
	if err != nil {
		return nil, BodyProfile{}, fmt.Errorf("hmd.Open %s: %w", filename, err)
	}
	slog.Debug("loaded device file", "file", filename, "version", f.Version, "profile", p.String())
	return p, body, nil
}

// Profile checks the version of the file and returns its completed
// and validated optical profile and body profile.
func (f *File) Profile() (*OpticalProfile, BodyProfile, error) {
	if err := CheckVersion(f.Version); err != nil {
		return nil, BodyProfile{}, err
	}
	p := f.Optical
	p.K = append([]float32(nil), f.Optical.K...)
	if p.TilePixelsWide == 0 {
		p.TilePixelsWide = 32
	}
	if p.TilePixelsHigh == 0 {
		p.TilePixelsHigh = 32
	}
	if p.EyeTilesWide == 0 && p.TilePixelsWide > 0 {
		p.EyeTilesWide = p.DisplayPixelsWide / p.TilePixelsWide / NumEyes
	}
	if p.EyeTilesHigh == 0 && p.TilePixelsHigh > 0 {
		p.EyeTilesHigh = p.DisplayPixelsHigh / p.TilePixelsHigh
	}
	panel := f.Panel
	if panel.MetersWide == 0 {
		panel.MetersWide = defaultPanel.MetersWide
	}
	if panel.MetersHigh == 0 {
		panel.MetersHigh = defaultPanel.MetersHigh
	}
	p.fillDerived(panel.MetersWide, panel.MetersHigh)
	if err := p.Validate(); err != nil {
		return nil, BodyProfile{}, err
	}
	body := f.Body
	if body.InterpupillaryDistance == 0 {
		body = DefaultBody()
	}
	return &p, body, nil
}

// CheckVersion returns an error if the given device file version does
// not satisfy [SupportedVersions]. An empty version is accepted.
func CheckVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedVersion, version, err)
	}
	c := errors.Must1(semver.NewConstraint(SupportedVersions))
	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %q", ErrUnsupportedVersion, v, SupportedVersions)
	}
	return nil
}

// Save writes the given profiles to a device file, in TOML or YAML
// format depending on the extension of filename.
func Save(filename string, p *OpticalProfile, body BodyProfile) error {
	f := &File{Version: SchemaVersion, Optical: *p, Body: body}
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".toml":
		return tomlx.Save(f, filename)
	case ".yaml", ".yml":
		return yamlx.Save(f, filename)
	default:
		return fmt.Errorf("hmd.Save: unknown device file extension %q", ext)
	}
}
