// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hmd describes the static optical and geometric constants of a
// head-mounted display, and of the person wearing it.
package hmd

import (
	"fmt"

	"github.com/atwkit/atw/base/errors"
	"github.com/atwkit/atw/math32"
)

// NumEyes is the number of eyes (and eye viewports) of a display.
const NumEyes = 2

// Configuration errors reported by [OpticalProfile.Validate].
var (
	// ErrTooFewKnots means the distortion profile has fewer than two knots.
	ErrTooFewKnots = errors.New("hmd: distortion profile needs at least two knots")

	// ErrZeroTiles means the per-eye tile grid is empty.
	ErrZeroTiles = errors.New("hmd: eye tile counts must be positive")

	// ErrInvalidGeometry means a size used as a divisor is zero or
	// negative, or a geometry value is not finite.
	ErrInvalidGeometry = errors.New("hmd: invalid display geometry")

	// ErrInvalidKnots means a distortion knot or chromatic aberration
	// coefficient is NaN or infinite.
	ErrInvalidKnots = errors.New("hmd: distortion coefficients must be finite")
)

// OpticalProfile holds the per-device optical and geometric constants
// used to build the distortion mesh. It is treated as immutable once
// constructed.
type OpticalProfile struct {

	// DisplayPixelsWide is the width of the whole panel in pixels (both eyes).
	DisplayPixelsWide int `toml:"display_pixels_wide" yaml:"display_pixels_wide"`

	// DisplayPixelsHigh is the height of the panel in pixels.
	DisplayPixelsHigh int `toml:"display_pixels_high" yaml:"display_pixels_high"`

	// TilePixelsWide is the width of one mesh tile in pixels.
	TilePixelsWide int `toml:"tile_pixels_wide" yaml:"tile_pixels_wide"`

	// TilePixelsHigh is the height of one mesh tile in pixels.
	TilePixelsHigh int `toml:"tile_pixels_high" yaml:"tile_pixels_high"`

	// EyeTilesWide is the number of mesh tiles across one eye.
	EyeTilesWide int `toml:"eye_tiles_wide" yaml:"eye_tiles_wide"`

	// EyeTilesHigh is the number of mesh tiles down one eye.
	EyeTilesHigh int `toml:"eye_tiles_high" yaml:"eye_tiles_high"`

	// VisiblePixelsWide is the width covered by the tiles of both eyes.
	VisiblePixelsWide int `toml:"visible_pixels_wide" yaml:"visible_pixels_wide"`

	// VisiblePixelsHigh is the height covered by the tiles.
	VisiblePixelsHigh int `toml:"visible_pixels_high" yaml:"visible_pixels_high"`

	// VisibleMetersWide is the physical width of the visible panel area.
	VisibleMetersWide float32 `toml:"visible_meters_wide" yaml:"visible_meters_wide"`

	// VisibleMetersHigh is the physical height of the visible panel area.
	VisibleMetersHigh float32 `toml:"visible_meters_high" yaml:"visible_meters_high"`

	// LensSeparationInMeters is the distance between the two lens centers.
	LensSeparationInMeters float32 `toml:"lens_separation_meters" yaml:"lens_separation_meters"`

	// MetersPerTanAngleAtCenter converts panel meters to tan-angle
	// units at the optical center.
	MetersPerTanAngleAtCenter float32 `toml:"meters_per_tan_angle" yaml:"meters_per_tan_angle"`

	// K are the radial magnification knots, sampled at uniformly
	// spaced squared tan-angle radius rsq = i/(len(K)-1).
	K []float32 `toml:"knots" yaml:"knots"`

	// ChromaticAberration is red linear, red quadratic,
	// blue linear, blue quadratic. Green uses the unmodified scale.
	ChromaticAberration [4]float32 `toml:"chromatic_aberration" yaml:"chromatic_aberration"`
}

// BodyProfile holds the measurements of the wearer.
type BodyProfile struct {

	// InterpupillaryDistance is the distance between the pupils in meters.
	InterpupillaryDistance float32 `toml:"interpupillary_distance" yaml:"interpupillary_distance"`
}

// EyeOffset returns the horizontal offset in meters of the given eye
// from the center of the head: negative for eye 0 (left),
// positive for eye 1 (right).
func (b *BodyProfile) EyeOffset(eye int) float32 {
	if eye == 0 {
		return -0.5 * b.InterpupillaryDistance
	}
	return 0.5 * b.InterpupillaryDistance
}

// Default returns the default profile for a 1920x1080 panel.
func Default() *OpticalProfile {
	return DefaultFor(1920, 1080)
}

// DefaultFor returns a default profile for a panel of the given size,
// with 32 pixel tiles and an 11-knot magnification profile.
func DefaultFor(displayPixelsWide, displayPixelsHigh int) *OpticalProfile {
	p := &OpticalProfile{
		DisplayPixelsWide:         displayPixelsWide,
		DisplayPixelsHigh:         displayPixelsHigh,
		TilePixelsWide:            32,
		TilePixelsHigh:            32,
		MetersPerTanAngleAtCenter: 0.037,
		K:                         []float32{1.0, 1.021, 1.051, 1.086, 1.128, 1.177, 1.232, 1.295, 1.368, 1.452, 1.560},
		ChromaticAberration:       [4]float32{-0.006, 0.0, 0.014, 0.0},
	}
	p.EyeTilesWide = displayPixelsWide / p.TilePixelsWide / NumEyes
	p.EyeTilesHigh = displayPixelsHigh / p.TilePixelsHigh
	p.fillDerived(0.11047, 0.06214)
	return p
}

// DefaultBody returns the default body profile.
func DefaultBody() BodyProfile {
	return BodyProfile{InterpupillaryDistance: 0.0640}
}

// fillDerived sets the visible pixel and meter sizes and the lens
// separation from the tile grid, for a panel of the given physical size,
// leaving any value that is already set.
func (p *OpticalProfile) fillDerived(panelMetersWide, panelMetersHigh float32) {
	if p.VisiblePixelsWide == 0 {
		p.VisiblePixelsWide = p.EyeTilesWide * p.TilePixelsWide * NumEyes
	}
	if p.VisiblePixelsHigh == 0 {
		p.VisiblePixelsHigh = p.EyeTilesHigh * p.TilePixelsHigh
	}
	if p.VisibleMetersWide == 0 && p.DisplayPixelsWide > 0 {
		p.VisibleMetersWide = panelMetersWide * float32(p.VisiblePixelsWide) / float32(p.DisplayPixelsWide)
	}
	if p.VisibleMetersHigh == 0 && p.DisplayPixelsHigh > 0 {
		p.VisibleMetersHigh = panelMetersHigh * float32(p.VisiblePixelsHigh) / float32(p.DisplayPixelsHigh)
	}
	if p.LensSeparationInMeters == 0 {
		p.LensSeparationInMeters = p.VisibleMetersWide / NumEyes
	}
}

// NumKnots returns the number of distortion knots.
func (p *OpticalProfile) NumKnots() int {
	return len(p.K)
}

// VerticesPerEye returns the number of mesh vertices for one eye.
func (p *OpticalProfile) VerticesPerEye() int {
	return (p.EyeTilesHigh + 1) * (p.EyeTilesWide + 1)
}

// IndexCount returns the number of triangle indices shared by both eyes.
func (p *OpticalProfile) IndexCount() int {
	return p.EyeTilesHigh * p.EyeTilesWide * 6
}

// Validate checks that the profile can produce a non-degenerate mesh,
// and that no value the mesh builder divides by is zero.
func (p *OpticalProfile) Validate() error {
	if len(p.K) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewKnots, len(p.K))
	}
	if p.EyeTilesWide <= 0 || p.EyeTilesHigh <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrZeroTiles, p.EyeTilesWide, p.EyeTilesHigh)
	}
	for i, k := range p.K {
		if !math32.IsFinite(k) {
			return fmt.Errorf("%w: knot %d is %g", ErrInvalidKnots, i, k)
		}
	}
	for i, c := range p.ChromaticAberration {
		if !math32.IsFinite(c) {
			return fmt.Errorf("%w: chromatic aberration %d is %g", ErrInvalidKnots, i, c)
		}
	}
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"meters per tan angle", p.MetersPerTanAngleAtCenter},
		{"visible meters wide", p.VisibleMetersWide},
		{"visible meters high", p.VisibleMetersHigh},
		{"lens separation", p.LensSeparationInMeters},
	} {
		if !math32.IsFinite(f.v) {
			return fmt.Errorf("%w: %s is %g", ErrInvalidGeometry, f.name, f.v)
		}
	}
	switch {
	case p.MetersPerTanAngleAtCenter == 0:
		return fmt.Errorf("%w: meters per tan angle is zero", ErrInvalidGeometry)
	case p.VisibleMetersWide <= 0 || p.VisibleMetersHigh <= 0:
		return fmt.Errorf("%w: visible meters %gx%g", ErrInvalidGeometry, p.VisibleMetersWide, p.VisibleMetersHigh)
	case p.VisiblePixelsWide <= 0 || p.VisiblePixelsHigh <= 0:
		return fmt.Errorf("%w: visible pixels %dx%d", ErrInvalidGeometry, p.VisiblePixelsWide, p.VisiblePixelsHigh)
	case p.DisplayPixelsWide <= 0 || p.DisplayPixelsHigh <= 0:
		return fmt.Errorf("%w: display pixels %dx%d", ErrInvalidGeometry, p.DisplayPixelsWide, p.DisplayPixelsHigh)
	case p.TilePixelsHigh <= 0:
		return fmt.Errorf("%w: tile height %d", ErrInvalidGeometry, p.TilePixelsHigh)
	}
	return nil
}

// String returns a one-line summary of the profile.
func (p *OpticalProfile) String() string {
	return fmt.Sprintf("%dx%d display, %dx%d tiles/eye of %dx%d px, %d knots, %.4gx%.4g m visible",
		p.DisplayPixelsWide, p.DisplayPixelsHigh, p.EyeTilesWide, p.EyeTilesHigh,
		p.TilePixelsWide, p.TilePixelsHigh, len(p.K), p.VisibleMetersWide, p.VisibleMetersHigh)
}
