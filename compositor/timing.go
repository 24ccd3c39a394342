// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compositor

import (
	"fmt"
	"time"
)

// FrameTiming gives the times, since the start of the session, at which
// the poses of one frame are sampled.
type FrameTiming struct {

	// Frame is the frame number.
	Frame int

	// Render is when the scene is rendered.
	Render time.Duration

	// ScanoutStart and ScanoutEnd are when the first and the last
	// column of the display are scanned out.
	ScanoutStart time.Duration
	ScanoutEnd   time.Duration
}

// TimingForFrame returns the timing of the given frame on a display with
// the given refresh rate: the scene is rendered at the start of the frame
// period and scanned out during the following period.
func TimingForFrame(frame int, refreshHz float64) FrameTiming {
	period := time.Duration(float64(time.Second) / refreshHz)
	render := time.Duration(frame) * period
	return FrameTiming{
		Frame:        frame,
		Render:       render,
		ScanoutStart: render + period,
		ScanoutEnd:   render + 2*period,
	}
}

func (ft FrameTiming) String() string {
	return fmt.Sprintf("frame %d: render %v, scan-out %v..%v", ft.Frame, ft.Render, ft.ScanoutStart, ft.ScanoutEnd)
}
