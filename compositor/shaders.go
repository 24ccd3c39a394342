// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compositor

import _ "embed"

// ProgramName is the name of the timewarp program.
const ProgramName = "timewarp"

// ProgramSource is the WGSL source of the timewarp program, with entry
// points vs_main and fs_main. Its stages compute the same as
// [WarpVertex] and [ShadeFragment].
//
//go:embed shaders/timewarp.wgsl
var ProgramSource string
