// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package clip

import (
	"math"

	"motioncore/pkg/pose"
	"motioncore/pkg/source"
)

// SampleAt performs sub-frame linear interpolation within one clip.
// Returns ok=false if tMs falls outside the clip's active interval
// [t0, t0+length].
func SampleAt(c Clip, s source.Source, tMs float64) (p pose.Pose, ok bool) {
	length := c.LengthMs(s)
	local := tMs - c.T0Ms

	if local < 0 || local > length {
		return pose.Pose{}, false
	}

	dtMs := s.DtMs()
	f := float64(c.InFrame) + local/dtMs

	f0 := int(math.Floor(f))
	if f0 < c.InFrame {
		f0 = c.InFrame
	}
	if f0 > c.OutFrame-1 {
		f0 = c.OutFrame - 1
	}
	f1 := f0 + 1
	if f1 > c.OutFrame-1 {
		f1 = c.OutFrame - 1
	}
	frac := f - float64(f0)

	if f1 == f0 || math.Abs(frac) < 1e-12 {
		return s.Frames[f0], true
	}

	return pose.Lerp(s.Frames[f0], s.Frames[f1], frac), true
}
