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

// Package clip defines the time-placed clip and its blend
// configuration, and the sorted clip index plus sub-frame sampler.
package clip

import (
	"fmt"

	"motioncore/pkg/source"
)

// Mode selects how a clip's contribution is combined with others
// active at the same instant.
type Mode int

// Blend modes.
const (
	ModeOverride Mode = iota
	ModeCrossfade
	ModeAdditive
)

// Curve selects the ramp shape used for attack/decay.
type Curve int

// Ramp curve shapes.
const (
	CurveLinear Curve = iota
	CurveSmoothstep
	CurveEaseInOut
)

// Blend carries a clip's compositing configuration.
type Blend struct {
	Mode Mode
	InMs float64
	OutMs float64
	Curve Curve
	Weight float64
	Priority int
}

// Clip is a time-placed, blend-configured reference to a segment of a source.
type Clip struct {
	ID string
	SourceID string
	T0Ms float64
	InFrame int
	OutFrame int
	Blend Blend
}

// LengthMs returns the clip's length in milliseconds given its
// source's frame period.
func (c Clip) LengthMs(s source.Source) float64 {
	return float64(c.OutFrame-c.InFrame) * s.DtMs()
}

// EndMs returns the clip's active-interval end, T0Ms + LengthMs.
func (c Clip) EndMs(s source.Source) float64 {
	return c.T0Ms + c.LengthMs(s)
}

// Validate checks the invariants that don't require resolving the
// source (shape-only checks). Whether the source exists is checked
// by the caller, which has access to the store.
func (c Clip) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("clip: empty id")
	}
	if c.SourceID == "" {
		return fmt.Errorf("clip %q: empty sourceId", c.ID)
	}
	if c.T0Ms < 0 {
		return fmt.Errorf("clip %q: t0 must be non-negative, got %v", c.ID, c.T0Ms)
	}
	if c.InFrame < 0 {
		return fmt.Errorf("clip %q: inFrame must be non-negative, got %v", c.ID, c.InFrame)
	}
	if c.OutFrame <= c.InFrame {
		return fmt.Errorf("clip %q: outFrame (%v) must be greater than inFrame (%v)", c.ID, c.OutFrame, c.InFrame)
	}
	if c.Blend.Weight < 0 {
		return fmt.Errorf("clip %q: blend weight must be non-negative", c.ID)
	}
	return nil
}

// ValidateAgainstSource checks the invariant that requires knowing
// the source's frame count: outFrame <= F.
func (c Clip) ValidateAgainstSource(s source.Source) error {
	if c.OutFrame > s.FrameCount() {
		return fmt.Errorf("clip %q: outFrame (%v) exceeds source %q frame count (%v)",
			c.ID, c.OutFrame, s.ID, s.FrameCount())
	}
	return nil
}
