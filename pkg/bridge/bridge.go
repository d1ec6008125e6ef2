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

package bridge

import (
	"math"

	"motioncore/pkg/config"
	"motioncore/pkg/log"
	"motioncore/pkg/pose"
)

// Gap describes the bounding clips of a gap in the terms the cache
// key and boundary-time math need. T0Ms/DtMs/frame bounds come
// straight off the prev/next clips and their sources.
type Gap struct {
	PrevID, NextID string
	PrevInFrame, PrevOutFrame int
	NextInFrame, NextOutFrame int
	PrevT0Ms, NextT0Ms float64
	PrevDtMs, NextDtMs float64
	GapStartMs, NextStartMs float64 // gap_start = prev.t0+prev.length ; next_start = next.t0
}

// Boundary supplies the evaluator-side facts the synthesizer needs
// but doesn't own: composing the blend stack without bridge
// involvement, and the raw-source fallbacks used when that
// composition yields no overlap influence. The synthesizer never
// reaches back into the clip/source/blend packages directly.
type Boundary interface {
	// ComposeNoBridge returns the blended pose at tMs using only
	// active clips, with no gap-filling. ok is false if no clip is
	// active at tMs.
	ComposeNoBridge(tMs float64) (p pose.Pose, ok bool)
	// PrevEndFrame is prev's source's last in-range frame.
	PrevEndFrame() pose.Pose
	// NextStartFrame is next's source's first in-range frame.
	NextStartFrame() pose.Pose
	// PrevEndVelocity is the central-difference velocity (rad/s) of
	// prev's source at its out boundary.
	PrevEndVelocity() pose.Pose
	// NextStartVelocity is the central-difference velocity (rad/s) of
	// next's source at its in boundary.
	NextStartVelocity() pose.Pose
}

// Synthesizer builds and caches bridge trajectories.
type Synthesizer struct {
	limits config.Limits
	cache *Cache
	log *log.Logger
}

// NewSynthesizer returns a Synthesizer backed by cache. log may be
// nil in tests where BridgeInfeasible warnings aren't inspected.
func NewSynthesizer(limits config.Limits, cache *Cache, logger *log.Logger) *Synthesizer {
	return &Synthesizer{limits: limits, cache: cache, log: logger}
}

// maxHalfStepMs is the cap on the boundary-estimation half-step, in ms.
const maxHalfStepMs = 8.0

// jerkRetryFactor is applied once to every joint's jerk limit when
// the first synthesis attempt is infeasible.
const jerkRetryFactor = 1.25

// Bridge returns the trajectory filling g, from cache if a fresh one
// is already there. ok is false if the gap is degenerate
// (next_start <= gap_start) or synthesis failed twice — the caller
// holds prev's end pose in both cases.
func (s *Synthesizer) Bridge(g Gap, b Boundary) (*Trajectory, bool) {
	gapMs := g.NextStartMs - g.GapStartMs
	if gapMs <= 0 {
		return nil, false
	}

	key := CacheKey{
		PrevID: g.PrevID, NextID: g.NextID,
		PrevInFrame: g.PrevInFrame, PrevOutFrame: g.PrevOutFrame,
		NextInFrame: g.NextInFrame, NextOutFrame: g.NextOutFrame,
		PrevT0Ms: g.PrevT0Ms, NextT0Ms: g.NextT0Ms,
		PrevDtMsRounded: roundToEven(g.PrevDtMs),
		NextDtMsRounded: roundToEven(g.NextDtMs),
	}

	if traj, ok := s.cache.Get(key, gapMs); ok {
		return traj, traj != nil
	}

	traj := s.solve(g, b, gapMs)
	s.cache.Put(key, gapMs, traj)
	return traj, traj != nil
}

func (s *Synthesizer) solve(g Gap, b Boundary, gapMs float64) *Trajectory {
	h := g.PrevDtMs
	if g.NextDtMs < h {
		h = g.NextDtMs
	}
	if maxHalfStepMs < h {
		h = maxHalfStepMs
	}
	hSec := h / 1000

	q0, ok := b.ComposeNoBridge(g.GapStartMs - h)
	if !ok {
		q0 = b.PrevEndFrame()
	}
	q1, ok := b.ComposeNoBridge(g.NextStartMs + h)
	if !ok {
		q1 = b.NextStartFrame()
	}

	v0 := estimateVelocity(b, g.GapStartMs, h, hSec, b.PrevEndVelocity())
	v1 := estimateVelocity(b, g.NextStartMs, h, hSec, b.NextStartVelocity())

	durationSec := gapMs / 1000

	traj := synthesize(q0, v0, q1, v1, durationSec, s.limits)
	if traj.Status != StatusInfeasible {
		return traj
	}

	relaxed := s.limits
	for i := range relaxed.JMax {
		relaxed.JMax[i] *= jerkRetryFactor
	}
	retry := synthesize(q0, v0, q1, v1, durationSec, relaxed)
	if retry.Status == StatusInfeasible {
		if s.log != nil {
			s.log.Warn().Src("bridge").Clip(g.PrevID+"->"+g.NextID).
				Msgf("bridge infeasible after jerk retry, gap=%.1fms", gapMs)
		}
		return nil
	}
	retry.Status = StatusWorking
	return retry
}

// estimateVelocity computes the central-difference velocity around
// centerMs, falling back to fallback if either side of the
// difference has no blend-stack coverage.
func estimateVelocity(b Boundary, centerMs, h, hSec float64, fallback pose.Pose) pose.Pose {
	plus, okP := b.ComposeNoBridge(centerMs + h)
	minus, okM := b.ComposeNoBridge(centerMs - h)
	if !okP || !okM {
		return fallback
	}
	return plus.Sub(minus).Scale(1 / (2 * hSec))
}

func roundToEven(v float64) int64 {
	return int64(math.RoundToEven(v))
}
