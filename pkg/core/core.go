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

// Package core implements the trajectory evaluator: the single entry
// point that composes the active blend stack, falls back to the
// bridge synthesizer across gaps, and exposes eval_at/eval_range to
// the playback scheduler and the API layer. Every exported method
// takes the same coarse lock — no sub-component does its own
// locking, mirroring pkg/monitor.Manager, whose mutex guards every
// monitor map access the same way.
package core

import (
	"fmt"
	"math"
	"sync"

	"motioncore/pkg/blend"
	"motioncore/pkg/bridge"
	"motioncore/pkg/clip"
	"motioncore/pkg/config"
	"motioncore/pkg/log"
	"motioncore/pkg/pose"
	"motioncore/pkg/source"
)

// Project is the unit SetProject swaps in atomically: every source
// the clips reference, plus the clips themselves.
type Project struct {
	Sources map[string]source.Source
	Clips []clip.Clip
}

// Core owns the current project and the two caches derived from it
// (the clip index and the bridge cache), and answers eval_at/eval_range
// under a single mutex.
type Core struct {
	mu sync.Mutex // L: guards everything below.

	limits config.Limits
	log *log.Logger

	store *source.Store
	index *clip.Index
	cache *bridge.Cache
	synth *bridge.Synthesizer
	hasProject bool
}

// New returns an empty Core (no project loaded; eval_at/eval_range
// return the zero pose until SetProject is called).
func New(limits config.Limits, logger *log.Logger) *Core {
	cache := bridge.NewCache()
	return &Core{
		limits: limits,
		log: logger,
		cache: cache,
		synth: bridge.NewSynthesizer(limits, cache, logger),
	}
}

// SetProject validates and installs a new project, rejecting it
// wholesale on the first invariant violation. The bridge cache is
// cleared because it is keyed on clip/source identity that no longer
// applies once the project changes.
func (c *Core) SetProject(p Project) error {
	store, err := source.NewStore(p.Sources)
	if err != nil {
		return invariantViolation("%v", err)
	}

	for _, cl := range p.Clips {
		if err := cl.Validate(); err != nil {
			return invariantViolation("%v", err)
		}
		s, ok := store.Get(cl.SourceID)
		if !ok {
			return invariantViolation("clip %q: unknown sourceId %q", cl.ID, cl.SourceID)
		}
		if err := cl.ValidateAgainstSource(s); err != nil {
			return invariantViolation("%v", err)
		}
	}

	index := clip.NewIndex(p.Clips)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = store
	c.index = index
	c.cache.Clear()
	c.hasProject = true
	return nil
}

// EvalAt returns the pose at tMs. It never errors: an
// empty project, a position before the first clip, or a position
// after the last clip all resolve to the zero pose rather than a
// fault, matching "no undefined states" design.
func (c *Core) EvalAt(tMs float64) pose.Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evalAtLocked(tMs)
}

func (c *Core) evalAtLocked(tMs float64) pose.Pose {
	if !c.hasProject {
		return pose.Pose{}
	}

	if p, ok := blend.Compose(c.index.All(), c.store, tMs); ok {
		return p
	}

	prev, prevOK, next, nextOK := c.index.FindNeighbors(tMs)
	if !prevOK || !nextOK {
		// Only one side exists (or neither): nothing to bridge between,
		// so there is no pose to hold either. See DESIGN.md for why
		// this reads zero rather than the lone neighbor's endpoint.
		return pose.Pose{}
	}

	prevSrc, ok := c.store.Get(prev.SourceID)
	if !ok {
		return pose.Pose{}
	}
	nextSrc, ok := c.store.Get(next.SourceID)
	if !ok {
		return pose.Pose{}
	}

	g := bridge.Gap{
		PrevID: prev.ID, NextID: next.ID,
		PrevInFrame: prev.InFrame, PrevOutFrame: prev.OutFrame,
		NextInFrame: next.InFrame, NextOutFrame: next.OutFrame,
		PrevT0Ms: prev.T0Ms, NextT0Ms: next.T0Ms,
		PrevDtMs: prevSrc.DtMs(), NextDtMs: nextSrc.DtMs(),
		GapStartMs: prev.EndMs(prevSrc), NextStartMs: next.T0Ms,
	}

	b := coreBoundary{
		core: c,
		prev: prev, next: next,
		prevSrc: prevSrc, nextSrc: nextSrc,
	}

	traj, ok := c.synth.Bridge(g, b)
	if !ok {
		// Degenerate (reversed/overlapping) gap or synthesis failed
		// twice: hold prev's end pose until next starts.
		return b.PrevEndFrame()
	}

	tau := (tMs - g.GapStartMs) / 1000
	if tau < 0 {
		tau = 0
	}
	if tau > traj.DurationSec {
		tau = traj.DurationSec
	}
	return traj.PositionAt(tau)
}

// EvalRange samples eval_at over [t0, t1] at stepMs intervals,
// inclusive of t1 within a microsecond tolerance so float accumulation
// in the loop doesn't drop the final sample.
func (c *Core) EvalRange(t0, t1, stepMs float64) ([]pose.Pose, error) {
	if stepMs < 1.0 {
		return nil, invariantViolation("step_ms must be >= 1.0, got %v", stepMs)
	}
	if t1 < t0 {
		return nil, invariantViolation("t1 (%v) must be >= t0 (%v)", t1, t0)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	const tolMs = 1e-3 // one microsecond
	n := int((t1-t0+tolMs)/stepMs) + 1
	out := make([]pose.Pose, 0, n)
	for t := t0; t <= t1+tolMs; t += stepMs {
		out = append(out, c.evalAtLocked(math.RoundToEven(t)))
	}
	return out, nil
}

// coreBoundary implements bridge.Boundary by reaching back into the
// Core's store/index — the capability-injection seam between the
// bridge synthesizer and the rest of the evaluator. It must only be
// used while c.mu is held.
type coreBoundary struct {
	core *Core
	prev, next clip.Clip
	prevSrc source.Source
	nextSrc source.Source
}

func (b coreBoundary) ComposeNoBridge(tMs float64) (pose.Pose, bool) {
	return blend.Compose(b.core.index.All(), b.core.store, tMs)
}

func (b coreBoundary) PrevEndFrame() pose.Pose {
	return b.prevSrc.Frames[b.prev.OutFrame-1]
}

func (b coreBoundary) NextStartFrame() pose.Pose {
	return b.nextSrc.Frames[b.next.InFrame]
}

func (b coreBoundary) PrevEndVelocity() pose.Pose {
	return frameVelocity(b.prevSrc, b.prev.OutFrame-1)
}

func (b coreBoundary) NextStartVelocity() pose.Pose {
	return frameVelocity(b.nextSrc, b.next.InFrame)
}

// frameVelocity estimates the velocity at frame idx of s by central
// difference, falling back to a one-sided difference at the source's
// own boundaries and to the zero pose for a single-frame source.
func frameVelocity(s source.Source, idx int) pose.Pose {
	n := s.FrameCount()
	if n < 2 {
		return pose.Pose{}
	}

	lo, hi := idx-1, idx+1
	if lo < 0 {
		lo = idx
	}
	if hi >= n {
		hi = idx
	}
	if lo == hi {
		if lo > 0 {
			lo--
		} else {
			hi++
		}
	}

	dt := s.Dt * float64(hi-lo)
	return s.Frames[hi].Sub(s.Frames[lo]).Scale(1 / dt)
}

// String satisfies fmt.Stringer for debugging/log output.
func (p Project) String() string {
	return fmt.Sprintf("Project{sources=%d, clips=%d}", len(p.Sources), len(p.Clips))
}
