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
	"testing"

	"github.com/stretchr/testify/require"

	"motioncore/pkg/config"
	"motioncore/pkg/pose"
)

// lineBoundary models two constant-velocity source lines meeting
// across a gap: P's line has slope slopeP rad/ms ending at pEnd, N's
// line has slope slopeN rad/ms starting at nStart. ComposeNoBridge
// only "sees" within each clip's own active interval — everything
// else is a gap.
type lineBoundary struct {
	prevEndMs, nextStartMs float64
	pEnd, nStart float64
	slopeP, slopeN float64
}

func (b lineBoundary) ComposeNoBridge(tMs float64) (pose.Pose, bool) {
	if tMs <= b.prevEndMs {
		return constPose(b.pEnd + (tMs-b.prevEndMs)*b.slopeP), true
	}
	if tMs >= b.nextStartMs {
		return constPose(b.nStart + (tMs-b.nextStartMs)*b.slopeN), true
	}
	return pose.Pose{}, false
}

func (b lineBoundary) PrevEndFrame() pose.Pose { return constPose(b.pEnd) }
func (b lineBoundary) NextStartFrame() pose.Pose { return constPose(b.nStart) }
func (b lineBoundary) PrevEndVelocity() pose.Pose { return constPose(b.slopeP * 1000) }
func (b lineBoundary) NextStartVelocity() pose.Pose { return constPose(b.slopeN * 1000) }

func constPose(v float64) pose.Pose {
	var p pose.Pose
	for i := range p {
		p[i] = v
	}
	return p
}

func TestBridgeMatchesBoundaryPositions(t *testing.T) {
	b := lineBoundary{
		prevEndMs: 1000, nextStartMs: 2000,
		pEnd: 10, nStart: 10 - 0.02*1000, // arbitrary, just needs continuity math below
		slopeP: 0.01, slopeN: -0.02,
	}
	g := Gap{
		PrevID: "p", NextID: "n",
		PrevT0Ms: 0, NextT0Ms: 2000,
		GapStartMs: 1000, NextStartMs: 2000,
		PrevDtMs: 10, NextDtMs: 10,
	}

	s := NewSynthesizer(config.Default(), NewCache(), nil)
	traj, ok := s.Bridge(g, b)
	require.True(t, ok)
	require.NotNil(t, traj)

	require.InDelta(t, 1.0, traj.DurationSec, 1e-9)

	start := traj.PositionAt(0)
	end := traj.PositionAt(traj.DurationSec)
	wantStart, _ := b.ComposeNoBridge(g.GapStartMs - 8)
	wantEnd, _ := b.ComposeNoBridge(g.NextStartMs + 8)
	require.InDelta(t, wantStart[0], start[0], 1e-6)
	require.InDelta(t, wantEnd[0], end[0], 1e-6)
}

func TestBridgeDegenerateGapReturnsFalse(t *testing.T) {
	g := Gap{GapStartMs: 1000, NextStartMs: 999}
	s := NewSynthesizer(config.Default(), NewCache(), nil)
	traj, ok := s.Bridge(g, lineBoundary{})
	require.False(t, ok)
	require.Nil(t, traj)
}

func TestBridgeCachesByKey(t *testing.T) {
	b := lineBoundary{prevEndMs: 1000, nextStartMs: 2000, pEnd: 0, nStart: 0}
	g := Gap{
		PrevID: "p", NextID: "n",
		GapStartMs: 1000, NextStartMs: 2000,
		PrevDtMs: 10, NextDtMs: 10,
	}

	cache := NewCache()
	s := NewSynthesizer(config.Default(), cache, nil)

	t1, ok1 := s.Bridge(g, b)
	require.True(t, ok1)
	require.Equal(t, 1, cache.Len())

	t2, ok2 := s.Bridge(g, b)
	require.True(t, ok2)
	require.Same(t, t1, t2)
}
