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

func TestSynthesizeMatchesBoundaryPositions(t *testing.T) {
	var q0, q1, v0, v1 pose.Pose
	for i := range q0 {
		q0[i] = 0
		q1[i] = 1
		v0[i] = 0
		v1[i] = 0
	}
	limits := config.Default()

	traj := synthesize(q0, v0, q1, v1, 1.0, limits)
	require.NotEqual(t, StatusInfeasible, traj.Status)

	start := traj.PositionAt(0)
	end := traj.PositionAt(1.0)
	for i := range start {
		require.InDelta(t, q0[i], start[i], 1e-9)
		require.InDelta(t, q1[i], end[i], 1e-9)
	}
}

func TestSynthesizeIsMonotoneBetweenEqualEndpointVelocities(t *testing.T) {
	var q0, q1, v pose.Pose
	q0[0] = 0
	q1[0] = 10
	limits := config.Default()

	traj := synthesize(q0, v, q1, v, 2.0, limits)
	prev := traj.PositionAt(0)[0]
	for i := 1; i <= 20; i++ {
		tau := 2.0 * float64(i) / 20
		cur := traj.PositionAt(tau)[0]
		require.GreaterOrEqual(t, cur, prev-1e-9)
		prev = cur
	}
}

func TestSynthesizeInfeasibleWhenLimitsTooTight(t *testing.T) {
	var q0, q1, v pose.Pose
	q0[0] = 0
	q1[0] = 1000 // huge displacement
	limits := config.Default()
	limits.VMax[0] = 0.001
	limits.AMax[0] = 0.001
	limits.JMax[0] = 0.001

	traj := synthesize(q0, v, q1, v, 0.1, limits)
	require.Equal(t, StatusInfeasible, traj.Status)
}
