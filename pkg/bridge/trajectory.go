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

// Package bridge synthesizes the jerk-limited position/velocity
// matched trajectory that fills a gap between clips
// and caches it keyed on the bounding clips.
package bridge

import (
	"motioncore/pkg/config"
	"motioncore/pkg/pose"
)

// Status reports whether a synthesized Trajectory met every joint's
// limits ("finished"), met them only after the jerk-relaxation retry
// ("working" — treats this as a success too), or could
// not be made to fit ("infeasible").
type Status int

// Trajectory synthesis outcomes.
const (
	StatusFinished Status = iota
	StatusWorking
	StatusInfeasible
)

// jointQuintic holds the six coefficients of one joint's quintic
// position polynomial over [0, duration].
type jointQuintic [6]float64

func (q jointQuintic) position(t float64) float64 {
	return q[0] + t*(q[1]+t*(q[2]+t*(q[3]+t*(q[4]+t*q[5]))))
}

func (q jointQuintic) velocity(t float64) float64 {
	return q[1] + t*(2*q[2]+t*(3*q[3]+t*(4*q[4]+t*5*q[5])))
}

func (q jointQuintic) acceleration(t float64) float64 {
	return 2*q[2] + t*(6*q[3]+t*(12*q[4]+t*20*q[5]))
}

func (q jointQuintic) jerk(t float64) float64 {
	return 6*q[3] + t*(24*q[4]+t*60*q[5])
}

// quinticCoeffs computes the unique quintic polynomial matching
// boundary position and velocity at t=0 and t=T, with zero
// acceleration at both ends.
func quinticCoeffs(p0, v0, p1, v1, durT float64) jointQuintic {
	t := durT
	t2 := t * t
	t3 := t2 * t
	t4 := t3 * t
	t5 := t4 * t

	dp := p1 - p0

	c0 := p0
	c1 := v0
	c2 := 0.0
	c3 := (10*dp - (4*v1+6*v0)*t) / t3
	c4 := (15*(-dp) + (7*v1+8*v0)*t) / t4
	c5 := (6*dp - 3*(v1+v0)*t) / t5

	return jointQuintic{c0, c1, c2, c3, c4, c5}
}

// Trajectory is a per-joint jerk-limited interpolant spanning exactly
// DurationSec seconds.
type Trajectory struct {
	DurationSec float64
	Status Status

	joints [pose.DOF]jointQuintic
}

// feasibilityCheckSteps is the resolution used to check velocity,
// acceleration and jerk against limits across the trajectory. Exact
// extrema of a quintic and its derivatives are reachable in closed
// form, but a dense uniform scan is simpler and plenty precise for
// the millisecond-granularity limits this core works with.
const feasibilityCheckSteps = 64

// synthesize builds the quintic trajectory matching (q0, v0) at tau=0
// and (q1, v1) at tau=durationSec, with zero boundary accelerations,
// then checks it against limits. If it violates any joint's v/a/j
// limit, the caller is expected to retry with relaxed limits.
func synthesize(q0, v0, q1, v1 pose.Pose, durationSec float64, limits config.Limits) *Trajectory {
	traj := &Trajectory{DurationSec: durationSec}

	feasible := true
	for j := 0; j < pose.DOF; j++ {
		qc := quinticCoeffs(q0[j], v0[j], q1[j], v1[j], durationSec)
		traj.joints[j] = qc

		if !withinLimits(qc, durationSec, limits.VMax[j], limits.AMax[j], limits.JMax[j]) {
			feasible = false
		}
	}

	if feasible {
		traj.Status = StatusFinished
	} else {
		traj.Status = StatusInfeasible
	}
	return traj
}

func withinLimits(qc jointQuintic, duration, vMax, aMax, jMax float64) bool {
	for i := 0; i <= feasibilityCheckSteps; i++ {
		t := duration * float64(i) / float64(feasibilityCheckSteps)
		if absGT(qc.velocity(t), vMax) {
			return false
		}
		if absGT(qc.acceleration(t), aMax) {
			return false
		}
		if absGT(qc.jerk(t), jMax) {
			return false
		}
	}
	return true
}

func absGT(v, limit float64) bool {
	if v < 0 {
		v = -v
	}
	return v > limit
}

// PositionAt samples the trajectory's position at tau seconds into
// it, clamped to [0, DurationSec].
func (t *Trajectory) PositionAt(tau float64) pose.Pose {
	if tau < 0 {
		tau = 0
	}
	if tau > t.DurationSec {
		tau = t.DurationSec
	}
	var out pose.Pose
	for j := range out {
		out[j] = t.joints[j].position(tau)
	}
	return out
}
