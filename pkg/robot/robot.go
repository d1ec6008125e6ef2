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

// Package robot defines the driver seam that sits between the
// playback scheduler and the physical robot: the scheduler never
// talks to hardware, a Driver does. This mirrors the way
// pkg/ffmpeg.Process sits between pkg/monitor and the ffmpeg binary —
// an interface the real implementation satisfies and robotmock fakes
// for tests.
package robot

import (
	"errors"
	"time"

	"motioncore/pkg/pose"
)

// ErrNotReady is returned by SendCommand when the robot has not
// finished booting or homing.
var ErrNotReady = errors.New("robot: not ready")

// ErrDisconnected is returned by SendCommand when the link to the
// robot is down.
var ErrDisconnected = errors.New("robot: disconnected")

// Driver is the external collaborator behind the robot driver seam.
// The scheduler clips every pose to Limits before
// calling SendCommand; Driver implementations are expected to enforce
// the same limits again at the wire boundary as a last line of
// defense.
type Driver interface {
	// SendCommand streams a joint-position command, asking the robot
	// to reach p no sooner than minTime from now. Returns ErrNotReady
	// or ErrDisconnected, or a driver-specific TransportFailure
	// on write failure.
	SendCommand(p pose.Pose, minTime time.Duration) error
	// Limits returns the per-joint position limits used to clip
	// trajectory output before it is sent.
	Limits() pose.Pose
	// Connected reports whether the link to the robot is currently up.
	Connected() bool
	// Ready reports whether the robot has completed homing/boot and
	// can accept motion commands.
	Ready() bool
}

// ClipLimits clips p into [-limit, limit] per joint, the default
// symmetric interpretation of Driver.Limits used when a Driver
// doesn't need anything more specific.
func ClipLimits(p pose.Pose, limit pose.Pose) pose.Pose {
	var lo pose.Pose
	for i := range lo {
		lo[i] = -limit[i]
	}
	return p.Clamp(lo, limit)
}
