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

// Package robotmock provides a scriptable fake robot.Driver for
// playback scheduler tests, the same role ffmpeg/ffmock plays for
// pkg/monitor.
package robotmock

import (
	"sync"
	"time"

	"motioncore/pkg/pose"
	"motioncore/pkg/robot"
)

// Config scripts a mock Driver's behavior.
type Config struct {
	Connected bool
	Ready bool
	Limit float64 // symmetric per-joint limit; 0 means a very large default.
	ReturnErr error // if non-nil, every SendCommand fails with this.
}

// Driver records every command sent to it and replays Config's
// scripted outcome.
type Driver struct {
	c Config

	mu sync.Mutex
	commands []Command
}

// Command is one recorded SendCommand call.
type Command struct {
	Pose pose.Pose
	MinTime time.Duration
}

// New returns a Driver behaving per c.
func New(c Config) *Driver {
	if c.Limit == 0 {
		c.Limit = 1e6
	}
	return &Driver{c: c}
}

// SendCommand implements robot.Driver.
func (d *Driver) SendCommand(p pose.Pose, minTime time.Duration) error {
	if !d.c.Connected {
		return robot.ErrDisconnected
	}
	if !d.c.Ready {
		return robot.ErrNotReady
	}
	if d.c.ReturnErr != nil {
		return d.c.ReturnErr
	}

	d.mu.Lock()
	d.commands = append(d.commands, Command{Pose: p, MinTime: minTime})
	d.mu.Unlock()
	return nil
}

// Limits implements robot.Driver.
func (d *Driver) Limits() pose.Pose {
	var p pose.Pose
	for i := range p {
		p[i] = d.c.Limit
	}
	return p
}

// Connected implements robot.Driver.
func (d *Driver) Connected() bool { return d.c.Connected }

// Ready implements robot.Driver.
func (d *Driver) Ready() bool { return d.c.Ready }

// Commands returns every command recorded so far.
func (d *Driver) Commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Command, len(d.commands))
	copy(out, d.commands)
	return out
}

// LastCommand returns the most recent command, or ok=false if none
// have been sent.
func (d *Driver) LastCommand() (Command, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.commands) == 0 {
		return Command{}, false
	}
	return d.commands[len(d.commands)-1], true
}
