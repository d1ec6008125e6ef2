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

// Package playback implements the fixed-rate playback loop: it
// samples the trajectory evaluator on a wall-clock schedule and
// streams joint commands to the robot driver. It never imports
// pkg/core directly — the evaluator is just two injected function
// values, the same way pkg/monitor.Monitor takes
// startRecordingFunc/NewProcessFunc fields instead of owning its
// collaborators outright.
package playback

import (
	"sync"
	"sync/atomic"
	"time"

	"motioncore/pkg/config"
	"motioncore/pkg/hostload"
	"motioncore/pkg/log"
	"motioncore/pkg/pose"
	"motioncore/pkg/robot"
)

// EvalAtFunc samples the evaluator at one instant.
type EvalAtFunc func(tMs float64) pose.Pose

// EvalRangeFunc samples the evaluator over a range.
type EvalRangeFunc func(t0, t1, stepMs float64) ([]pose.Pose, error)

// HostLoadFunc reports the most recent host-load sample. May be nil,
// in which case State reports the zero Status.
type HostLoadFunc func() hostload.Status

// preRollMinTime is the minimum time for the single position command
// sent before the loop starts.
const preRollMinTime = 2 * time.Second

// joinTimeout bounds how long StopPlay waits for the loop goroutine
// to exit before giving up.
const joinTimeout = 1 * time.Second

// State is the snapshot returned by Scheduler.State.
type State struct {
	Playing      bool
	MarkerMs     float64
	TeleopActive bool
	Connected    bool
	Ready        bool
	HostLoad     hostload.Status
}

// Scheduler drives robot.Driver at a fixed control period, sampling
// an injected evaluator for each tick's joint command.
type Scheduler struct {
	evalAt    EvalAtFunc
	evalRange EvalRangeFunc
	driver    robot.Driver
	limits    config.Limits
	log       *log.Logger
	hostLoad  HostLoadFunc

	mu           sync.Mutex
	playing      bool
	markerMs     float64
	teleopActive bool
	done         chan struct{}

	stopFlag atomic.Bool
}

// New returns an idle Scheduler. evalAt/evalRange may be nil only in
// tests that never call StartPlay. hostLoad may be nil, in which case
// State reports the zero Status.
func New(
	evalAt EvalAtFunc,
	evalRange EvalRangeFunc,
	driver robot.Driver,
	limits config.Limits,
	logger *log.Logger,
	hostLoad HostLoadFunc,
) *Scheduler {
	return &Scheduler{
		evalAt:    evalAt,
		evalRange: evalRange,
		driver:    driver,
		limits:    limits,
		log:       logger,
		hostLoad:  hostLoad,
	}
}

// SetTeleopActive records whether the external tele-op path currently
// owns the robot. StartPlay's precondition checks this.
func (s *Scheduler) SetTeleopActive(active bool) {
	s.mu.Lock()
	s.teleopActive = active
	s.mu.Unlock()
}

// State returns a snapshot of the scheduler, driver and host-load state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	var load hostload.Status
	if s.hostLoad != nil {
		load = s.hostLoad()
	}
	return State{
		Playing:      s.playing,
		MarkerMs:     s.markerMs,
		TeleopActive: s.teleopActive,
		Connected:    s.driver.Connected(),
		Ready:        s.driver.Ready(),
		HostLoad:     load,
	}
}

// StartPlay checks preconditions, sends a pre-roll command to t0, and
// if acknowledged spawns the tick loop.
func (s *Scheduler) StartPlay(t0Ms float64) error {
	if s.evalAt == nil || s.evalRange == nil {
		return ErrNoEvaluator
	}

	s.mu.Lock()
	if s.playing {
		s.mu.Unlock()
		return precondition("already playing")
	}
	if s.teleopActive {
		s.mu.Unlock()
		return precondition("tele-op is active")
	}
	if !s.driver.Connected() {
		s.mu.Unlock()
		return precondition("robot not connected")
	}
	if !s.driver.Ready() {
		s.mu.Unlock()
		return precondition("robot not ready")
	}
	s.mu.Unlock()

	initial, err := s.evalRange(t0Ms, t0Ms, s.periodMs())
	if err != nil {
		return precondition("could not sample initial pose: " + err.Error())
	}
	if len(initial) == 0 {
		return precondition("evaluator returned no samples for pre-roll")
	}

	clipped := robot.ClipLimits(initial[0], s.driver.Limits())
	if err := s.driver.SendCommand(clipped, preRollMinTime); err != nil {
		return err
	}

	s.mu.Lock()
	s.playing = true
	s.markerMs = t0Ms
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()
	s.stopFlag.Store(false)

	go s.run(t0Ms, done)
	return nil
}

func (s *Scheduler) periodMs() float64 {
	return s.limits.Period * 1000
}

// run is the fixed-rate tick loop. It sleeps against an absolute
// wall-clock schedule so a late tick never causes a burst of commands.
func (s *Scheduler) run(t0Ms float64, done chan struct{}) {
	defer close(done)

	periodMs := s.periodMs()
	periodDur := time.Duration(s.limits.Period * float64(time.Second))
	minTime := time.Duration(float64(periodDur) * 1.01)

	start := time.Now()
	marker := t0Ms

	for k := int64(1); ; k++ {
		if s.stopFlag.Load() {
			break
		}

		nextWake := start.Add(time.Duration(k) * periodDur)
		if sleep := time.Until(nextWake); sleep > 0 {
			time.Sleep(sleep)
		}

		if s.stopFlag.Load() {
			break
		}

		marker += periodMs
		p := s.evalAt(marker)
		clipped := robot.ClipLimits(p, s.driver.Limits())

		if err := s.driver.SendCommand(clipped, minTime); err != nil {
			if s.log != nil {
				s.log.Error().Src("playback").Msgf("transport failure, stopping playback: %v", err)
			}
			s.stopFlag.Store(true)
			break
		}

		s.mu.Lock()
		s.markerMs = marker
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// Seek sets the marker while idle; rejected while playing.
func (s *Scheduler) Seek(markerMs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return precondition("cannot seek while playing")
	}
	s.markerMs = markerMs
	return nil
}

// StopPlay requests the loop stop and waits up to joinTimeout for it
// to exit. Idempotent: calling it while idle is a no-op.
func (s *Scheduler) StopPlay() {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	done := s.done
	s.mu.Unlock()

	s.stopFlag.Store(true)

	select {
	case <-done:
	case <-time.After(joinTimeout):
		// Join timed out; the flag stays set and the goroutine handle
		// is dropped.
	}
}
