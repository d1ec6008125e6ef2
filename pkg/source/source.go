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

// Package source holds per-project motion sources: uniformly-sampled
// frame matrices and their frame period.
package source

import (
	"fmt"

	"motioncore/pkg/pose"
)

// Source is a uniformly-sampled, immutable sequence of poses.
type Source struct {
	ID string
	Dt float64 // frame period, seconds, strictly positive.
	Frames []pose.Pose
}

// DtMs is the frame period in milliseconds.
func (s Source) DtMs() float64 {
	return s.Dt * 1000
}

// FrameCount returns the number of frames, F.
func (s Source) FrameCount() int {
	return len(s.Frames)
}

// Validate checks the shape invariants: at least one frame and dt
// strictly positive. Every frame is already fixed-width by the Pose
// type, so no per-frame length check is needed.
func (s Source) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source: empty id")
	}
	if s.Dt <= 0 {
		return fmt.Errorf("source %q: dt must be positive, got %v", s.ID, s.Dt)
	}
	if len(s.Frames) == 0 {
		return fmt.Errorf("source %q: must have at least one frame", s.ID)
	}
	return nil
}

// Store holds the sources registered for the current project, keyed
// by id. Sources are immutable once registered; Store is replaced
// wholesale on every project set.
type Store struct {
	sources map[string]Source
}

// NewStore materializes a Store from a set of sources, validating
// each one. Returns InvariantViolation-class errors on the first bad
// source.
func NewStore(sources map[string]Source) (*Store, error) {
	materialized := make(map[string]Source, len(sources))
	for id, s := range sources {
		if s.ID == "" {
			s.ID = id
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		// Copy the frame slice so the store owns its own backing array;
		// the caller's slice is not guaranteed to stay untouched.
		frames := make([]pose.Pose, len(s.Frames))
		copy(frames, s.Frames)
		s.Frames = frames
		materialized[id] = s
	}
	return &Store{sources: materialized}, nil
}

// Get returns the source for id, or false if it is not registered.
func (s *Store) Get(id string) (Source, bool) {
	src, ok := s.sources[id]
	return src, ok
}
