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

package playback

import "errors"

// PreconditionFailed is returned by StartPlay/Seek when the scheduler
// is not in the right state to accept the request (robot not ready,
// tele-op active, or already playing).
type PreconditionFailed struct {
	Reason string
}

func (e *PreconditionFailed) Error() string {
	return "precondition failed: " + e.Reason
}

func precondition(reason string) error {
	return &PreconditionFailed{Reason: reason}
}

// ErrNoEvaluator is returned by StartPlay when the scheduler was
// constructed without an evaluator to sample.
var ErrNoEvaluator = errors.New("playback: no evaluator available")
