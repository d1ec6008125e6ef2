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

package core

import "fmt"

// InvariantViolation is returned by SetProject when the submitted
// project breaks one of its invariants (bad shape, unknown sourceId,
// outFrame <= inFrame, dt <= 0, ...). This must never be observable
// from eval_at/eval_range — it is rejected at SetProject time.
type InvariantViolation struct {
	msg string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.msg
}

func invariantViolation(format string, args ...interface{}) error {
	return &InvariantViolation{msg: fmt.Sprintf(format, args...)}
}
