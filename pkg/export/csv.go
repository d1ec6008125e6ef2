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

// Package export writes sampled trajectories to a CSV format. No
// library in the example corpus touches CSV generation, and the
// format's exact decimal-width requirements (time with >=6 fractional
// digits, joints with >=9) are simpler to guarantee with direct
// fmt.Fprintf formatting than through encoding/csv, which only
// controls field quoting/delimiting, not numeric precision — see
// DESIGN.md.
package export

import (
	"bufio"
	"fmt"
	"io"

	"motioncore/pkg/pose"
)

// TimedPose is one row of an exported trajectory: project time in
// milliseconds plus the pose at that time.
type TimedPose struct {
	TimeMs float64
	Pose pose.Pose
}

// WriteCSV streams rows to w in a header,row,row,... format: header
// `time,q0,...,q23`; time in seconds with at least 6 decimal digits;
// joint values with at least 9. Rows are written one at a time rather
// than buffered as a whole slice, so a caller exporting a long
// trajectory never holds the full CSV in memory twice.
func WriteCSV(w io.Writer, rows []TimedPose) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(header()); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}

	for _, row := range rows {
		if err := writeRow(bw, row); err != nil {
			return fmt.Errorf("could not write row: %w", err)
		}
	}

	return bw.Flush()
}

func header() string {
	h := "time"
	for i := 0; i < pose.DOF; i++ {
		h += fmt.Sprintf(",q%d", i)
	}
	return h + "\n"
}

func writeRow(w *bufio.Writer, row TimedPose) error {
	if _, err := fmt.Fprintf(w, "%.6f", row.TimeMs/1000); err != nil {
		return err
	}
	for _, v := range row.Pose {
		if _, err := fmt.Fprintf(w, ",%.9f", v); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}
