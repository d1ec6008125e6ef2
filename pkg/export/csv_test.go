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

package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"motioncore/pkg/pose"
)

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	lines := strings.Split(buf.String(), "\n")
	require.Equal(t, "time,q0,q1,q2,q3,q4,q5,q6,q7,q8,q9,q10,q11,q12,q13,q14,q15,q16,q17,q18,q19,q20,q21,q22,q23", lines[0])
}

func TestWriteCSVRowPrecision(t *testing.T) {
	var buf bytes.Buffer
	var p pose.Pose
	p[0] = 1.5
	require.NoError(t, WriteCSV(&buf, []TimedPose{{TimeMs: 1500, Pose: p}}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[1], ",")
	require.Equal(t, "1.500000", fields[0])
	require.Equal(t, "1.500000000", fields[1])
	require.Equal(t, "0.000000000", fields[2])
}
