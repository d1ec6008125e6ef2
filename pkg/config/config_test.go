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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsNonPositive(t *testing.T) {
	l := Default()
	l.VMax[3] = 0
	require.Error(t, l.Validate())

	l = Default()
	l.AMax[0] = -1
	require.Error(t, l.Validate())

	l = Default()
	l.ControlDt = 0
	require.Error(t, l.Validate())
}

func TestLoadAppliesDefaultsForMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("period: 0.02\n"), 0o600))

	l, err := Load(path)
	require.NoError(t, err)
	require.InDelta(t, 0.02, l.Period, 1e-12)
	require.InDelta(t, DefaultControlDt, l.ControlDt, 1e-12)
	require.InDelta(t, 3.0, l.VMax[0], 1e-12)
}
