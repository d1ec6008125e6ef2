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

// Package config loads the per-joint kinematic limits and timing
// constants a trajectory core runs under, the same way env.yaml is
// loaded in pkg/storage.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"motioncore/pkg/pose"
)

// Limits holds per-joint v_max/a_max/j_max, plus the bridge and
// playback timing constants. All three limit arrays must be strictly
// positive component-wise.
type Limits struct {
	VMax pose.Pose `yaml:"v_max"`
	AMax pose.Pose `yaml:"a_max"`
	JMax pose.Pose `yaml:"j_max"`

	// ControlDt is the bridge synthesizer's internal step, seconds.
	ControlDt float64 `yaml:"control_dt"`
	// Period is the playback loop's fixed control period, seconds.
	Period float64 `yaml:"period"`
}

// DefaultControlDt is the bridge synthesizer's default internal step: 1/240s.
const DefaultControlDt = 1.0 / 240.0

// DefaultPeriod is the playback loop's default fixed control period: 0.01s.
const DefaultPeriod = 0.01

// Default returns Limits with every joint at generous, identical
// limits and the default timing constants above. Intended for tests
// and as a starting point for a real robot's limits.yaml.
func Default() Limits {
	var l Limits
	for i := 0; i < pose.DOF; i++ {
		l.VMax[i] = 3.0
		l.AMax[i] = 8.0
		l.JMax[i] = 40.0
	}
	l.ControlDt = DefaultControlDt
	l.Period = DefaultPeriod
	return l
}

// Load reads and validates a Limits document from a YAML file.
func Load(path string) (Limits, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("could not read limits file: %w", err)
	}

	l := Default()
	if err := yaml.Unmarshal(buf, &l); err != nil {
		return Limits{}, fmt.Errorf("could not parse limits file: %w", err)
	}

	if err := l.Validate(); err != nil {
		return Limits{}, err
	}
	return l, nil
}

// Validate checks the positivity invariants every joint limit must hold.
func (l Limits) Validate() error {
	for i := 0; i < pose.DOF; i++ {
		if l.VMax[i] <= 0 {
			return fmt.Errorf("joint %d: v_max must be positive, got %v", i, l.VMax[i])
		}
		if l.AMax[i] <= 0 {
			return fmt.Errorf("joint %d: a_max must be positive, got %v", i, l.AMax[i])
		}
		if l.JMax[i] <= 0 {
			return fmt.Errorf("joint %d: j_max must be positive, got %v", i, l.JMax[i])
		}
	}
	if l.ControlDt <= 0 {
		return fmt.Errorf("control_dt must be positive, got %v", l.ControlDt)
	}
	if l.Period <= 0 {
		return fmt.Errorf("period must be positive, got %v", l.Period)
	}
	return nil
}
