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

// Package hostload reports CPU and RAM load for the host running the
// playback loop, adapted from pkg/system.System: a fixed-rate control
// loop is sensitive to scheduling jitter caused by host contention, so
// the same periodic-poll pattern used for a system status page is
// repurposed here as a diagnostic the API layer can expose alongside
// playback state.
package hostload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"motioncore/pkg/log"
)

// Status is the most recent host load sample.
type Status struct {
	CPUPercent int `json:"cpuPercent"`
	RAMPercent int `json:"ramPercent"`
}

type (
	cpuFunc func(context.Context, time.Duration, bool) ([]float64, error)
	ramFunc func() (*mem.VirtualMemoryStat, error)
)

// Monitor samples host load on a fixed interval.
type Monitor struct {
	cpu cpuFunc
	ram ramFunc

	interval time.Duration
	log      *log.Logger

	mu     sync.Mutex
	status Status
}

// New returns a Monitor that samples every interval.
func New(interval time.Duration, logger *log.Logger) *Monitor {
	return &Monitor{
		cpu:      cpu.PercentWithContext,
		ram:      mem.VirtualMemory,
		interval: interval,
		log:      logger,
	}
}

func (m *Monitor) update(ctx context.Context) error {
	cpuUsage, err := m.cpu(ctx, m.interval, false)
	if err != nil {
		return fmt.Errorf("could not get cpu usage: %w", err)
	}
	ramUsage, err := m.ram()
	if err != nil {
		return fmt.Errorf("could not get ram usage: %w", err)
	}

	cpuPercent := 0
	if len(cpuUsage) > 0 {
		cpuPercent = int(cpuUsage[0])
	}

	m.mu.Lock()
	m.status = Status{
		CPUPercent: cpuPercent,
		RAMPercent: int(ramUsage.UsedPercent),
	}
	m.mu.Unlock()
	return nil
}

// Run polls host load until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := m.update(ctx); err != nil && m.log != nil {
			m.log.Error().Src("hostload").Msgf("could not update host load: %v", err)
		}
	}
}

// Status returns the most recently sampled load.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
