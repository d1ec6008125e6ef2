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

package bridge

import "math"

// CacheKey is the bounding-clip fingerprint. Two gaps with an
// identical key are assumed to need the same bridge, unless the gap
// duration itself drifted (checked separately by Get).
type CacheKey struct {
	PrevID, NextID string
	PrevInFrame, PrevOutFrame int
	NextInFrame, NextOutFrame int
	PrevT0Ms, NextT0Ms float64
	PrevDtMsRounded int64
	NextDtMsRounded int64
}

type cacheEntry struct {
	gapMs float64
	traj *Trajectory
}

// Cache memoizes bridge trajectories by boundary fingerprint. It is
// not safe for concurrent use on its own; the evaluator's single
// coarse lock is the only thing serializing access.
type Cache struct {
	entries map[CacheKey]cacheEntry
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[CacheKey]cacheEntry)}
}

// cacheTolerance is the maximum drift (ms) between a cached gap
// duration and the requested one before the entry is discarded.
const cacheTolerance = 0.5

// Get returns the cached trajectory for key if one exists and its
// recorded gap duration is within cacheTolerance ms of gapMs.
func (c *Cache) Get(key CacheKey, gapMs float64) (*Trajectory, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if math.Abs(e.gapMs-gapMs) > cacheTolerance {
		return nil, false
	}
	return e.traj, true
}

// Put stores (or overwrites) the trajectory for key.
func (c *Cache) Put(key CacheKey, gapMs float64, traj *Trajectory) {
	c.entries[key] = cacheEntry{gapMs: gapMs, traj: traj}
}

// Clear empties the cache. Called on every project set.
func (c *Cache) Clear() {
	c.entries = make(map[CacheKey]cacheEntry)
}

// Len reports the number of cached entries, for tests and diagnostics.
func (c *Cache) Len() int {
	return len(c.entries)
}
