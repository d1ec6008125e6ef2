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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheHitWithinTolerance(t *testing.T) {
	c := NewCache()
	key := CacheKey{PrevID: "p", NextID: "n"}
	traj := &Trajectory{DurationSec: 1}

	c.Put(key, 1000, traj)

	got, ok := c.Get(key, 1000.3)
	require.True(t, ok)
	require.Same(t, traj, got)
}

func TestCacheMissOutsideTolerance(t *testing.T) {
	c := NewCache()
	key := CacheKey{PrevID: "p", NextID: "n"}
	c.Put(key, 1000, &Trajectory{DurationSec: 1})

	_, ok := c.Get(key, 1001)
	require.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	key := CacheKey{PrevID: "p", NextID: "n"}
	c.Put(key, 1000, &Trajectory{})
	require.Equal(t, 1, c.Len())

	c.Clear()
	require.Equal(t, 0, c.Len())
}
