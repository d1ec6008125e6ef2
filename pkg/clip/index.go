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

package clip

import "sort"

// Index is a sorted-by-t0 view of a project's clips, supporting
// O(log N) neighbor lookup. It never mutates after construction; a
// project replace builds a new Index.
type Index struct {
	clips []Clip // sorted ascending by T0Ms; stable on input order for ties.
	t0s   []float64
}

// NewIndex sorts clips by T0Ms (stable, so equal-t0 clips keep their
// original relative order — used by the composer's tie-break rule)
// and builds the parallel t0 array for binary search.
func NewIndex(clips []Clip) *Index {
	sorted := make([]Clip, len(clips))
	copy(sorted, clips)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].T0Ms < sorted[j].T0Ms
	})

	t0s := make([]float64, len(sorted))
	for i, c := range sorted {
		t0s[i] = c.T0Ms
	}

	return &Index{clips: sorted, t0s: t0s}
}

// All returns every clip in sorted order. The caller must not mutate
// the returned slice.
func (idx *Index) All() []Clip {
	return idx.clips
}

// Len returns the number of clips.
func (idx *Index) Len() int {
	return len(idx.clips)
}

// FindNeighbors returns (prev, next): next is the first clip with
// T0Ms >= tMs (ok=false if none), prev is the clip immediately before
// next in sorted order (ok=false if none).
func (idx *Index) FindNeighbors(tMs float64) (prev Clip, prevOK bool, next Clip, nextOK bool) {
	// sort.Search finds the first index for which the predicate holds,
	// i.e. the first clip with t0 >= tMs.
	i := sort.Search(len(idx.t0s), func(i int) bool {
		return idx.t0s[i] >= tMs
	})

	if i < len(idx.clips) {
		next = idx.clips[i]
		nextOK = true
	}
	if i > 0 {
		prev = idx.clips[i-1]
		prevOK = true
	}
	return prev, prevOK, next, nextOK
}
