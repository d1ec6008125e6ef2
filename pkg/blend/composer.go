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

// Package blend implements the deterministic blend-stack composer:
// ramp shaping, curve shapes, and the override/crossfade/additive
// composition rules.
package blend

import (
	"math"

	"motioncore/pkg/clip"
	"motioncore/pkg/pose"
	"motioncore/pkg/source"
)

// minWeight is the "negligible contribution" threshold.
const minWeight = 1e-12

// evalCurve evaluates a ramp curve shape at a in [0,1].
func evalCurve(c clip.Curve, a float64) float64 {
	switch c {
	case clip.CurveSmoothstep:
		return a * a * (3 - 2*a)
	case clip.CurveEaseInOut:
		return 0.5 * (1 - math.Cos(math.Pi*a))
	default: // CurveLinear
		return a
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Ramp computes the attack/decay envelope for a clip sampled at
// `local` ms into its active interval of `length` ms.
func Ramp(local, length, inMs, outMs float64, curve clip.Curve) float64 {
	if length <= 0 {
		return 1
	}

	w := 1.0
	if inMs > 0 && local < inMs {
		w *= clamp01(evalCurve(curve, local/inMs))
	}
	if outMs > 0 && (length-local) < outMs {
		w *= clamp01(evalCurve(curve, (length-local)/outMs))
	}
	return clamp01(w)
}

// activeClip is a clip with its composer-relevant derived quantities
// already computed for one instant.
type activeClip struct {
	c clip.Clip
	pose pose.Pose
	weight float64
}

// Compose reduces every clip active at tMs to a single pose following
// deterministic ordering. Returns ok=false ("gap") if no clip
// contributes.
func Compose(clips []clip.Clip, store *source.Store, tMs float64) (pose.Pose, bool) {
	var normals []activeClip
	var additives []activeClip

	for _, c := range clips {
		s, ok := store.Get(c.SourceID)
		if !ok {
			continue
		}
		p, ok := clip.SampleAt(c, s, tMs)
		if !ok {
			continue
		}

		local := tMs - c.T0Ms
		length := c.LengthMs(s)
		ramp := Ramp(local, length, c.Blend.InMs, c.Blend.OutMs, c.Blend.Curve)
		weight := c.Blend.Weight * ramp
		if weight < minWeight {
			continue
		}

		ac := activeClip{c: c, pose: p, weight: weight}
		if c.Blend.Mode == clip.ModeAdditive {
			additives = append(additives, ac)
		} else {
			normals = append(normals, ac)
		}
	}

	if len(normals) == 0 && len(additives) == 0 {
		return pose.Pose{}, false
	}

	base := composeNormals(normals)

	result := base
	for _, a := range additives {
		result = result.Add(a.pose.Scale(a.weight))
	}

	return result, true
}

// composeNormals applies the override/crossfade partition rules,
// returning the base pose (zero pose if normals is empty).
func composeNormals(normals []activeClip) pose.Pose {
	if len(normals) == 0 {
		return pose.Pose{}
	}

	// Rule 2: highest-priority override wins; first-in-sorted-order
	// tie-break falls out of a stable left-to-right scan with a
	// strict ">" comparison.
	var bestOverride *activeClip
	for i := range normals {
		a := normals[i]
		if a.c.Blend.Mode != clip.ModeOverride {
			continue
		}
		if bestOverride == nil || a.c.Blend.Priority > bestOverride.c.Blend.Priority {
			bestOverride = &normals[i]
		}
	}
	if bestOverride != nil {
		return bestOverride.pose
	}

	// Rule 3: all crossfades, weighted-normalized blend.
	sumW := 0.0
	for _, a := range normals {
		sumW += a.weight
	}
	if sumW <= minWeight {
		// Documented fallback: the first clip's pose wins when the
		// stack sums to ~zero weight.
		return normals[0].pose
	}

	var out pose.Pose
	for _, a := range normals {
		out = out.Add(a.pose.Scale(a.weight / sumW))
	}
	return out
}
