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

package blend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"motioncore/pkg/clip"
	"motioncore/pkg/pose"
	"motioncore/pkg/source"
)

func constPose(v float64) pose.Pose {
	var p pose.Pose
	for i := range p {
		p[i] = v
	}
	return p
}

func mustStore(t *testing.T, sources map[string]source.Source) *source.Store {
	t.Helper()
	s, err := source.NewStore(sources)
	require.NoError(t, err)
	return s
}

func TestComposeSingleOverrideNoRamp(t *testing.T) {
	store := mustStore(t, map[string]source.Source{
		"a": {ID: "a", Dt: 0.1, Frames: []pose.Pose{constPose(0), constPose(1), constPose(2)}},
	})
	clips := []clip.Clip{{
		ID: "c", SourceID: "a", T0Ms: 0, InFrame: 0, OutFrame: 3,
		Blend: clip.Blend{Mode: clip.ModeOverride, Weight: 1},
	}}

	p, ok := Compose(clips, store, 150)
	require.True(t, ok)
	require.InDelta(t, 1.5, p[0], 1e-9)
}

func TestComposeCrossfadeAverage(t *testing.T) {
	store := mustStore(t, map[string]source.Source{
		"a": {ID: "a", Dt: 0.1, Frames: []pose.Pose{constPose(0), constPose(2)}},
		"b": {ID: "b", Dt: 0.1, Frames: []pose.Pose{constPose(4), constPose(4)}},
	})
	clips := []clip.Clip{
		{ID: "ca", SourceID: "a", T0Ms: 0, InFrame: 0, OutFrame: 2,
			Blend: clip.Blend{Mode: clip.ModeCrossfade, Weight: 1}},
		{ID: "cb", SourceID: "b", T0Ms: 0, InFrame: 0, OutFrame: 2,
			Blend: clip.Blend{Mode: clip.ModeCrossfade, Weight: 1}},
	}

	p, ok := Compose(clips, store, 50)
	require.True(t, ok)
	require.InDelta(t, 2.5, p[0], 1e-9) // (1+4)/2 where A_sample(50ms)=1
}

func TestComposeOverridePriorityWins(t *testing.T) {
	store := mustStore(t, map[string]source.Source{
		"lo": {ID: "lo", Dt: 0.1, Frames: []pose.Pose{constPose(1)}},
		"hi": {ID: "hi", Dt: 0.1, Frames: []pose.Pose{constPose(9)}},
	})
	clips := []clip.Clip{
		{ID: "c_lo", SourceID: "lo", T0Ms: 0, InFrame: 0, OutFrame: 1,
			Blend: clip.Blend{Mode: clip.ModeOverride, Weight: 1, Priority: 0}},
		{ID: "c_hi", SourceID: "hi", T0Ms: 0, InFrame: 0, OutFrame: 1,
			Blend: clip.Blend{Mode: clip.ModeOverride, Weight: 1, Priority: 5}},
	}

	p, ok := Compose(clips, store, 0)
	require.True(t, ok)
	require.InDelta(t, 9.0, p[0], 1e-9)
}

func TestComposeAdditiveOnTopOfOverride(t *testing.T) {
	store := mustStore(t, map[string]source.Source{
		"base": {ID: "base", Dt: 0.1, Frames: []pose.Pose{constPose(1)}},
		"add": {ID: "add", Dt: 0.1, Frames: []pose.Pose{constPose(0.5)}},
	})
	clips := []clip.Clip{
		{ID: "base_c", SourceID: "base", T0Ms: 0, InFrame: 0, OutFrame: 1,
			Blend: clip.Blend{Mode: clip.ModeOverride, Weight: 1}},
		{ID: "add_c", SourceID: "add", T0Ms: 0, InFrame: 0, OutFrame: 1,
			Blend: clip.Blend{Mode: clip.ModeAdditive, Weight: 2}},
	}

	p, ok := Compose(clips, store, 0)
	require.True(t, ok)
	require.InDelta(t, 2.0, p[0], 1e-9) // 1 + 2*0.5
}

func TestComposeNoClipsIsGap(t *testing.T) {
	store := mustStore(t, nil)
	_, ok := Compose(nil, store, 0)
	require.False(t, ok)
}

func TestComposeEqualWeightCrossfadeConservesWeight(t *testing.T) {
	store := mustStore(t, map[string]source.Source{
		"a": {ID: "a", Dt: 0.1, Frames: []pose.Pose{constPose(5)}},
		"b": {ID: "b", Dt: 0.1, Frames: []pose.Pose{constPose(5)}},
		"c": {ID: "c", Dt: 0.1, Frames: []pose.Pose{constPose(5)}},
	})
	clips := []clip.Clip{
		{ID: "ca", SourceID: "a", T0Ms: 0, InFrame: 0, OutFrame: 1,
			Blend: clip.Blend{Mode: clip.ModeCrossfade, Weight: 1}},
		{ID: "cb", SourceID: "b", T0Ms: 0, InFrame: 0, OutFrame: 1,
			Blend: clip.Blend{Mode: clip.ModeCrossfade, Weight: 1}},
		{ID: "cc", SourceID: "c", T0Ms: 0, InFrame: 0, OutFrame: 1,
			Blend: clip.Blend{Mode: clip.ModeCrossfade, Weight: 1}},
	}

	p, ok := Compose(clips, store, 0)
	require.True(t, ok)
	require.InDelta(t, 5.0, p[0], 1e-9)
}

func TestRampAttackAndDecay(t *testing.T) {
	// Linear attack over 100ms, decay over 100ms, length 500ms.
	require.InDelta(t, 0.5, Ramp(50, 500, 100, 100, clip.CurveLinear), 1e-9)
	require.InDelta(t, 1.0, Ramp(250, 500, 100, 100, clip.CurveLinear), 1e-9)
	require.InDelta(t, 0.5, Ramp(450, 500, 100, 100, clip.CurveLinear), 1e-9)
}

func TestRampZeroLengthIsFullWeight(t *testing.T) {
	require.Equal(t, 1.0, Ramp(0, 0, 100, 100, clip.CurveLinear))
}

func TestComposeDropsNegligibleWeight(t *testing.T) {
	store := mustStore(t, map[string]source.Source{
		"a": {ID: "a", Dt: 0.1, Frames: []pose.Pose{constPose(5)}},
	})
	clips := []clip.Clip{
		{ID: "ca", SourceID: "a", T0Ms: 0, InFrame: 0, OutFrame: 1,
			Blend: clip.Blend{Mode: clip.ModeAdditive, Weight: 0}},
	}
	_, ok := Compose(clips, store, 0)
	require.False(t, ok)
}
