package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundmesh/device/internal/domain"
)

func TestSnapshotFidelity(t *testing.T) {
	s := newPlaybackState("kitchen")
	s.loadTracks(&domain.State{
		PlayingTrackIndex: 2,
		Tracks: []domain.TrackRef{
			{ID: "T1"}, {ID: "T2"}, {ID: "T3"}, {ID: "T4"},
		},
	})
	s.status = domain.StatusPlaying
	s.positionMs = 1_234
	s.positionMeasuredAt = 99

	snap := s.snapshot()
	assert.Equal(t, s.index, snap.PlayingTrackIndex)
	require.Len(t, snap.Tracks, len(s.tracks))
	for i, track := range snap.Tracks {
		assert.Equal(t, s.tracks[i], track.ID)
	}
	assert.Equal(t, domain.StatusPlaying, snap.Status)
	assert.Equal(t, uint32(1_234), snap.PositionMs)
	assert.Equal(t, int64(99), snap.PositionMeasuredAt)
	assert.True(t, snap.PlayingFromFallback)
}

func TestDeviceStateDefaults(t *testing.T) {
	s := newPlaybackState("kitchen")

	ds := s.deviceState()
	assert.Equal(t, "kitchen", ds.Name)
	assert.False(t, ds.IsActive)
	assert.Equal(t, uint32(maxVolume), ds.Volume, "volume defaults to max")
	assert.Equal(t, swVersion, ds.SwVersion)

	var steps *domain.Capability
	for i := range ds.Capabilities {
		if ds.Capabilities[i].Kind == domain.CapVolumeSteps {
			steps = &ds.Capabilities[i]
		}
	}
	require.NotNil(t, steps)
	assert.Equal(t, []int64{volumeSteps}, steps.IntValues)
}

func TestLivePositionExtrapolatesOnlyWhilePlaying(t *testing.T) {
	s := newPlaybackState("kitchen")
	s.positionMs = 1_000
	s.positionMeasuredAt = 10_000

	s.status = domain.StatusPaused
	assert.Equal(t, uint32(1_000), s.livePosition(15_000))

	s.status = domain.StatusPlaying
	assert.Equal(t, uint32(6_000), s.livePosition(15_000))
}

func TestLivePositionIgnoresClockRegression(t *testing.T) {
	s := newPlaybackState("kitchen")
	s.status = domain.StatusPlaying
	s.positionMs = 1_000
	s.positionMeasuredAt = 10_000

	assert.Equal(t, uint32(1_000), s.livePosition(9_000), "a backwards clock must not wrap the position")
}
