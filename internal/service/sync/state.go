package sync

import (
	"github.com/soundmesh/device/internal/domain"
)

const swVersion = "soundmesh-v0.2"

// volumeSteps matches the volume-steps capability advertised in the device
// descriptor.
const volumeSteps = 10

const maxVolume = 0xFFFF

// playbackState is this device's view of the shared session. It is owned
// exclusively by the orchestrator goroutine and mutated in place; nothing
// else may touch it.
type playbackState struct {
	name   string
	volume uint16

	isActive       bool
	becameActiveAt int64
	status         domain.PlayStatus

	index  uint32
	tracks []string

	// updateID is a ms-since-epoch logical clock of the last authoritative
	// state change anywhere in the session. It never decreases.
	updateID int64

	positionMs         uint32
	positionMeasuredAt int64
}

func newPlaybackState(name string) playbackState {
	return playbackState{
		name:   name,
		volume: maxVolume,
		status: domain.StatusStopped,
	}
}

// loadTracks replaces the queue from an attached snapshot. Track refs
// without an identifier are discarded.
func (s *playbackState) loadTracks(state *domain.State) {
	s.index = state.PlayingTrackIndex
	s.tracks = s.tracks[:0]
	for _, track := range state.Tracks {
		if track.ID == "" {
			continue
		}
		s.tracks = append(s.tracks, track.ID)
	}
}

// livePosition extrapolates the current position from the last sample. A
// wall clock running backwards yields the sample unchanged rather than a
// wrapped delta.
func (s *playbackState) livePosition(now int64) uint32 {
	if s.status != domain.StatusPlaying || now < s.positionMeasuredAt {
		return s.positionMs
	}

	return s.positionMs + uint32(now-s.positionMeasuredAt)
}

// snapshot converts the local state to its wire form. Pure; callable at
// any time.
func (s *playbackState) snapshot() *domain.State {
	tracks := make([]domain.TrackRef, 0, len(s.tracks))
	for _, id := range s.tracks {
		tracks = append(tracks, domain.TrackRef{ID: id})
	}

	return &domain.State{
		Status:              s.status,
		PositionMs:          s.positionMs,
		PositionMeasuredAt:  s.positionMeasuredAt,
		PlayingTrackIndex:   s.index,
		Tracks:              tracks,
		PlayingFromFallback: true,
	}
}

// deviceState builds the descriptor stamped onto every outbound envelope.
func (s *playbackState) deviceState() domain.DeviceState {
	return domain.DeviceState{
		SwVersion:      swVersion,
		Name:           s.name,
		IsActive:       s.isActive,
		BecameActiveAt: s.becameActiveAt,
		Volume:         uint32(s.volume),
		Capabilities: []domain.Capability{
			{Kind: domain.CapCanBePlayer, IntValues: []int64{0}},
			{Kind: domain.CapDeviceType, IntValues: []int64{1}},
			{Kind: domain.CapEqConnectID, IntValues: []int64{1}},
			{Kind: domain.CapSupportsLogout, IntValues: []int64{1}},
			{Kind: domain.CapSupportsRename, IntValues: []int64{1}},
			{Kind: domain.CapIsObservable, IntValues: []int64{1}},
			{Kind: domain.CapVolumeSteps, IntValues: []int64{volumeSteps}},
			{Kind: domain.CapSupportedContexts, StringValues: []string{}},
			{Kind: domain.CapSupportedTypes, StringValues: []string{
				"audio/local",
				"audio/track",
				"local",
				"track",
			}},
		},
	}
}
