package domain

type PlayStatus uint8

const (
	StatusStopped PlayStatus = iota
	StatusPlaying
	StatusPaused
)

func (s PlayStatus) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// TrackRef references a single track in the shared queue. A ref without an
// ID is invalid and is discarded when a queue is loaded.
type TrackRef struct {
	ID string `msgpack:"id" json:"id"`
}

// State is the wire-serializable view of current playback, attached to
// Load and Notify envelopes. PositionMeasuredAt is the wall-clock ms
// timestamp PositionMs was last sampled at; receivers extrapolate the live
// position from the pair while Status is playing.
type State struct {
	Status              PlayStatus `msgpack:"status" json:"status"`
	PositionMs          uint32     `msgpack:"position_ms" json:"position_ms"`
	PositionMeasuredAt  int64      `msgpack:"position_measured_at" json:"position_measured_at"`
	PlayingTrackIndex   uint32     `msgpack:"playing_track_index" json:"playing_track_index"`
	Tracks              []TrackRef `msgpack:"tracks,omitempty" json:"tracks,omitempty"`
	PlayingFromFallback bool       `msgpack:"playing_from_fallback" json:"playing_from_fallback"`
}
