// Package player defines the audio-output collaborator contract. The
// orchestrator only loads and stops tracks; everything the player has to
// say comes back asynchronously on its event stream.
package player

type EventKind uint8

const (
	EventTrackEnded EventKind = iota + 1
	EventPosition
	EventFailed
)

type Event struct {
	Kind       EventKind
	PositionMs uint32
	Err        error
}

type Player interface {
	// Load is fire-and-forget; completion and progress are reported on
	// Events.
	Load(trackID string)
	Stop()
	// Events delivers TrackEnded and Position events. A Failed event is
	// terminal.
	Events() <-chan Event
}
