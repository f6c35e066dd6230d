// Package connection provides the connection-lifecycle event sources the
// orchestrator listens on. A Connected event is emitted on the initial
// connect and on every reconnect; the orchestrator answers each one by
// rebuilding its subscription and publisher from scratch.
package connection

// Event reports that the session for Username is (re)connected.
type Event struct {
	Username string
}

// Manual is a lifecycle source driven by its owner. Tests and single-shot
// wiring connect it explicitly.
type Manual struct {
	ch chan Event
}

func NewManual() *Manual {
	return &Manual{ch: make(chan Event, 1)}
}

func (m *Manual) Connect(username string) {
	m.ch <- Event{Username: username}
}

func (m *Manual) Events() <-chan Event {
	return m.ch
}
