// Package fake is an in-memory Player double. Tests script its event
// stream and inspect the load/stop calls the orchestrator made.
package fake

import (
	"sync"

	"github.com/soundmesh/device/internal/player"
)

type Player struct {
	mu     sync.Mutex
	loads  []string
	stops  int
	events chan player.Event
}

func NewPlayer() *Player {
	return &Player{
		events: make(chan player.Event, 16),
	}
}

func (p *Player) Load(trackID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads = append(p.loads, trackID)
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *Player) Events() <-chan player.Event {
	return p.events
}

func (p *Player) EmitTrackEnded() {
	p.events <- player.Event{Kind: player.EventTrackEnded}
}

func (p *Player) EmitPosition(positionMs uint32) {
	p.events <- player.Event{Kind: player.EventPosition, PositionMs: positionMs}
}

func (p *Player) EmitFailure(err error) {
	p.events <- player.Event{Kind: player.EventFailed, Err: err}
}

func (p *Player) Loads() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.loads))
	copy(out, p.loads)
	return out
}

func (p *Player) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}
