// Package silent is a placeholder audio backend: it "plays" each loaded
// track against the wall clock, emitting position updates every tick and a
// TrackEnded event when the configured track length elapses. It lets a
// device participate fully in a session on hosts with no audio output
// wired up.
package silent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soundmesh/device/internal/player"
)

type Player struct {
	trackLen time.Duration
	tick     time.Duration
	logger   *slog.Logger
	events   chan player.Event

	mu      sync.Mutex
	trackID string
	started time.Time
	playing bool
}

func NewPlayer(trackLen, tick time.Duration, logger *slog.Logger) *Player {
	return &Player{
		trackLen: trackLen,
		tick:     tick,
		logger:   logger,
		events:   make(chan player.Event, 16),
	}
}

func (p *Player) Load(trackID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trackID = trackID
	p.started = time.Now()
	p.playing = true
	p.logger.Debug("silent player loaded track", "track_id", trackID)
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.logger.Debug("silent player stopped")
}

func (p *Player) Events() <-chan player.Event {
	return p.events
}

// Run drives the clock until ctx is cancelled.
func (p *Player) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		if !p.playing {
			p.mu.Unlock()
			continue
		}
		elapsed := time.Since(p.started)
		ended := elapsed >= p.trackLen
		if ended {
			p.playing = false
		}
		p.mu.Unlock()

		if ended {
			p.emit(ctx, player.Event{Kind: player.EventTrackEnded})
			continue
		}
		p.emit(ctx, player.Event{Kind: player.EventPosition, PositionMs: uint32(elapsed.Milliseconds())})
	}
}

func (p *Player) emit(ctx context.Context, ev player.Event) {
	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}
