package sync

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/soundmesh/device/internal/domain"
)

// handleConnection (re)builds the subscription and publisher for the user
// topic and introduces this device with a broadcast Hello. Prior handles
// are replaced wholesale; nothing in flight survives a reconnect.
func (o *Orchestrator) handleConnection(ctx context.Context, username string) error {
	o.logger.DebugContext(ctx, "connected", "username", username)

	topic := topicForUser(username)

	sub, err := o.provider.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("build subscription: %w", err)
	}

	pub, err := o.provider.Publisher(topic)
	if err != nil {
		return fmt.Errorf("build publisher: %w", err)
	}

	// Release the previous handles or the backend keeps feeding a
	// subscription nobody reads.
	if o.subscription != nil {
		o.subscription.Close()
	}
	if o.publisher != nil {
		o.publisher.Close()
	}
	o.subscription = sub
	o.publisher = pub

	o.sendFrame(ctx, o.newFrame(frameParams{kind: domain.KindHello}))

	return nil
}

// accepts is the inbound filter: never process our own frames, and skip
// frames targeted at a set of peers we are not in.
func (o *Orchestrator) accepts(env *domain.Envelope) bool {
	if env.Ident == o.ident {
		return false
	}

	return len(env.Recipients) == 0 || slices.Contains(env.Recipients, o.ident)
}

// processFrame is the dispatch core for a single accepted envelope.
func (o *Orchestrator) processFrame(ctx context.Context, env *domain.Envelope) {
	// Clock merge: the session-wide update id never decreases.
	if env.StateUpdateID > o.state.updateID {
		o.state.updateID = env.StateUpdateID
	}

	// Active handoff: another device claiming the active role with a newer
	// claim wins unconditionally. Last writer wins; no acknowledgement.
	if env.DeviceState.IsActive &&
		o.state.isActive &&
		env.DeviceState.BecameActiveAt > o.state.becameActiveAt {
		o.state.isActive = false
		o.state.status = domain.StatusStopped
		o.player.Stop()

		o.notify(ctx, "")
	}

	switch env.Kind {
	case domain.KindHello:
		o.notify(ctx, env.Ident)

	case domain.KindVolume:
		o.state.volume = uint16(env.Volume)
		o.notify(ctx, "")

	case domain.KindVolumeUp:
		o.state.volume = stepVolume(o.state.volume, maxVolume/volumeSteps)
		o.notify(ctx, "")

	case domain.KindVolumeDown:
		o.state.volume = stepVolume(o.state.volume, -maxVolume/volumeSteps)
		o.notify(ctx, "")

	case domain.KindLoad:
		o.handleLoad(ctx, env)

	case domain.KindPlay:
		o.handlePlay(ctx)

	case domain.KindPause:
		o.handlePause(ctx)

	case domain.KindSeek:
		o.handleSeek(ctx, env.PositionMs)

	case domain.KindNext:
		o.handleSkip(ctx, 1)

	case domain.KindPrev:
		o.handleSkip(ctx, -1)

	case domain.KindGoodbye:
		o.logger.DebugContext(ctx, "peer left", "ident", env.Ident)

	default:
		// Notify, Shuffle, Repeat, Replace: nothing to do here.
	}
}

// handleLoad replaces the queue from the attached snapshot and, if this
// device was not active yet, claims the active role.
func (o *Orchestrator) handleLoad(ctx context.Context, env *domain.Envelope) {
	now := o.now()
	o.state.updateID = now

	if !o.state.isActive {
		o.state.isActive = true
		o.state.becameActiveAt = now
	}

	// A load without a snapshot means an empty queue, not "keep the old
	// one".
	snapshot := env.State
	if snapshot == nil {
		snapshot = &domain.State{}
	}
	o.state.loadTracks(snapshot)

	if int(o.state.index) < len(o.state.tracks) {
		o.player.Load(o.state.tracks[o.state.index])

		o.state.status = domain.StatusPlaying
		o.state.positionMs = 0
		o.state.positionMeasuredAt = now
	}

	o.notify(ctx, "")
}

func (o *Orchestrator) handlePlay(ctx context.Context) {
	if !o.state.isActive || len(o.state.tracks) == 0 {
		return
	}

	now := o.now()
	o.state.status = domain.StatusPlaying
	o.state.positionMeasuredAt = now
	o.state.updateID = now

	o.notify(ctx, "")
}

func (o *Orchestrator) handlePause(ctx context.Context) {
	if !o.state.isActive || o.state.status != domain.StatusPlaying {
		return
	}

	// Fold the extrapolated position in before pausing so the paused
	// snapshot is accurate for peers.
	now := o.now()
	o.state.positionMs = o.state.livePosition(now)
	o.state.positionMeasuredAt = now
	o.state.status = domain.StatusPaused
	o.state.updateID = now

	o.notify(ctx, "")
}

func (o *Orchestrator) handleSeek(ctx context.Context, positionMs uint32) {
	if !o.state.isActive {
		return
	}

	now := o.now()
	o.state.positionMs = positionMs
	o.state.positionMeasuredAt = now
	o.state.updateID = now

	o.notify(ctx, "")
}

// handleSkip moves the playing index by delta with wraparound and loads the
// new track.
func (o *Orchestrator) handleSkip(ctx context.Context, delta int) {
	if !o.state.isActive || len(o.state.tracks) == 0 {
		return
	}

	count := len(o.state.tracks)
	o.state.index = uint32((int(o.state.index) + delta + count) % count)
	o.player.Load(o.state.tracks[o.state.index])

	now := o.now()
	o.state.status = domain.StatusPlaying
	o.state.positionMs = 0
	o.state.positionMeasuredAt = now
	o.state.updateID = now

	o.notify(ctx, "")
}

func stepVolume(volume uint16, delta int) uint16 {
	next := int(volume) + delta
	if next < 0 {
		return 0
	}
	if next > maxVolume {
		return maxVolume
	}

	return uint16(next)
}
