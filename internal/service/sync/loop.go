package sync

import (
	"context"
	"fmt"

	"github.com/soundmesh/device/internal/codec"
	"github.com/soundmesh/device/internal/connection"
	"github.com/soundmesh/device/internal/domain"
	"github.com/soundmesh/device/internal/player"
)

// Event is the tagged union the run loop merges its four sources into.
// Exactly one field is set.
type Event struct {
	Connection *connection.Event
	Inbound    *domain.Envelope
	Player     *player.Event
	// Flush marks an outbound-flush step; the pending envelope is consumed
	// from the outbox inside transition.
	Flush bool
}

// Run drives the orchestrator until ctx is cancelled or a fatal condition
// occurs. One goroutine owns all state; the four sources are polled in
// fixed priority order (connection, inbound, outbound flush, player), a
// pass with progress repeats immediately, and an idle pass blocks until
// any source is ready.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		progress, err := o.tick(ctx)
		if err != nil {
			return err
		}

		if progress {
			continue
		}

		ev, err := o.waitEvent(ctx)
		if err != nil {
			return err
		}
		if err := o.transition(ctx, ev); err != nil {
			return err
		}
	}
}

// tick polls each source once without blocking. Reports whether any source
// produced work.
func (o *Orchestrator) tick(ctx context.Context) (bool, error) {
	progress := false

	select {
	case ev, ok := <-o.connSource:
		if ok {
			if err := o.transition(ctx, Event{Connection: &ev}); err != nil {
				return false, err
			}
			progress = true
		}
	default:
	}

	if o.subscription != nil {
		select {
		case raw, ok := <-o.subscription.Messages():
			if !ok {
				return false, ErrSubscriptionClosed
			}

			ev, err := o.decode(ctx, raw)
			if err != nil {
				return false, err
			}
			if ev != nil {
				if err := o.transition(ctx, Event{Inbound: ev}); err != nil {
					return false, err
				}
			}
			progress = true
		default:
		}
	}

	if o.publisher != nil {
		flushed, err := o.flushOutbound(ctx)
		if err != nil {
			return false, err
		}
		progress = progress || flushed
	}

	select {
	case ev, ok := <-o.player.Events():
		if ok {
			if err := o.transition(ctx, Event{Player: &ev}); err != nil {
				return false, err
			}
			progress = true
		}
	default:
	}

	return progress, nil
}

// waitEvent blocks until any source is ready. Priority does not apply
// while idle; the next tick restores it.
func (o *Orchestrator) waitEvent(ctx context.Context) (Event, error) {
	// A nil channel blocks forever, which is exactly what an absent
	// subscription should do here.
	var inbound <-chan []byte
	if o.subscription != nil {
		inbound = o.subscription.Messages()
	}

	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()

	case ev, ok := <-o.connSource:
		if !ok {
			return Event{}, fmt.Errorf("connection source closed")
		}
		return Event{Connection: &ev}, nil

	case raw, ok := <-inbound:
		if !ok {
			return Event{}, ErrSubscriptionClosed
		}

		ev, err := o.decode(ctx, raw)
		if err != nil {
			return Event{}, err
		}
		if ev == nil {
			// Filtered out; report an empty flush step so the loop
			// re-ticks.
			return Event{Flush: true}, nil
		}
		return Event{Inbound: ev}, nil

	case ev, ok := <-o.player.Events():
		if !ok {
			return Event{}, ErrPlayerFailed
		}
		return Event{Player: &ev}, nil
	}
}

// transition applies one event to the state machine.
func (o *Orchestrator) transition(ctx context.Context, ev Event) error {
	switch {
	case ev.Connection != nil:
		return o.handleConnection(ctx, ev.Connection.Username)

	case ev.Inbound != nil:
		o.processFrame(ctx, ev.Inbound)
		return nil

	case ev.Player != nil:
		return o.handlePlayerEvent(ctx, *ev.Player)

	case ev.Flush:
		if o.publisher == nil {
			return nil
		}
		_, err := o.flushOutbound(ctx)
		return err
	}

	return nil
}

// decode parses and filters a raw payload. Returns nil for frames the
// filter rejects; a decode failure is fatal.
func (o *Orchestrator) decode(ctx context.Context, raw []byte) (*domain.Envelope, error) {
	env, err := codec.Unmarshal(raw)
	if err != nil {
		return nil, err
	}

	if !o.accepts(env) {
		return nil, nil
	}

	o.logger.DebugContext(ctx, "frame received",
		"kind", env.Kind.String(),
		"device_name", env.DeviceState.Name,
		"ident", env.Ident,
		"seq_nr", env.SeqNr,
		"state_update_id", env.StateUpdateID,
		"recipients", env.Recipients,
	)

	return env, nil
}

func (o *Orchestrator) handlePlayerEvent(ctx context.Context, ev player.Event) error {
	switch ev.Kind {
	case player.EventTrackEnded:
		if len(o.state.tracks) == 0 {
			return nil
		}

		o.state.index = (o.state.index + 1) % uint32(len(o.state.tracks))
		o.player.Load(o.state.tracks[o.state.index])

		now := o.now()
		o.state.updateID = now
		o.state.positionMs = 0
		o.state.positionMeasuredAt = now
		o.notify(ctx, "")

	case player.EventPosition:
		// Local bookkeeping only; peers extrapolate from the last notify.
		o.state.positionMs = ev.PositionMs
		o.state.positionMeasuredAt = o.now()

	case player.EventFailed:
		return fmt.Errorf("%w: %v", ErrPlayerFailed, ev.Err)
	}

	return nil
}
