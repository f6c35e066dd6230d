package sync

import (
	"context"

	"github.com/soundmesh/device/internal/codec"
	"github.com/soundmesh/device/internal/domain"
)

// frameParams carries everything an outbound envelope needs beyond what is
// stamped at construction time (ident, sequence number, device descriptor).
type frameParams struct {
	kind domain.MessageKind
	// recipient addresses the envelope to a single peer; empty broadcasts.
	recipient string
	// state, when non-nil, attaches a playback snapshot stamped with
	// stateUpdateID.
	state         *domain.State
	stateUpdateID int64
}

// newFrame builds a fully-formed envelope. It never mutates playback state;
// all state changes happen before construction.
func (o *Orchestrator) newFrame(p frameParams) domain.Envelope {
	env := domain.Envelope{
		Kind:        p.kind,
		Ident:       o.ident,
		SeqNr:       o.nextSeq(),
		DeviceState: o.state.deviceState(),
	}

	if p.recipient != "" {
		env.Recipients = []string{p.recipient}
	}
	if p.state != nil {
		env.State = p.state
		env.StateUpdateID = p.stateUpdateID
	}

	return env
}

// nextSeq assigns the next per-sender sequence number. Every outbound
// envelope consumes exactly one value; no gaps, no reuse.
func (o *Orchestrator) nextSeq() uint32 {
	o.seqNr++
	return o.seqNr
}

// sendFrame queues an envelope for publication. Without a live publisher
// the frame is dropped; there is no buffering across reconnects.
func (o *Orchestrator) sendFrame(ctx context.Context, env domain.Envelope) {
	if o.publisher == nil {
		o.logger.WarnContext(ctx, "not connected, dropping frame", "kind", env.Kind.String())
		return
	}

	select {
	case o.outbox <- env:
	default:
		o.logger.WarnContext(ctx, "outbox full, dropping frame", "kind", env.Kind.String())
	}
}

// flushOutbound publishes one pending envelope, if any. Reports whether it
// made progress.
func (o *Orchestrator) flushOutbound(ctx context.Context) (bool, error) {
	select {
	case env := <-o.outbox:
		payload, err := codec.Marshal(&env)
		if err != nil {
			return true, err
		}

		return true, o.policy.Send(ctx, o.publisher, payload)
	default:
		return false, nil
	}
}

// notify sends the full current state to one peer, or to everyone when
// recipient is empty.
func (o *Orchestrator) notify(ctx context.Context, recipient string) {
	o.sendFrame(ctx, o.newFrame(frameParams{
		kind:          domain.KindNotify,
		recipient:     recipient,
		state:         o.state.snapshot(),
		stateUpdateID: o.state.updateID,
	}))

	if o.onChange != nil {
		o.onChange(o.View())
	}
}
