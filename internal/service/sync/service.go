// Package sync implements the device-synchronization state machine: every
// device of a user shares one pub/sub topic, and this orchestrator keeps
// the local playback view converged with its peers while arbitrating which
// device owns audio output.
package sync

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundmesh/device/internal/channel"
	"github.com/soundmesh/device/internal/connection"
	"github.com/soundmesh/device/internal/domain"
	"github.com/soundmesh/device/internal/player"
)

var (
	ErrSubscriptionClosed = errors.New("subscription closed")
	ErrPlayerFailed       = errors.New("player failed")
)

// StateView is an immutable copy of the device and playback state handed to
// the change observer. The orchestrator never shares its live state.
type StateView struct {
	Ident    string             `json:"ident"`
	UpdateID int64              `json:"update_id"`
	Device   domain.DeviceState `json:"device"`
	State    domain.State       `json:"state"`
}

type Config struct {
	// Ident is this device's stable identity on the topic, derived from the
	// session by the caller.
	Ident      string
	DeviceName string

	Provider   channel.Provider
	ConnSource <-chan connection.Event
	Player     player.Player

	// Policy decides what happens when a publish fails. Defaults to
	// DropPolicy.
	Policy SendPolicy

	// OnChange, if set, receives a StateView each time a notify is
	// broadcast. Used by the observability API.
	OnChange func(StateView)

	Logger *slog.Logger

	// Clock returns wall-clock ms since epoch. Tests pin it.
	Clock func() int64
}

type Orchestrator struct {
	ident string

	provider   channel.Provider
	connSource <-chan connection.Event
	player     player.Player

	seqNr uint32

	// Absent until the first Connected event arrives.
	subscription channel.Subscription
	publisher    channel.Publisher

	outbox chan domain.Envelope
	policy SendPolicy

	state    playbackState
	onChange func(StateView)

	logger *slog.Logger
	now    func() int64
}

func New(cfg *Config) *Orchestrator {
	o := &Orchestrator{
		ident:      cfg.Ident,
		provider:   cfg.Provider,
		connSource: cfg.ConnSource,
		player:     cfg.Player,
		outbox:     make(chan domain.Envelope, 16),
		policy:     cfg.Policy,
		state:      newPlaybackState(cfg.DeviceName),
		onChange:   cfg.OnChange,
		logger:     cfg.Logger,
		now:        cfg.Clock,
	}

	if o.policy == nil {
		o.policy = DropPolicy{Logger: cfg.Logger}
	}
	if o.now == nil {
		o.now = func() int64 { return time.Now().UnixMilli() }
	}

	return o
}

// Ident returns the device identity this orchestrator filters by.
func (o *Orchestrator) Ident() string {
	return o.ident
}

// View returns a copy of the current state. Only safe from the
// orchestrator goroutine; external readers go through OnChange.
func (o *Orchestrator) View() StateView {
	return StateView{
		Ident:    o.ident,
		UpdateID: o.state.updateID,
		Device:   o.state.deviceState(),
		State:    *o.state.snapshot(),
	}
}

func topicForUser(username string) string {
	return fmt.Sprintf("remote:user:%s", username)
}
