package sync

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chredis "github.com/soundmesh/device/internal/channel/redis"
	"github.com/soundmesh/device/internal/connection"
	"github.com/soundmesh/device/internal/domain"
	"github.com/soundmesh/device/internal/player/fake"
)

func loadEnvelope(tracks []string, index uint32) *domain.Envelope {
	refs := make([]domain.TrackRef, 0, len(tracks))
	for _, id := range tracks {
		refs = append(refs, domain.TrackRef{ID: id})
	}

	return &domain.Envelope{
		Kind:  domain.KindLoad,
		Ident: "dev-2",
		State: &domain.State{
			PlayingTrackIndex: index,
			Tracks:            refs,
		},
	}
}

func TestReconnectReleasesPreviousSubscription(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	rc := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	defer rc.Close()

	o := New(&Config{
		Ident:      "dev-1",
		DeviceName: "kitchen",
		Provider:   chredis.NewChannel(rc, slog.Default()),
		ConnSource: connection.NewManual().Events(),
		Player:     fake.NewPlayer(),
		Logger:     slog.Default(),
	})

	ctx := context.Background()
	topic := topicForUser(testUser)
	for i := 0; i < 5; i++ {
		require.NoError(t, o.handleConnection(ctx, testUser))
	}

	require.Eventually(t, func() bool {
		counts, err := rc.PubSubNumSub(ctx, topic).Result()
		return err == nil && counts[topic] == 1
	}, 2*time.Second, 10*time.Millisecond, "stale subscriptions survived the reconnects")
}

func TestLoadSemantics(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	f.clock = 5_000
	f.o.processFrame(ctx, loadEnvelope([]string{"T1", "T2", "T3"}, 1))

	assert.Equal(t, []string{"T1", "T2", "T3"}, f.o.state.tracks)
	assert.Equal(t, uint32(1), f.o.state.index)
	assert.Equal(t, []string{"T2"}, f.pl.Loads())
	assert.Equal(t, domain.StatusPlaying, f.o.state.status)
	assert.Equal(t, uint32(0), f.o.state.positionMs)
	assert.Equal(t, int64(5_000), f.o.state.positionMeasuredAt)
	assert.Equal(t, int64(5_000), f.o.state.updateID)

	assert.True(t, f.o.state.isActive, "loading claims the active role")
	assert.Equal(t, int64(5_000), f.o.state.becameActiveAt)

	sent := f.recv(t)
	require.Len(t, sent, 1)
	assert.Equal(t, domain.KindNotify, sent[0].Kind)
}

func TestLoadDiscardsTracksWithoutID(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	env := loadEnvelope([]string{"T1", "", "T3"}, 0)
	f.o.processFrame(ctx, env)

	assert.Equal(t, []string{"T1", "T3"}, f.o.state.tracks)
	assert.Equal(t, []string{"T1"}, f.pl.Loads())
}

func TestLoadWithOutOfBoundsIndexStillNotifies(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	f.o.processFrame(ctx, loadEnvelope([]string{"T1"}, 5))

	assert.Empty(t, f.pl.Loads(), "no track to load")
	assert.Equal(t, domain.StatusStopped, f.o.state.status)

	sent := f.recv(t)
	require.Len(t, sent, 1, "notify goes out regardless")
	assert.Equal(t, domain.KindNotify, sent[0].Kind)
}

func TestLoadWithoutSnapshotClearsQueue(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	f.o.processFrame(ctx, loadEnvelope([]string{"T1", "T2"}, 0))
	f.recv(t)

	f.o.processFrame(ctx, &domain.Envelope{Kind: domain.KindLoad, Ident: "dev-2"})

	assert.Empty(t, f.o.state.tracks)
	assert.Equal(t, uint32(0), f.o.state.index)
	assert.Equal(t, []string{"T1"}, f.pl.Loads(), "nothing to load from an empty queue")

	sent := f.recv(t)
	require.Len(t, sent, 1)
	assert.Equal(t, domain.KindNotify, sent[0].Kind)
}

func TestLoadDoesNotRefreshExistingClaim(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	f.o.state.isActive = true
	f.o.state.becameActiveAt = 100

	f.clock = 9_000
	f.o.processFrame(ctx, loadEnvelope([]string{"T1"}, 0))

	assert.Equal(t, int64(100), f.o.state.becameActiveAt, "an active device keeps its original claim time")
}

func TestPauseFoldsExtrapolatedPosition(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	f.clock = 10_000
	f.o.processFrame(ctx, loadEnvelope([]string{"T1"}, 0))
	f.recv(t)

	f.clock = 12_500
	f.o.processFrame(ctx, &domain.Envelope{Kind: domain.KindPause, Ident: "dev-2"})

	assert.Equal(t, domain.StatusPaused, f.o.state.status)
	assert.Equal(t, uint32(2_500), f.o.state.positionMs, "paused position includes time played since last sample")
	assert.Equal(t, int64(12_500), f.o.state.positionMeasuredAt)

	sent := f.recv(t)
	require.Len(t, sent, 1)
	assert.Equal(t, domain.KindNotify, sent[0].Kind)
}

func TestPlayResumesPausedTrack(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	f.o.processFrame(ctx, loadEnvelope([]string{"T1"}, 0))
	f.o.processFrame(ctx, &domain.Envelope{Kind: domain.KindPause, Ident: "dev-2"})
	f.recv(t)

	f.o.processFrame(ctx, &domain.Envelope{Kind: domain.KindPlay, Ident: "dev-2"})

	assert.Equal(t, domain.StatusPlaying, f.o.state.status)
	require.Len(t, f.recv(t), 1)
}

func TestSeek(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	f.o.processFrame(ctx, loadEnvelope([]string{"T1"}, 0))
	f.recv(t)

	f.clock = 20_000
	f.o.processFrame(ctx, &domain.Envelope{Kind: domain.KindSeek, Ident: "dev-2", PositionMs: 42_000})

	assert.Equal(t, uint32(42_000), f.o.state.positionMs)
	assert.Equal(t, int64(20_000), f.o.state.positionMeasuredAt)
	require.Len(t, f.recv(t), 1)
}

func TestNextAndPrevWrapAround(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	f.o.processFrame(ctx, loadEnvelope([]string{"T1", "T2", "T3"}, 2))
	f.recv(t)

	f.o.processFrame(ctx, &domain.Envelope{Kind: domain.KindNext, Ident: "dev-2"})
	assert.Equal(t, uint32(0), f.o.state.index)

	f.o.processFrame(ctx, &domain.Envelope{Kind: domain.KindPrev, Ident: "dev-2"})
	assert.Equal(t, uint32(2), f.o.state.index)

	assert.Equal(t, []string{"T3", "T1", "T3"}, f.pl.Loads())
}

func TestTransportCommandsIgnoredWhenInactive(t *testing.T) {
	f := newFixture(t, "dev-1", "kitchen")
	ctx := context.Background()

	f.o.state.tracks = []string{"T1", "T2"}

	for _, kind := range []domain.MessageKind{
		domain.KindPlay,
		domain.KindPause,
		domain.KindSeek,
		domain.KindNext,
		domain.KindPrev,
	} {
		f.o.processFrame(ctx, &domain.Envelope{Kind: kind, Ident: "dev-2"})
	}

	assert.Empty(t, f.pl.Loads())
	assert.Equal(t, domain.StatusStopped, f.o.state.status)
	assert.Empty(t, f.recv(t), "an inactive device stays silent")
}
