package connection

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualSourceDeliversConnect(t *testing.T) {
	m := NewManual()
	m.Connect("alice")

	select {
	case ev := <-m.Events():
		assert.Equal(t, "alice", ev.Username)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestWatcherEmitsConnectedOnFirstPing(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(rc, "alice", 10*time.Millisecond, slog.Default())
	go w.Run(ctx)

	select {
	case ev := <-w.Events():
		assert.Equal(t, "alice", ev.Username)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reported connected")
	}

	// Still up: no duplicate Connected events while the backend stays
	// reachable.
	select {
	case <-w.Events():
		t.Fatal("unexpected second connected event")
	case <-time.After(50 * time.Millisecond):
	}
}
