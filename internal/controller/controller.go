// Package controller exposes a read-only local API over the device's
// synchronization state: the latest playback snapshot, the device
// descriptor, and a websocket stream of state changes. The orchestrator
// owns its state exclusively, so the controller works from immutable
// StateView copies pushed through the OnChange hook.
package controller

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	syncsvc "github.com/soundmesh/device/internal/service/sync"
)

type controller struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	view *syncsvc.StateView
	subs map[*websocket.Conn]struct{}
}

func NewController(logger *slog.Logger) *controller {
	return &controller{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subs: make(map[*websocket.Conn]struct{}),
	}
}

// Update records the latest view and fans it out to websocket
// subscribers. Safe for concurrent use; called from the orchestrator
// goroutine.
func (c *controller) Update(view syncsvc.StateView) {
	c.mu.Lock()
	c.view = &view
	conns := make([]*websocket.Conn, 0, len(c.subs))
	for conn := range c.subs {
		conns = append(conns, conn)
	}
	c.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(view); err != nil {
			c.removeSub(conn)
			conn.Close()
		}
	}
}

func (c *controller) addSub(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[conn] = struct{}{}
}

func (c *controller) removeSub(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, conn)
}

func (c *controller) latest() *syncsvc.StateView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}
