package controller

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (c *controller) getState(w http.ResponseWriter, r *http.Request) {
	view := c.latest()
	if view == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no state yet"})
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (c *controller) getDevice(w http.ResponseWriter, r *http.Request) {
	view := c.latest()
	if view == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no state yet"})
		return
	}

	writeJSON(w, http.StatusOK, view.Device)
}

// streamEvents upgrades to a websocket and pushes every subsequent state
// view. The first message is the current view, if any.
func (c *controller) streamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "ws upgrade failed", "error", err)
		return
	}

	if view := c.latest(); view != nil {
		if err := conn.WriteJSON(view); err != nil {
			conn.Close()
			return
		}
	}

	c.addSub(conn)

	// Reads are discarded; the read loop only notices the peer going away.
	go func() {
		defer func() {
			c.removeSub(conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
