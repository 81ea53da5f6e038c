package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"audioforge/logger"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsPingInterval = 30 * time.Second

// WatchJobsHandler upgrades to a websocket and pushes the principal's
// job updates as the worker (or the update route) advances them. The
// polling endpoints remain authoritative; this is a lower-latency view.
func (h *APIHandler) WatchJobsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	// Read pump: we expect no client messages, but reading surfaces
	// close frames so the subscription gets torn down.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case job, ok := <-updates:
			if !ok {
				return
			}
			if job.UserID != userID {
				continue
			}
			if err := conn.WriteJSON(job); err != nil {
				logger.Debug("websocket write failed", logger.ErrorField(err))
				return
			}
		}
	}
}
