package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/moodfuse/internal/adapter"
	"github.com/sweeney/moodfuse/internal/log"
	"github.com/sweeney/moodfuse/internal/logic"
)

const maxFrame = 64 << 10

// handleAdapter upgrades an adapter process connection and streams its
// frames into the engine until either side closes.
func (s *Server) handleAdapter(w http.ResponseWriter, r *http.Request) {
	m := logic.Modality(r.PathValue("modality"))
	if !adapter.Streaming(m) {
		writeError(w, http.StatusNotFound, adapter.ErrNotStreaming)
		return
	}

	conn, release, err := adapter.Acquire(m, func() (*websocket.Conn, error) {
		return s.upgrader.Upgrade(w, r, nil)
	})
	if err != nil {
		// Upgrade has already written the handshake error.
		log.Warn("adapter upgrade failed", "modality", m, "error", err)
		return
	}
	conn.SetReadLimit(maxFrame)

	s.mu.Lock()
	s.adapters[conn] = release
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.adapters, conn)
		s.mu.Unlock()
		release()
	}()

	log.Info("adapter connected", "modality", m, "remote", r.RemoteAddr)
	err = adapter.Serve(m, conn, s.engine, time.Now)

	var closeErr *websocket.CloseError
	switch {
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		log.Warn("adapter connection lost", "modality", m, "error", err)
	case errors.As(err, &closeErr):
		log.Info("adapter disconnected", "modality", m, "code", closeErr.Code)
	default:
		log.Info("adapter disconnected", "modality", m, "error", err)
	}
}
