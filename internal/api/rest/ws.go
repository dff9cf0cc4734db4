package rest

import (
	"net/http"

	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/tunecast/tunecast/internal/app/relay"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The spectator page is served from anywhere (shared links).
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSpectatorWS upgrades a spectator connection and keeps it registered
// until the peer goes away.
func (s *Server) handleSpectatorWS(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	// Refuse unknown names with a plain HTTP response, before upgrading.
	exists, err := s.store.UsernameExists(r.Context(), username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "spectator not found")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Msgf("websocket upgrade failed: username=%s error=%v", username, err)
		return
	}

	token, err := s.registry.Register(r.Context(), username, relay.NewWSChannel(conn))
	if err != nil {
		zlog.Warn().Msgf("spectator registration failed: username=%s error=%v", username, err)
		_ = conn.Close()
		return
	}
	zlog.Info().Msgf("spectator connected: username=%s", username)

	// Spectators only listen. Drain incoming frames until the peer closes;
	// a replacement connection closes this one and unblocks the read.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.registry.Unregister(username, token)
	_ = conn.Close()
	zlog.Info().Msgf("spectator disconnected: username=%s", username)
}
