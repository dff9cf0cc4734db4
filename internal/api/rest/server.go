// Package rest provides the HTTP and WebSocket boundary of the server.
package rest

import (
	"net/http"

	"github.com/tunecast/tunecast/internal/app/auth"
	"github.com/tunecast/tunecast/internal/app/dispatch"
	"github.com/tunecast/tunecast/internal/app/relay"
	"github.com/tunecast/tunecast/internal/infra/config"
	"github.com/tunecast/tunecast/internal/infra/store"
)

// Server handles the REST API and the spectator WebSocket endpoint.
type Server struct {
	cfg       *config.Config
	store     *store.Store
	auth      *auth.Authenticator
	registry  *relay.Registry
	dispatch  *dispatch.Dispatcher
	loginRate *ipLimiter

	handler http.Handler
}

// New creates a Server with all routes wired up.
func New(cfg *config.Config, st *store.Store, authn *auth.Authenticator, registry *relay.Registry, dispatcher *dispatch.Dispatcher) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		auth:      authn,
		registry:  registry,
		dispatch:  dispatcher,
		loginRate: newIPLimiter(cfg.Auth.LoginRatePerMin, cfg.Auth.LoginRateBurst),
	}
	s.handler = requestLogger(s.routes())
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.Handle("GET /api/profile", s.authRequired(s.handleProfile))
	mux.Handle("POST /api/settings", s.authRequired(s.handleSettings))
	mux.Handle("GET /api/status", s.authRequired(s.handleStatus))
	mux.Handle("POST /api/send", s.authRequired(s.handleSend))
	mux.HandleFunc("GET /api/spectator/{username}", s.handleSpectatorExists)
	mux.HandleFunc("POST /api/spectator/{username}/service", s.handleSpectatorService)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /ws", s.handleSpectatorWS)

	return mux
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
