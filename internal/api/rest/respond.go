package rest

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tunecast/tunecast/internal/app/catalog"
	"github.com/tunecast/tunecast/internal/app/dispatch"
	"github.com/tunecast/tunecast/internal/infra/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zlog.Error().Msgf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeDomainError maps application errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "email is already registered")
	case errors.Is(err, store.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, "username is already taken")
	case errors.Is(err, store.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "no track found")
	case errors.Is(err, catalog.ErrUnconfigured):
		writeError(w, http.StatusServiceUnavailable, "selected service is not configured")
	case errors.Is(err, dispatch.ErrSpectatorNotConnected):
		writeError(w, http.StatusConflict, "spectator is not connected")
	default:
		zlog.Error().Msgf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
