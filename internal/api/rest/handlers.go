package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"

	"github.com/tunecast/tunecast/internal/domain/account"
	"github.com/tunecast/tunecast/internal/domain/track"
	"github.com/tunecast/tunecast/internal/infra/store"
)

// invalidCredentialsMessage is shared by every login failure so that unknown
// emails and wrong passwords are indistinguishable from outside.
const invalidCredentialsMessage = "invalid email or password"

var validate = validator.New()

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}

// validationMessage turns the first field error into a client-facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "email":
			return "email is invalid"
		case "min":
			return field + " must be at least " + fe.Param() + " characters"
		}
		return field + " is invalid"
	}
	return "invalid request"
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username" validate:"required"`
}

type registerResponse struct {
	Token        string `json:"token"`
	SpectatorURL string `json:"spectatorUrl"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if err := account.ValidateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	acct, err := s.store.CreateAccount(r.Context(), req.Email, req.Username, hash, s.cfg.Spectator.DefaultOffsetSec)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := s.auth.IssueToken(acct.ID, acct.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	zlog.Info().Msgf("account registered: username=%s", acct.Username)
	writeJSON(w, http.StatusOK, registerResponse{
		Token:        token,
		SpectatorURL: acct.SpectatorURL(s.cfg.Spectator.BaseURL),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token            string `json:"token"`
	DefaultTimestamp int    `json:"defaultTimestamp"`
	SpectatorURL     string `json:"spectatorUrl"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.loginRate.allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	acct, err := s.store.AccountByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusUnauthorized, invalidCredentialsMessage)
			return
		}
		writeDomainError(w, err)
		return
	}
	if err := s.auth.CheckPassword(acct.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, invalidCredentialsMessage)
		return
	}

	token, err := s.auth.IssueToken(acct.ID, acct.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	zlog.Info().Msgf("login: username=%s", acct.Username)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:            token,
		DefaultTimestamp: acct.DefaultOffsetSec,
		SpectatorURL:     acct.SpectatorURL(s.cfg.Spectator.BaseURL),
	})
}

type profileResponse struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	Username         string `json:"username"`
	DefaultTimestamp int    `json:"defaultTimestamp"`
	SpectatorURL     string `json:"spectatorUrl"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	acct, err := s.store.AccountByID(r.Context(), identity.AccountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:               acct.ID,
		Email:            acct.Email,
		Username:         acct.Username,
		DefaultTimestamp: acct.DefaultOffsetSec,
		SpectatorURL:     acct.SpectatorURL(s.cfg.Spectator.BaseURL),
	})
}

type settingsRequest struct {
	// Pointer so that an explicit 0 is distinguishable from a missing field.
	DefaultTimestamp *int `json:"defaultTimestamp"`
}

type settingsResponse struct {
	DefaultTimestamp int `json:"defaultTimestamp"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DefaultTimestamp == nil {
		writeError(w, http.StatusBadRequest, "defaultTimestamp is required")
		return
	}
	offset := *req.DefaultTimestamp
	if offset < 0 || offset > s.cfg.Spectator.MaxOffsetSec {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("defaultTimestamp must be between 0 and %d", s.cfg.Spectator.MaxOffsetSec))
		return
	}

	if err := s.store.UpdateDefaultOffset(r.Context(), identity.AccountID, offset); err != nil {
		writeDomainError(w, err)
		return
	}

	zlog.Info().Msgf("default offset updated: username=%s offset=%d", identity.Username, offset)
	writeJSON(w, http.StatusOK, settingsResponse{DefaultTimestamp: offset})
}

type statusResponse struct {
	Connected bool `json:"connected"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Connected: s.registry.IsConnected(identity.Username),
	})
}

type sendRequest struct {
	SongQuery string `json:"songQuery" validate:"required"`
	Service   string `json:"service" validate:"required"`
}

type trackPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artist  string `json:"artist"`
	Service string `json:"service"`
}

type sendResponse struct {
	Success bool         `json:"success"`
	Track   trackPayload `json:"track"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	t, err := s.dispatch.Dispatch(r.Context(), identity.AccountID, req.SongQuery, req.Service)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{
		Success: true,
		Track: trackPayload{
			ID:      t.ID,
			Name:    t.Name,
			Artist:  t.Artist,
			Service: t.Service.String(),
		},
	})
}

type spectatorResponse struct {
	Exists   bool   `json:"exists"`
	Username string `json:"username"`
}

func (s *Server) handleSpectatorExists(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	exists, err := s.store.UsernameExists(r.Context(), username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "spectator not found")
		return
	}

	writeJSON(w, http.StatusOK, spectatorResponse{Exists: true, Username: username})
}

type spectatorServiceRequest struct {
	Service string `json:"service" validate:"required"`
}

type spectatorServiceResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleSpectatorService(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var req spectatorServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	svc := track.ParseService(req.Service)
	if !svc.Known() {
		writeError(w, http.StatusBadRequest, "unknown service")
		return
	}

	if err := s.store.UpdatePreferredService(r.Context(), username, svc); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, spectatorServiceResponse{Status: "ok"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
