package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/notify"
	"github.com/jrsteele09/fee-portal/session"
	"github.com/jrsteele09/fee-portal/users"
	"github.com/rs/zerolog/log"
)

// SessionResponse is the JSON view of a browser's session. Tokens are never included.
type SessionResponse struct {
	Status          session.Status `json:"status"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	User            *users.User    `json:"user,omitempty"`
	Error           string         `json:"error,omitempty"`
	RefreshAt       *time.Time     `json:"refreshAt,omitempty"`
	Redirect        string         `json:"redirect,omitempty"`
	Toasts          []notify.Toast `json:"toasts,omitempty"`
}

func (s *Server) sessionResponse(ctx context.Context, ps *portalSession) SessionResponse {
	state := ps.manager.State()
	resp := SessionResponse{
		Status:          state.Status(),
		IsAuthenticated: state.IsAuthenticated,
		Error:           state.Error,
		Toasts:          ps.takeToasts(ctx),
	}
	if state.User != nil {
		resp.User = state.User.WithTokens("", "")
	}
	if at, ok := s.scheduler.Pending(ps.namespace); ok {
		resp.RefreshAt = &at
	}
	if ps.nav.Redirected() {
		resp.Redirect = withQuery(RouteLogin, "error", state.Error)
	}
	return resp
}

// SessionHandler reports the session of the requesting browser (GET /api/session)
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := s.openSession(w, r)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		ctx := r.Context()
		s.resolve(ctx, ps)
		ps.realignCookie(ctx)
		writeJSON(w, http.StatusOK, s.sessionResponse(ctx, ps))
	}
}

// SessionRefreshHandler refreshes the token pair on demand (POST /api/session/refresh)
func (s *Server) SessionRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := s.openSession(w, r)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		ctx := r.Context()

		ps.manager.RefreshToken(ctx)
		s.scheduleNext(ctx, ps.store)

		status := http.StatusOK
		if ps.nav.Redirected() || !ps.manager.State().IsAuthenticated {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, s.sessionResponse(ctx, ps))
	}
}

// TestConnectionHandler checks that the backend API answers (GET /test-connection)
func (s *Server) TestConnectionHandler() http.HandlerFunc {
	type result struct {
		Success    bool   `json:"success"`
		Message    string `json:"message"`
		APIBaseURL string `json:"apiBaseUrl"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		api := s.backend(nil)
		if err := api.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusBadGateway, result{
				Message:    errors.Message(err),
				APIBaseURL: s.config.GetAPIBaseURL(),
			})
			return
		}
		writeJSON(w, http.StatusOK, result{
			Success:    true,
			Message:    "Backend reachable",
			APIBaseURL: s.config.GetAPIBaseURL(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("encoding response")
	}
}

func writeJSONError(w http.ResponseWriter, err error) {
	log.Err(err).Msg("opening session")
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"message": "Session unavailable",
	})
}
