package server

import (
	"net/http"

	"github.com/jrsteele09/fee-portal/navigation"
	"github.com/rs/zerolog/log"
)

// IndexHandler sends the visitor to the landing page of their role (GET /)
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := s.openSession(w, r)
		if err != nil {
			log.Err(err).Msg("opening session")
			http.Error(w, "Session unavailable", http.StatusInternalServerError)
			return
		}
		state := s.resolve(r.Context(), ps)
		if ps.nav.Redirected() || !state.IsAuthenticated {
			if ps.cookie.Token() != "" {
				ps.cookie.ClearToken()
			}
			location := RouteLogin
			if state.Error != "" {
				location = withQuery(location, "error", state.Error)
			}
			http.Redirect(w, r, location, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, navigation.Landing(state.User), http.StatusSeeOther)
	}
}
