package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/fee-portal/guard"
	"github.com/jrsteele09/fee-portal/navigation"
	"github.com/jrsteele09/fee-portal/session"
	"github.com/jrsteele09/fee-portal/users"
	"github.com/rs/zerolog/log"
)

var dashboardTitles = map[users.Role]string{
	users.RoleAdmin:   "Admin dashboard",
	users.RoleStudent: "Student dashboard",
	users.RoleParent:  "Parent dashboard",
}

// requireUser opens the session of an authenticated visitor. It writes the
// redirect and returns false when there is none.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*portalSession, *users.User, bool) {
	ps, err := s.openSession(w, r)
	if err != nil {
		log.Err(err).Msg("opening session")
		http.Error(w, "Session unavailable", http.StatusInternalServerError)
		return nil, nil, false
	}
	ctx := r.Context()

	state := s.resolve(ctx, ps)
	if ps.nav.Redirected() || !state.IsAuthenticated {
		if ps.cookie.Token() != "" {
			ps.cookie.ClearToken()
		}
		location := guard.LoginLocation(r.URL.Path)
		if state.Error != "" {
			location = withQuery(location, "error", state.Error)
		}
		redirectSuccess(w, r, location)
		return nil, nil, false
	}

	ps.realignCookie(ctx)
	return ps, state.User, true
}

// resolve brings the restored session up to date: the refresh cycle is
// started and a session that lost its user but kept a token is re-checked.
func (s *Server) resolve(ctx context.Context, ps *portalSession) session.State {
	s.initializeAuth(ctx, ps)

	if !ps.nav.Redirected() && !ps.manager.State().IsAuthenticated {
		if token, _ := ps.store.AccessToken(ctx); token != "" {
			ps.manager.CheckAuth(ctx)
		}
	}
	return ps.manager.State()
}

// DashboardHandler renders the dashboard of role. Visitors whose role lands
// elsewhere are sent to their own dashboard.
func (s *Server) DashboardHandler(role users.Role) http.HandlerFunc {
	tmpl := mustParseTemplate("dashboard.html")
	own, _ := navigation.DashboardFor(role)

	return func(w http.ResponseWriter, r *http.Request) {
		ps, user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		if target := navigation.AfterLogin(user, ""); target != own {
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		s.render(w, tmpl, http.StatusOK, PageData{
			Title:        dashboardTitles[role],
			User:         user,
			DashboardURL: own,
			Toasts:       ps.takeToasts(r.Context()),
		})
	}
}

// PublicPageHandler renders an informational page reachable without a session
func (s *Server) PublicPageHandler(title, message string) http.HandlerFunc {
	tmpl := mustParseTemplate("public.html")

	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, tmpl, http.StatusOK, PageData{
			Title:   title,
			Message: message,
			Error:   r.URL.Query().Get("error"),
		})
	}
}
