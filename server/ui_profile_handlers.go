package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/fee-portal/forms"
	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/navigation"
)

// ProfilePageHandler renders the profile form (GET /profile)
func (s *Server) ProfilePageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("profile.html")

	return func(w http.ResponseWriter, r *http.Request) {
		ps, user, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		ctx := r.Context()

		errorMsg := r.URL.Query().Get("error")
		if errorMsg == "" {
			errorMsg = ps.manager.State().Error
		}
		ps.manager.ClearError(ctx)

		s.render(w, tmpl, http.StatusOK, PageData{
			Title:        "My profile",
			User:         user,
			Error:        errorMsg,
			DashboardURL: navigation.AfterLogin(user, ""),
			Toasts:       ps.takeToasts(ctx),
		})
	}
}

// ProfileSubmissionHandler applies a profile update (POST /profile)
func (s *Server) ProfileSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var form forms.ProfileForm
		if err := s.validator.Bind(&form, r.PostForm); err != nil {
			redirectWithError(w, r, navigation.RouteProfile, err.Error(), url.Values{})
			return
		}
		update := form.Update()
		if update.IsEmpty() {
			redirectWithError(w, r, navigation.RouteProfile, "Nothing to update", url.Values{})
			return
		}

		ps, _, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		ctx := r.Context()

		_, err := ps.manager.UpdateProfile(ctx, update)
		ps.keepToasts(ctx)
		if err != nil {
			ps.manager.ClearError(ctx)
			redirectWithError(w, r, navigation.RouteProfile, errors.Message(err), url.Values{})
			return
		}
		redirectSuccess(w, r, navigation.RouteProfile)
	}
}
