package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/fee-portal/forms"
	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/navigation"
	"github.com/rs/zerolog/log"
)

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	loginTmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := s.openSession(w, r)
		if err != nil {
			log.Err(err).Msg("opening session")
			http.Error(w, "Session unavailable", http.StatusInternalServerError)
			return
		}
		ctx := r.Context()

		// A stale cookie got the visitor here without a usable session
		if ps.cookie.Token() != "" && !ps.manager.State().IsAuthenticated {
			ps.realignCookie(ctx)
		}

		query := r.URL.Query()
		errorMsg := query.Get("error")
		if errorMsg == "" {
			errorMsg = ps.manager.State().Error
		}
		ps.manager.ClearError(ctx)

		redirect, _ := navigation.SafeReturnPath(query.Get(navigation.ReturnParam))
		s.render(w, loginTmpl, http.StatusOK, PageData{
			Title:    "Sign in",
			Error:    errorMsg,
			Email:    query.Get("email"),
			Redirect: redirect,
			Toasts:   ps.takeToasts(ctx),
		})
	}
}

// LoginSubmissionHandler processes the login form submission (POST /auth/login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var form forms.LoginForm
		if err := s.validator.Bind(&form, r.PostForm); err != nil {
			redirectWithError(w, r, RouteLogin, err.Error(), loginQuery(form))
			return
		}

		ps, err := s.openSession(w, r)
		if err != nil {
			log.Err(err).Msg("opening session")
			http.Error(w, "Session unavailable", http.StatusInternalServerError)
			return
		}
		ctx := r.Context()

		user, err := ps.manager.Login(ctx, form.Credentials())
		ps.keepToasts(ctx)
		if err != nil {
			// The page shows the message once from the query string
			ps.manager.ClearError(ctx)
			redirectWithError(w, r, RouteLogin, errors.Message(err), loginQuery(form))
			return
		}

		s.scheduleNext(ctx, ps.store)
		redirectSuccess(w, r, navigation.AfterLogin(user, form.Redirect))
	}
}

// loginQuery keeps the email and return path across a failed attempt
func loginQuery(form forms.LoginForm) url.Values {
	q := url.Values{}
	if form.Email != "" {
		q.Set("email", form.Email)
	}
	if p, ok := navigation.SafeReturnPath(form.Redirect); ok {
		q.Set(navigation.ReturnParam, p)
	}
	return q
}

// LogoutHandler ends the session (GET|POST /auth/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := s.openSession(w, r)
		if err != nil {
			log.Err(err).Msg("opening session")
			http.Error(w, "Session unavailable", http.StatusInternalServerError)
			return
		}
		ctx := r.Context()

		s.scheduler.Cancel(ps.namespace)
		ps.manager.Logout(ctx)
		ps.keepToasts(ctx)
		redirectSuccess(w, r, RouteLogin)
	}
}
