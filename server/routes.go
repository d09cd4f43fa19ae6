package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/fee-portal/navigation"
	"github.com/jrsteele09/fee-portal/users"
	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.PageMiddleware()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Public pages
	s.RegisterRouteHandler("GET "+navigation.RouteRegister, ChainMiddleware(s.PublicPageHandler("Create an account", "Accounts are created by the school office. Please contact the bursar to register."), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+navigation.RouteForgotPassword, ChainMiddleware(s.PublicPageHandler("Forgot password", "Password resets are handled by the school office."), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+navigation.RouteResetPassword, ChainMiddleware(s.PublicPageHandler("Reset password", "Follow the link in your reset email to choose a new password."), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+navigation.RouteTestConnection, ChainMiddleware(s.TestConnectionHandler(), s.PageMiddleware()...))

	// Dashboards
	s.RegisterRouteHandler("GET "+navigation.RouteAdminDashboard, ChainMiddleware(s.DashboardHandler(users.RoleAdmin), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+navigation.RouteStudentDashboard, ChainMiddleware(s.DashboardHandler(users.RoleStudent), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+navigation.RouteParentDashboard, ChainMiddleware(s.DashboardHandler(users.RoleParent), s.PageMiddleware()...))

	// Profile
	s.RegisterRouteHandler("GET "+navigation.RouteProfile, ChainMiddleware(s.ProfilePageHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+navigation.RouteProfile, ChainMiddleware(s.ProfileSubmissionHandler(), s.PageMiddleware()...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPISessionRefresh, ChainMiddleware(s.SessionRefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(http.NotFound, s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err)
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func logError(method, path string, err error) {
	log.Warn().Err(err).Msgf("[%s] %s", colouredMethod(method), path)
}
