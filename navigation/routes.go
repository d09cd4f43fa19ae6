package navigation

// Page routes shared by the route guard, the redirect policy and the portal server
const (
	RouteRoot           = "/"
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"
	RouteTestConnection = "/test-connection"

	RouteAdminDashboard   = "/admin/dashboard"
	RouteStudentDashboard = "/student/dashboard"
	RouteParentDashboard  = "/parent/dashboard"
	RouteProfile          = "/profile"

	// DefaultDashboard is where the guard sends an authenticated visitor of the login page
	DefaultDashboard = RouteAdminDashboard
)

// ReturnParam carries the originally requested path through the login page
const ReturnParam = "redirect"

// PublicRoutes are reachable without a token
var PublicRoutes = []string{
	RouteLogin,
	RouteRegister,
	RouteForgotPassword,
	RouteResetPassword,
	RouteTestConnection,
}

// IsPublic reports whether path is in the public allow-list
func IsPublic(path string) bool {
	for _, p := range PublicRoutes {
		if path == p {
			return true
		}
	}
	return false
}
