package navigation

import (
	"strings"

	"github.com/jrsteele09/fee-portal/users"
)

// DashboardFor maps a role to its dashboard. The bool is false for an unrecognised role.
func DashboardFor(role users.Role) (string, bool) {
	switch role {
	case users.RoleAdmin, users.RoleAccountant:
		return RouteAdminDashboard, true
	case users.RoleStudent:
		return RouteStudentDashboard, true
	case users.RoleParent:
		return RouteParentDashboard, true
	}
	return "", false
}

// AfterLogin picks the post-login destination. A captured return path wins over
// the role mapping; an unknown or missing role falls back to the admin dashboard.
func AfterLogin(user *users.User, returnPath string) string {
	if p, ok := SafeReturnPath(returnPath); ok {
		return p
	}
	if user != nil {
		if dest, ok := DashboardFor(user.Role); ok {
			return dest
		}
	}
	return RouteAdminDashboard
}

// Landing picks the destination for the application root.
func Landing(user *users.User) string {
	if user != nil {
		if dest, ok := DashboardFor(user.Role); ok {
			return dest
		}
	}
	return RouteLogin
}

// SafeReturnPath accepts only local absolute paths so the return parameter
// cannot be used as an open redirect. The login page itself is never a target.
func SafeReturnPath(p string) (string, bool) {
	if p == "" || p[0] != '/' {
		return "", false
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "", false
	}
	if strings.ContainsAny(p, "\r\n") {
		return "", false
	}
	if p == RouteLogin || strings.HasPrefix(p, RouteLogin+"?") {
		return "", false
	}
	return p, true
}
