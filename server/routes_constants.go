package server

import "github.com/jrsteele09/fee-portal/navigation"

// Route path constants
// Page routes live in the navigation package; these are the portal's own endpoints
const (
	// Auth Routes - Login & Logout
	RouteLogin      = navigation.RouteLogin
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// API Routes
	RouteAPISession        = "/api/session"
	RouteAPISessionRefresh = "/api/session/refresh"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"

	// browserCookieName identifies the browser whose session a request belongs to
	browserCookieName = "portal_sid"

	// toastsKey holds notifications waiting for the next rendered page
	toastsKey = "toasts"
)
