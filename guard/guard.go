// Package guard decides, per navigation request, whether to let it through or
// redirect it. It only sees the request path and the mirrored authToken cookie:
// it never loads the session, so it cannot check a token's signature or expiry,
// only its presence.
package guard

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/jrsteele09/fee-portal/navigation"
	"github.com/rs/zerolog/log"
)

type Action int

const (
	Allow Action = iota
	RedirectToLogin
	RedirectToDashboard
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToDashboard:
		return "redirect-to-dashboard"
	}
	return "unknown"
}

// Decision is the outcome of Decide. Location is empty for Allow.
type Decision struct {
	Action   Action
	Location string
}

// Prefixes of static assets and internal API routes that bypass the guard
var passThroughPrefixes = []string{
	"/_next/",
	"/static/",
	"/css/",
	"/js/",
	"/images/",
	"/api/",
}

var passThroughFiles = []string{
	"/favicon.ico",
	"/robots.txt",
}

// Decide applies the navigation policy to a request path, its query and the
// cookie token.
func Decide(reqPath string, query url.Values, token string) Decision {
	// An authenticated visitor of the bare login page is bounced to the dashboard
	// before the allow-list is consulted.
	if token != "" && reqPath == navigation.RouteLogin && query.Get(navigation.ReturnParam) == "" {
		return Decision{Action: RedirectToDashboard, Location: navigation.DefaultDashboard}
	}

	if navigation.IsPublic(reqPath) || isPassThrough(reqPath) {
		return Decision{Action: Allow}
	}

	if token == "" {
		return Decision{Action: RedirectToLogin, Location: LoginLocation(reqPath)}
	}

	return Decision{Action: Allow}
}

// LoginLocation builds the login URL carrying the original path as the return parameter.
func LoginLocation(original string) string {
	if original == "" || original == navigation.RouteLogin {
		return navigation.RouteLogin
	}
	return navigation.RouteLogin + "?" + navigation.ReturnParam + "=" + url.QueryEscape(original)
}

func isPassThrough(p string) bool {
	for _, prefix := range passThroughPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	for _, f := range passThroughFiles {
		if p == f {
			return true
		}
	}
	// files such as /logo.png
	return path.Ext(path.Base(p)) != ""
}

// Middleware enforces Decide on every request it wraps, reading the token from
// the named cookie only.
func Middleware(cookieName string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(cookieName); err == nil {
				token = c.Value
			}

			d := Decide(r.URL.Path, r.URL.Query(), token)
			if d.Action == Allow {
				next(w, r)
				return
			}

			log.Debug().Str("path", r.URL.Path).Str("action", d.Action.String()).Str("location", d.Location).Msg("guard redirect")
			http.Redirect(w, r, d.Location, http.StatusSeeOther)
		}
	}
}
