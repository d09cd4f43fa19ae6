package server

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// browserID returns the id of the requesting browser, issuing a new one when
// the request carries none or a malformed one.
func (s *Server) browserID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(browserCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     browserCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.cookieLife,
	})
	return id
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects. extra is merged
// into the query string.
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string, extra url.Values) {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("error", errorMsg)
	redirectSuccess(w, r, path+"?"+q.Encode())
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// withQuery adds key=value to the query of a local location
func withQuery(location, key, value string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
