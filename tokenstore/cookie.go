package tokenstore

import (
	"net/http"
	"sync"
	"time"
)

// CookieName is the cookie mirroring the access token for the route guard.
const CookieName = "authToken"

// DefaultCookieMaxAge is the lifetime of the mirrored cookie
const DefaultCookieMaxAge = 7 * 24 * time.Hour

// CookieMirror keeps a copy of the access token where the route guard can see
// it without loading the session. It is deliberately separate from the
// TokenStore and may briefly disagree with it.
type CookieMirror interface {
	SetToken(token string)
	ClearToken()
	Token() string
}

// HTTPCookieMirror writes the mirror as a Set-Cookie header on a response.
type HTTPCookieMirror struct {
	w      http.ResponseWriter
	secure bool
	maxAge time.Duration
	token  string
}

// NewHTTPCookieMirror starts from the cookie the request carried
func NewHTTPCookieMirror(w http.ResponseWriter, r *http.Request, maxAge time.Duration) *HTTPCookieMirror {
	if maxAge <= 0 {
		maxAge = DefaultCookieMaxAge
	}
	m := &HTTPCookieMirror{
		w:      w,
		secure: isSecure(r),
		maxAge: maxAge,
	}
	if c, err := r.Cookie(CookieName); err == nil {
		m.token = c.Value
	}
	return m
}

func (m *HTTPCookieMirror) SetToken(token string) {
	m.token = token
	http.SetCookie(m.w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.maxAge.Seconds()),
	})
}

func (m *HTTPCookieMirror) ClearToken() {
	m.token = ""
	http.SetCookie(m.w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (m *HTTPCookieMirror) Token() string {
	return m.token
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}

// MemoryCookieMirror is a CookieMirror with no browser behind it, used for
// background refreshes and tests.
type MemoryCookieMirror struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryCookieMirror) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *MemoryCookieMirror) ClearToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
}

func (m *MemoryCookieMirror) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}
