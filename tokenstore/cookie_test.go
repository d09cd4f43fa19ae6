package tokenstore_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/fee-portal/tokenstore"
	"github.com/stretchr/testify/require"
)

func TestHTTPCookieMirror(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokenstore.CookieName, Value: "old"})
	rec := httptest.NewRecorder()

	m := tokenstore.NewHTTPCookieMirror(rec, req, 0)
	require.Equal(t, "old", m.Token())

	m.SetToken("T1")
	require.Equal(t, "T1", m.Token())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, tokenstore.CookieName, cookies[0].Name)
	require.Equal(t, "T1", cookies[0].Value)
	require.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookies[0].MaxAge)
	require.Equal(t, "/", cookies[0].Path)
	require.False(t, cookies[0].Secure)
}

func TestHTTPCookieMirror_Clear(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()

	m := tokenstore.NewHTTPCookieMirror(rec, req, time.Hour)
	m.ClearToken()

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].MaxAge < 0)
	require.True(t, cookies[0].Secure)
	require.Empty(t, m.Token())
}

func TestMemoryCookieMirror(t *testing.T) {
	var m tokenstore.MemoryCookieMirror
	m.SetToken("T1")
	require.Equal(t, "T1", m.Token())
	m.ClearToken()
	require.Empty(t, m.Token())
}
