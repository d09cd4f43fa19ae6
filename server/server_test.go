package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/fee-portal/backend"
	"github.com/jrsteele09/fee-portal/backend/backendfake"
	"github.com/jrsteele09/fee-portal/internal/config"
	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/internal/testutil"
	"github.com/jrsteele09/fee-portal/refresh"
	"github.com/jrsteele09/fee-portal/server"
	"github.com/jrsteele09/fee-portal/session"
	"github.com/jrsteele09/fee-portal/tokenstore"
	"github.com/jrsteele09/fee-portal/users"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

type testFixture struct {
	api       *backendfake.FakeBackend
	storage   *tokenstore.InMemoryStorage
	scheduler *refresh.Scheduler
	ts        *httptest.Server
	client    *http.Client
	jar       *cookiejar.Jar
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	v := viper.New()
	v.Set("ENV", "TEST")
	cfg := config.NewFromViper(v)

	f := &testFixture{
		api:     backendfake.New(),
		storage: tokenstore.NewInMemoryStorage(),
		// timers never fire on their own in tests
		scheduler: refresh.NewScheduler(5*time.Minute, refresh.WithAfterFunc(func(time.Duration, func()) refresh.Timer {
			return idleTimer{}
		})),
	}

	srv, err := server.New(cfg, server.Deps{
		Storage:   f.storage,
		Backend:   func(oauth2.TokenSource) backend.Client { return f.api },
		Scheduler: f.scheduler,
	})
	require.NoError(t, err)

	f.ts = httptest.NewServer(srv)
	t.Cleanup(f.ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.jar = jar
	f.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

func (f *testFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := f.client.Get(f.ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *testFixture) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := f.client.PostForm(f.ts.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *testFixture) cookie(name string) string {
	u, _ := url.Parse(f.ts.URL)
	for _, c := range f.jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func (f *testFixture) loginAs(t *testing.T, role users.Role, exp time.Time) *http.Response {
	t.Helper()
	f.api.LoginResult = &backend.LoginResult{
		User:         users.User{ID: "1", FirstName: "Ada", LastName: "Obi", Email: "user@school.com", Role: role},
		Token:        testutil.AccessToken(t, "1", exp),
		RefreshToken: "R1",
	}
	return f.post(t, server.RouteAuthLogin, url.Values{"email": {"user@school.com"}, "password": {"secret123"}})
}

func location(resp *http.Response) string {
	return resp.Header.Get("Location")
}

func TestGuard_AnonymousDashboardRedirectsToLogin(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.get(t, "/admin/dashboard")

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?redirect=%2Fadmin%2Fdashboard", location(resp))
}

func TestLoginPage_Renders(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.get(t, "/login?redirect=%2Fprofile&error=Oops")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	require.Contains(t, page, `name="redirect" value="/profile"`)
	require.Contains(t, page, "Oops")
	require.NotEmpty(t, f.cookie("portal_sid"))
}

func TestLogin_AdminLandsOnAdminDashboard(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.loginAs(t, users.RoleAdmin, time.Now().Add(time.Hour))

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin/dashboard", location(resp))
	require.Equal(t, f.api.LoginResult.Token, f.cookie(tokenstore.CookieName))
	require.Equal(t, "user@school.com", f.api.LastCredentials.Email)

	ns := f.cookie("portal_sid")
	_, pending := f.scheduler.Pending(ns)
	require.True(t, pending)

	dash := f.get(t, "/admin/dashboard")
	require.Equal(t, http.StatusOK, dash.StatusCode)
	page := body(t, dash)
	require.Contains(t, page, "Ada Obi")
	require.Contains(t, page, session.MsgLoginSuccess)

	// the toast is shown once
	again := body(t, f.get(t, "/admin/dashboard"))
	require.NotContains(t, again, session.MsgLoginSuccess)
}

func TestLogin_HonoursReturnPath(t *testing.T) {
	f := setupTestFixture(t)
	f.api.LoginResult = &backend.LoginResult{
		User:  users.User{ID: "2", Role: users.RoleParent},
		Token: testutil.AccessToken(t, "2", time.Now().Add(time.Hour)),
	}

	resp := f.post(t, server.RouteAuthLogin, url.Values{
		"email":    {"p@school.com"},
		"password": {"secret123"},
		"redirect": {"/profile"},
	})
	require.Equal(t, "/profile", location(resp))

	resp = f.post(t, server.RouteAuthLogin, url.Values{
		"email":    {"p@school.com"},
		"password": {"secret123"},
		"redirect": {"//evil.example"},
	})
	require.Equal(t, "/parent/dashboard", location(resp))
}

func TestDashboard_WrongRoleIsRedirected(t *testing.T) {
	f := setupTestFixture(t)
	f.loginAs(t, users.RoleStudent, time.Now().Add(time.Hour))

	resp := f.get(t, "/admin/dashboard")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/student/dashboard", location(resp))

	require.Equal(t, http.StatusOK, f.get(t, "/student/dashboard").StatusCode)
}

func TestIndex_LandsOnRoleDashboard(t *testing.T) {
	f := setupTestFixture(t)
	f.loginAs(t, users.RoleAccountant, time.Now().Add(time.Hour))

	resp := f.get(t, "/")
	require.Equal(t, "/admin/dashboard", location(resp))
}

func TestLogin_InvalidFormSkipsBackend(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.post(t, server.RouteAuthLogin, url.Values{"email": {"not-an-email"}, "password": {""}})

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc, err := url.Parse(location(resp))
	require.NoError(t, err)
	require.Equal(t, "/login", loc.Path)
	require.Contains(t, loc.Query().Get("error"), "password")
	require.Equal(t, "not-an-email", loc.Query().Get("email"))
	require.Equal(t, 0, f.api.LoginCalls)
}

func TestLogin_BackendFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.api.LoginErr = errors.NewAPIError(http.StatusUnauthorized, "Invalid credentials")

	resp := f.post(t, server.RouteAuthLogin, url.Values{"email": {"a@school.com"}, "password": {"wrong123"}})

	loc, err := url.Parse(location(resp))
	require.NoError(t, err)
	require.Equal(t, "/login", loc.Path)
	require.Equal(t, "Invalid credentials", loc.Query().Get("error"))
	require.Empty(t, f.cookie(tokenstore.CookieName))
}

func TestGuard_AuthenticatedLoginPageBounces(t *testing.T) {
	f := setupTestFixture(t)
	f.loginAs(t, users.RoleAdmin, time.Now().Add(time.Hour))

	resp := f.get(t, "/login")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin/dashboard", location(resp))

	resp = f.get(t, "/login?redirect=%2Fprofile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.loginAs(t, users.RoleAdmin, time.Now().Add(time.Hour))
	f.api.LogoutErr = errors.NewAPIError(http.StatusInternalServerError, "down")
	ns := f.cookie("portal_sid")

	resp := f.post(t, server.RouteAuthLogout, nil)

	require.Equal(t, "/login", location(resp))
	require.Equal(t, 1, f.api.LogoutCalls)
	require.Empty(t, f.cookie(tokenstore.CookieName))
	_, pending := f.scheduler.Pending(ns)
	require.False(t, pending)

	require.Equal(t, "/login?redirect=%2Fadmin%2Fdashboard", location(f.get(t, "/admin/dashboard")))
}

func TestStaleCookieIsCleared(t *testing.T) {
	f := setupTestFixture(t)
	u, _ := url.Parse(f.ts.URL)
	f.jar.SetCookies(u, []*http.Cookie{{Name: tokenstore.CookieName, Value: "stale", Path: "/"}})

	resp := f.get(t, "/admin/dashboard")

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?redirect=%2Fadmin%2Fdashboard", location(resp))
	require.Empty(t, f.cookie(tokenstore.CookieName))
}

func TestExpiredTokenRecoveredOnNextPage(t *testing.T) {
	f := setupTestFixture(t)
	f.loginAs(t, users.RoleAdmin, time.Now().Add(-time.Minute))
	ns := f.cookie("portal_sid")
	_, pending := f.scheduler.Pending(ns)
	require.False(t, pending)

	fresh := testutil.AccessToken(t, "1", time.Now().Add(time.Hour))
	f.api.ProfileErr = errors.NewAPIError(http.StatusUnauthorized, "expired")
	f.api.RefreshResult = &backend.TokenPair{Token: fresh, RefreshToken: "R2"}

	resp := f.get(t, "/admin/dashboard")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, f.api.Refreshes())
	require.Equal(t, "R1", f.api.LastRefreshToken)
	require.Equal(t, fresh, f.cookie(tokenstore.CookieName))
	_, pending = f.scheduler.Pending(ns)
	require.True(t, pending)
}

func TestSessionAPI(t *testing.T) {
	f := setupTestFixture(t)

	var anon server.SessionResponse
	resp := f.get(t, server.RouteAPISession)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&anon))
	require.Equal(t, session.StatusAnonymous, anon.Status)

	f.loginAs(t, users.RoleParent, time.Now().Add(time.Hour))

	var authed server.SessionResponse
	resp = f.get(t, server.RouteAPISession)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&authed))
	require.Equal(t, session.StatusAuthenticated, authed.Status)
	require.Equal(t, users.RoleParent, authed.User.Role)
	require.Empty(t, authed.User.Token)
	require.NotNil(t, authed.RefreshAt)
}

func TestSessionRefreshFailureExpiresSession(t *testing.T) {
	f := setupTestFixture(t)
	f.loginAs(t, users.RoleAdmin, time.Now().Add(time.Hour))
	f.api.RefreshErr = errors.NewAPIError(http.StatusUnauthorized, "revoked")

	resp := f.post(t, server.RouteAPISessionRefresh, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var got server.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.False(t, got.IsAuthenticated)
	require.Equal(t, errors.SessionExpiredMessage, got.Error)
	require.True(t, strings.HasPrefix(got.Redirect, "/login?error="))
	require.Empty(t, f.cookie(tokenstore.CookieName))
}

func TestSessionRefreshSuccess(t *testing.T) {
	f := setupTestFixture(t)
	f.loginAs(t, users.RoleAdmin, time.Now().Add(time.Hour))
	fresh := testutil.AccessToken(t, "1", time.Now().Add(2*time.Hour))
	f.api.RefreshResult = &backend.TokenPair{Token: fresh, RefreshToken: "R2"}

	resp := f.post(t, server.RouteAPISessionRefresh, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, fresh, f.cookie(tokenstore.CookieName))
}

func TestProfileUpdate(t *testing.T) {
	f := setupTestFixture(t)
	f.loginAs(t, users.RoleAdmin, time.Now().Add(time.Hour))
	f.api.UpdateResult = &users.User{ID: "1", FirstName: "Grace", Role: users.RoleAdmin}

	resp := f.post(t, "/profile", url.Values{"firstName": {"Grace"}})
	require.Equal(t, "/profile", location(resp))
	require.Equal(t, "Grace", *f.api.LastUpdate.FirstName)

	page := body(t, f.get(t, "/profile"))
	require.Contains(t, page, `value="Grace"`)
	require.Contains(t, page, session.MsgProfileUpdated)
}

func TestProfileUpdateFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.loginAs(t, users.RoleAdmin, time.Now().Add(time.Hour))
	f.api.UpdateErr = errors.NewAPIError(http.StatusBadRequest, "Update failed")

	resp := f.post(t, "/profile", url.Values{"phone": {"0800"}})

	loc, err := url.Parse(location(resp))
	require.NoError(t, err)
	require.Equal(t, "/profile", loc.Path)
	require.Equal(t, "Update failed", loc.Query().Get("error"))
}

func TestTestConnection(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.get(t, "/test-connection")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f.api.PingErr = &errors.APIError{Message: "Unable to reach the server", Code: "NETWORK_ERROR"}
	resp = f.get(t, "/test-connection")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestStaticAssets(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.get(t, "/css/portal.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	require.Contains(t, resp.Header.Get("Cache-Control"), "max-age=300")

	require.Equal(t, http.StatusNotFound, f.get(t, "/js/missing.js").StatusCode)
}
