package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/fee-portal/backend"
	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/internal/utils"
	"github.com/jrsteele09/fee-portal/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func setupClient(t *testing.T, handler http.HandlerFunc, access string) backend.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: access, TokenType: "Bearer"})
	return backend.NewFactory(srv.URL, 5*time.Second, nil)(src)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLogin_Success(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, backend.PathLogin, r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))

		var creds backend.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "admin@school.com", creds.Email)
		require.Equal(t, "admin123", creds.Password)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"user":         map[string]any{"id": "1", "email": "admin@school.com", "role": "admin"},
				"token":        "T1",
				"refreshToken": "R1",
			},
		})
	}, "")

	res, err := client.Login(context.Background(), backend.Credentials{Email: "admin@school.com", Password: "admin123"})
	require.NoError(t, err)
	require.Equal(t, "T1", res.Token)
	require.Equal(t, "R1", res.RefreshToken)
	require.Equal(t, users.RoleAdmin, res.User.Role)
}

func TestLogin_Rejected(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Invalid credentials",
			"code":    "INVALID_CREDENTIALS",
		})
	}, "")

	_, err := client.Login(context.Background(), backend.Credentials{Email: "a@b.c", Password: "nope"})
	require.Error(t, err)

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Invalid credentials", apiErr.Message)
	require.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	require.True(t, errors.IsUnauthorized(err))
}

func TestUnsuccessfulEnvelopeWithOKStatus(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Update failed"})
	}, "T1")

	_, err := client.UpdateProfile(context.Background(), users.ProfileUpdate{FirstName: utils.Ptr("X")})
	require.Error(t, err)
	require.Equal(t, "Update failed", errors.Message(err))
}

func TestErrorStatusWithoutEnvelope(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}, "T1")

	_, err := client.Profile(context.Background())
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestProfile_SendsBearer(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "1", "firstName": "Ada", "role": "parent"},
		})
	}, "T1")

	u, err := client.Profile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Ada", u.FirstName)
	require.Equal(t, users.RoleParent, u.Role)
}

func TestUpdateProfile_SendsPartialBody(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]any{"phone": "0800"}, body)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "1", "phone": "0800"}})
	}, "T1")

	u, err := client.UpdateProfile(context.Background(), users.ProfileUpdate{Phone: utils.Ptr("0800")})
	require.NoError(t, err)
	require.Equal(t, "0800", u.Phone)
}

func TestRefresh(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, backend.PathRefresh, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "R1", body["refreshToken"])
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"token": "T2", "refreshToken": "R2"}})
	}, "")

	pair, err := client.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	require.Equal(t, "T2", pair.Token)
	require.Equal(t, "R2", pair.RefreshToken)
}

func TestMissingDataIsError(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, "")

	_, err := client.Refresh(context.Background(), "R1")
	require.ErrorIs(t, err, errors.ErrInvalidEnvelope)
}

func TestLogoutAndPingAcceptEmptyData(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ok"})
	}, "T1")

	require.NoError(t, client.Logout(context.Background()))
	require.NoError(t, client.Ping(context.Background()))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := backend.NewHTTPClient(url, time.Second, nil, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "T"}))
	err := client.Ping(context.Background())

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "NETWORK_ERROR", apiErr.Code)
	require.Equal(t, 0, apiErr.StatusCode)
	require.ErrorIs(t, err, errors.ErrBackendUnavailable)
}

func TestAuthorisedCallWithoutTokenIsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the backend")
	}))
	t.Cleanup(srv.Close)

	src := oauth2.TokenSource(emptySource{})
	client := backend.NewHTTPClient(srv.URL, time.Second, nil, src)

	_, err := client.Profile(context.Background())
	require.True(t, errors.IsUnauthorized(err))
	require.ErrorIs(t, err, errors.ErrNoAccessToken)
}

type emptySource struct{}

func (emptySource) Token() (*oauth2.Token, error) {
	return nil, errors.ErrNoAccessToken
}
