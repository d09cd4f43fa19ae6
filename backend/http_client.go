package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/users"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const maxResponseBytes = 1 << 20

// HTTPClient implements Client over HTTP. Login, refresh and health checks go
// out anonymously; everything else carries the bearer token of the source.
type HTTPClient struct {
	baseURL string
	anon    *http.Client
	authed  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// Factory builds a Client bound to one browser's tokens
type Factory func(src oauth2.TokenSource) Client

// NewFactory shares one transport between all clients it builds
func NewFactory(baseURL string, timeout time.Duration, base http.RoundTripper) Factory {
	if base == nil {
		base = http.DefaultTransport
	}
	return func(src oauth2.TokenSource) Client {
		return NewHTTPClient(baseURL, timeout, base, src)
	}
}

func NewHTTPClient(baseURL string, timeout time.Duration, base http.RoundTripper, src oauth2.TokenSource) *HTTPClient {
	if base == nil {
		base = http.DefaultTransport
	}
	return &HTTPClient{
		baseURL: baseURL,
		anon:    &http.Client{Timeout: timeout, Transport: base},
		authed: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: src, Base: base},
		},
	}
}

func (c *HTTPClient) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	return do[LoginResult](ctx, c.anon, http.MethodPost, c.baseURL+PathLogin, creds)
}

// Logout tells the backend to revoke the session; callers treat failures as best effort
func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := doOptional[struct{}](ctx, c.authed, http.MethodPost, c.baseURL+PathLogout, nil)
	return err
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body := map[string]string{"refreshToken": refreshToken}
	return do[TokenPair](ctx, c.anon, http.MethodPost, c.baseURL+PathRefresh, body)
}

func (c *HTTPClient) Profile(ctx context.Context) (*users.User, error) {
	return do[users.User](ctx, c.authed, http.MethodGet, c.baseURL+PathProfile, nil)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, update users.ProfileUpdate) (*users.User, error) {
	return do[users.User](ctx, c.authed, http.MethodPut, c.baseURL+PathProfile, update)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := doOptional[json.RawMessage](ctx, c.anon, http.MethodGet, c.baseURL+PathHealth, nil)
	return err
}

// do performs the call and requires a data payload
func do[T any](ctx context.Context, client *http.Client, method, url string, body any) (*T, error) {
	data, err := doOptional[T](ctx, client, method, url, body)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &errors.APIError{
			Message:    "Empty response from server",
			StatusCode: http.StatusOK,
			Cause:      errors.ErrInvalidEnvelope,
		}
	}
	return data, nil
}

// doOptional performs the call; a successful envelope without data yields nil
func doOptional[T any](ctx context.Context, client *http.Client, method, url string, body any) (*T, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "backend: encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "backend: build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if errors.Is(err, errors.ErrNoAccessToken) {
		apiErr := errors.NewAPIError(http.StatusUnauthorized, "")
		apiErr.Cause = err
		return nil, apiErr
	}
	if err != nil {
		return nil, &errors.APIError{
			Message: "Unable to reach the server. Please check your connection.",
			Code:    "NETWORK_ERROR",
			Cause:   pkgerrors.Wrapf(errors.ErrBackendUnavailable, "backend: %s %s: %v", method, url, err),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &errors.APIError{
			Message:    "Failed to read server response",
			StatusCode: resp.StatusCode,
			Cause:      pkgerrors.Wrap(err, "backend: read body"),
		}
	}

	var env Envelope[T]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errors.NewAPIError(resp.StatusCode, "")
		if decodeErr == nil {
			if env.Message != "" {
				apiErr.Message = env.Message
			}
			apiErr.Code = env.Code
			apiErr.Details = env.Details
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, &errors.APIError{
			Message:    "Invalid response from server",
			StatusCode: resp.StatusCode,
			Cause:      pkgerrors.Wrapf(errors.ErrInvalidEnvelope, "backend: %v", decodeErr),
		}
	}
	if !env.Success {
		apiErr := errors.NewAPIError(resp.StatusCode, env.Message)
		if env.Message == "" {
			apiErr.Message = "Request failed"
		}
		apiErr.Code = env.Code
		apiErr.Details = env.Details
		return nil, apiErr
	}
	return env.Data, nil
}
