// Package backend talks to the school fee REST API. Every response is an
// envelope {success, data, message}; anything else is turned into an
// *errors.APIError.
package backend

import (
	"context"

	"github.com/jrsteele09/fee-portal/users"
)

// Endpoint paths relative to the API base URL
const (
	PathLogin   = "/auth/login"
	PathLogout  = "/auth/logout"
	PathRefresh = "/auth/refresh"
	PathProfile = "/auth/profile"
	PathHealth  = "/health"
)

// Envelope is the uniform wrapper of every backend response
type Envelope[T any] struct {
	Success bool           `json:"success"`
	Data    *T             `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the data of a successful login
type LoginResult struct {
	User         users.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
}

// TokenPair is the data of a successful refresh
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Client is the subset of the backend API the session layer consumes
type Client interface {
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Profile(ctx context.Context) (*users.User, error)
	UpdateProfile(ctx context.Context, update users.ProfileUpdate) (*users.User, error)
	Ping(ctx context.Context) error
}
