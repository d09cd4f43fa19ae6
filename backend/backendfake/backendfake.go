// Package backendfake is a scripted backend.Client for tests.
package backendfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/fee-portal/backend"
	"github.com/jrsteele09/fee-portal/users"
)

// FakeBackend returns whatever results and errors it was given. Calls are
// counted and their last arguments kept.
type FakeBackend struct {
	mu sync.Mutex

	LoginResult   *backend.LoginResult
	LoginErr      error
	LogoutErr     error
	RefreshResult *backend.TokenPair
	RefreshErr    error
	ProfileResult *users.User
	ProfileErr    error
	UpdateResult  *users.User
	UpdateErr     error
	PingErr       error

	// BeforeRefresh runs inside Refresh before it returns
	BeforeRefresh func()

	LoginCalls   int
	LogoutCalls  int
	RefreshCalls int
	ProfileCalls int
	UpdateCalls  int
	PingCalls    int

	LastCredentials  backend.Credentials
	LastRefreshToken string
	LastUpdate       users.ProfileUpdate
}

var _ backend.Client = (*FakeBackend)(nil)

func New() *FakeBackend {
	return &FakeBackend{}
}

func (f *FakeBackend) Login(_ context.Context, creds backend.Credentials) (*backend.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoginCalls++
	f.LastCredentials = creds
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	if f.LoginResult == nil {
		return nil, nil
	}
	res := *f.LoginResult
	return &res, nil
}

func (f *FakeBackend) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LogoutCalls++
	return f.LogoutErr
}

func (f *FakeBackend) Refresh(_ context.Context, refreshToken string) (*backend.TokenPair, error) {
	f.mu.Lock()
	f.RefreshCalls++
	f.LastRefreshToken = refreshToken
	hook := f.BeforeRefresh
	res, err := f.RefreshResult, f.RefreshErr
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	pair := *res
	return &pair, nil
}

func (f *FakeBackend) Profile(context.Context) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProfileCalls++
	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}
	return f.ProfileResult.Clone(), nil
}

func (f *FakeBackend) UpdateProfile(_ context.Context, update users.ProfileUpdate) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	f.LastUpdate = update
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	return f.UpdateResult.Clone(), nil
}

func (f *FakeBackend) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PingCalls++
	return f.PingErr
}

// Refreshes returns the refresh call count under the lock
func (f *FakeBackend) Refreshes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RefreshCalls
}
