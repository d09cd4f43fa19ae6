// Package session owns the authentication state of one browser: who is
// logged in, the token pair, and the transitions between anonymous and
// authenticated.
package session

import (
	"context"
	"sync"

	"github.com/jrsteele09/fee-portal/backend"
	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/notify"
	"github.com/jrsteele09/fee-portal/tokenstore"
	"github.com/jrsteele09/fee-portal/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// User facing notification messages
const (
	MsgLoginSuccess   = "Login successful"
	MsgLogoutSuccess  = "Logged out successfully"
	MsgProfileUpdated = "Profile updated successfully"
)

type Deps struct {
	API       backend.Client
	Store     *tokenstore.TokenStore
	Cookie    tokenstore.CookieMirror
	Notifier  notify.Notifier
	Navigator Navigator
	// Flight is shared by every manager of the process so that concurrent
	// refreshes of one namespace hit the backend once.
	Flight *singleflight.Group
}

// Manager runs the session operations of one browser namespace. State
// changes are written back to the store as they happen.
type Manager struct {
	api      backend.Client
	store    *tokenstore.TokenStore
	cookie   tokenstore.CookieMirror
	notifier notify.Notifier
	nav      Navigator
	flight   *singleflight.Group

	mu    sync.Mutex
	state State
}

func NewManager(d Deps) *Manager {
	m := &Manager{
		api:      d.API,
		store:    d.Store,
		cookie:   d.Cookie,
		notifier: d.Notifier,
		nav:      d.Navigator,
		flight:   d.Flight,
	}
	if m.cookie == nil {
		m.cookie = &tokenstore.MemoryCookieMirror{}
	}
	if m.notifier == nil {
		m.notifier = notify.Logger{Namespace: d.Store.Namespace()}
	}
	if m.nav == nil {
		m.nav = LogNavigator{Namespace: d.Store.Namespace()}
	}
	if m.flight == nil {
		m.flight = &singleflight.Group{}
	}
	return m
}

func (m *Manager) Namespace() string {
	return m.store.Namespace()
}

// State returns a copy of the current state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Restore loads the persisted subset. A missing or unreadable blob leaves
// the anonymous default.
func (m *Manager) Restore(ctx context.Context) error {
	data, err := m.store.Get(ctx, PersistKey)
	if errors.Is(err, errors.ErrNotFound) {
		m.replace(State{})
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "session: restore %s", m.Namespace())
	}

	s, err := Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("namespace", m.Namespace()).Msg("discarding persisted session")
		s = State{}
	}
	m.replace(s)
	return nil
}

// Persist writes the persisted subset of the current state
func (m *Manager) Persist(ctx context.Context) error {
	data, err := Encode(m.State())
	if err != nil {
		return err
	}
	return m.store.Set(ctx, PersistKey, data)
}

// Login authenticates with the backend and stores the issued token pair
func (m *Manager) Login(ctx context.Context, creds backend.Credentials) (*users.User, error) {
	m.update(ctx, func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})

	user, err := m.login(ctx, creds)
	if err != nil {
		m.update(ctx, func(s *State) {
			*s = State{Error: errors.Message(err)}
		})
		m.notifier.Failure(err)
		return nil, err
	}

	m.cookie.SetToken(user.Token)
	m.update(ctx, func(s *State) {
		*s = State{User: user, IsAuthenticated: true}
	})
	m.notifier.Success(MsgLoginSuccess)
	log.Info().Str("namespace", m.Namespace()).Str("user", user.ID).Str("role", string(user.Role)).Msg("login")
	return user.Clone(), nil
}

func (m *Manager) login(ctx context.Context, creds backend.Credentials) (*users.User, error) {
	res, err := m.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Token == "" {
		return nil, &errors.APIError{Message: "Login failed", Cause: errors.ErrInvalidEnvelope}
	}

	user := res.User.WithTokens(res.Token, res.RefreshToken)
	if err := m.store.SaveTokens(ctx, res.Token, res.RefreshToken); err != nil {
		return nil, err
	}
	if err := m.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout always ends the local session. The backend call is best effort.
func (m *Manager) Logout(ctx context.Context) {
	m.update(ctx, func(s *State) {
		s.IsLoading = true
	})

	if err := m.api.Logout(ctx); err != nil {
		log.Warn().Err(err).Str("namespace", m.Namespace()).Msg("backend logout failed, clearing local session anyway")
	}
	if err := m.store.Clear(ctx); err != nil {
		log.Err(err).Str("namespace", m.Namespace()).Msg("clearing token store")
	}
	m.cookie.ClearToken()
	m.update(ctx, func(s *State) {
		*s = State{}
	})
	m.notifier.Success(MsgLogoutSuccess)
}

// RefreshToken exchanges the stored refresh token for a new pair. Failures
// are not returned: the session is reset and the browser sent to login.
func (m *Manager) RefreshToken(ctx context.Context) {
	v, err, shared := m.flight.Do(m.Namespace(), func() (interface{}, error) {
		return m.refresh(ctx)
	})

	switch {
	case errors.Is(err, errors.ErrNoRefreshToken):
		m.cookie.ClearToken()
		m.update(ctx, func(s *State) {
			*s = State{}
		})
	case err != nil:
		log.Warn().Err(err).Str("namespace", m.Namespace()).Bool("shared", shared).Msg("token refresh failed")
		m.cookie.ClearToken()
		m.update(ctx, func(s *State) {
			*s = State{Error: errors.SessionExpiredMessage}
		})
		m.nav.ToLogin()
	default:
		pair := v.(*backend.TokenPair)
		m.cookie.SetToken(pair.Token)
		m.update(ctx, func(s *State) {
			s.IsLoading = false
			if s.User != nil {
				s.User = s.User.WithTokens(pair.Token, pair.RefreshToken)
			}
		})
		log.Debug().Str("namespace", m.Namespace()).Bool("shared", shared).Msg("token refreshed")
	}
}

// refresh runs once per namespace at a time; its result is shared
func (m *Manager) refresh(ctx context.Context) (*backend.TokenPair, error) {
	refreshToken, err := m.store.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, errors.ErrNoRefreshToken
	}

	pair, err := m.api.Refresh(ctx, refreshToken)
	if err == nil && (pair == nil || pair.Token == "") {
		err = errors.ErrInvalidEnvelope
	}
	if err != nil {
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			log.Err(clearErr).Str("namespace", m.Namespace()).Msg("clearing token store")
		}
		return nil, errors.Wrapf(errors.ErrSessionExpired, "refresh: %v", err)
	}

	if err := m.store.SaveTokens(ctx, pair.Token, pair.RefreshToken); err != nil {
		return nil, err
	}
	if user, err := m.store.User(ctx); err == nil && user != nil {
		if err := m.store.SaveUser(ctx, user.WithTokens(pair.Token, pair.RefreshToken)); err != nil {
			log.Err(err).Str("namespace", m.Namespace()).Msg("saving refreshed user")
		}
	}
	return pair, nil
}

// UpdateProfile sends a partial update. On success the returned user
// replaces the session user.
func (m *Manager) UpdateProfile(ctx context.Context, update users.ProfileUpdate) (*users.User, error) {
	m.update(ctx, func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})

	user, err := m.api.UpdateProfile(ctx, update)
	if err == nil && user == nil {
		err = &errors.APIError{Message: "Update failed", Cause: errors.ErrInvalidEnvelope}
	}
	if err != nil {
		m.update(ctx, func(s *State) {
			s.IsLoading = false
			s.Error = errors.Message(err)
		})
		m.notifier.Failure(err)
		return nil, err
	}

	if err := m.store.SaveUser(ctx, user); err != nil {
		log.Err(err).Str("namespace", m.Namespace()).Msg("saving updated user")
	}
	m.update(ctx, func(s *State) {
		s.User = user
		s.IsLoading = false
	})
	m.notifier.Success(MsgProfileUpdated)
	return user.Clone(), nil
}

// CheckAuth validates the stored access token against the backend and
// falls back to a refresh when the backend rejects it.
func (m *Manager) CheckAuth(ctx context.Context) {
	access, err := m.store.AccessToken(ctx)
	if err != nil {
		log.Err(err).Str("namespace", m.Namespace()).Msg("reading access token")
	}
	if access == "" {
		m.update(ctx, func(s *State) {
			s.User = nil
			s.IsAuthenticated = false
			s.IsLoading = false
		})
		return
	}

	m.update(ctx, func(s *State) {
		s.IsLoading = true
	})

	profile, err := m.api.Profile(ctx)
	if err != nil || profile == nil {
		log.Debug().Err(err).Str("namespace", m.Namespace()).Msg("profile check failed, trying refresh")
		m.RefreshToken(ctx)
		return
	}

	refreshToken, _ := m.store.RefreshToken(ctx)
	user := profile.WithTokens(access, refreshToken)
	if err := m.store.SaveUser(ctx, user); err != nil {
		log.Err(err).Str("namespace", m.Namespace()).Msg("saving checked user")
	}
	m.update(ctx, func(s *State) {
		*s = State{User: user, IsAuthenticated: true}
	})
}

func (m *Manager) ClearError(ctx context.Context) {
	m.update(ctx, func(s *State) {
		s.Error = ""
	})
}

// Reset drops the in-memory session back to anonymous. Stored tokens are kept.
func (m *Manager) Reset(ctx context.Context) {
	m.update(ctx, func(s *State) {
		*s = State{}
	})
}

func (m *Manager) replace(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// update mutates the state under the lock and persists the result
func (m *Manager) update(ctx context.Context, fn func(*State)) {
	m.mu.Lock()
	fn(&m.state)
	m.mu.Unlock()

	if err := m.Persist(ctx); err != nil {
		log.Err(err).Str("namespace", m.Namespace()).Msg("persisting session")
	}
}
