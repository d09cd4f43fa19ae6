package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/notify"
	"github.com/jrsteele09/fee-portal/refresh"
	"github.com/jrsteele09/fee-portal/session"
	"github.com/jrsteele09/fee-portal/tokenstore"
	"github.com/rs/zerolog/log"
)

// requestNavigator records that the session asked for the login page
type requestNavigator struct {
	toLogin atomic.Bool
}

func (n *requestNavigator) ToLogin() {
	n.toLogin.Store(true)
}

func (n *requestNavigator) Redirected() bool {
	return n.toLogin.Load()
}

// portalSession is everything one request needs to run session operations
type portalSession struct {
	namespace string
	store     *tokenstore.TokenStore
	cookie    *tokenstore.HTTPCookieMirror
	toasts    *notify.Recorder
	nav       *requestNavigator
	manager   *session.Manager
}

func (s *Server) tokenStore(namespace string) (*tokenstore.TokenStore, error) {
	var opts []tokenstore.Option
	if s.sealer != nil {
		opts = append(opts, tokenstore.WithSealer(s.sealer))
	}
	return tokenstore.New(s.storage, namespace, opts...)
}

func (s *Server) newManager(ctx context.Context, store *tokenstore.TokenStore, cookie tokenstore.CookieMirror, n notify.Notifier, nav session.Navigator) *session.Manager {
	return session.NewManager(session.Deps{
		API:       s.backend(tokenstore.TokenSource(ctx, store)),
		Store:     store,
		Cookie:    cookie,
		Notifier:  n,
		Navigator: nav,
		Flight:    s.refreshes,
	})
}

// openSession builds and restores the session of the requesting browser
func (s *Server) openSession(w http.ResponseWriter, r *http.Request) (*portalSession, error) {
	ns := s.browserID(w, r)
	store, err := s.tokenStore(ns)
	if err != nil {
		return nil, err
	}

	ps := &portalSession{
		namespace: ns,
		store:     store,
		cookie:    tokenstore.NewHTTPCookieMirror(w, r, s.config.GetCookieMaxAge()),
		toasts:    &notify.Recorder{},
		nav:       &requestNavigator{},
	}
	ps.manager = s.newManager(r.Context(), store, ps.cookie, notify.Multi{ps.toasts, notify.Logger{Namespace: ns}}, ps.nav)

	if err := ps.manager.Restore(r.Context()); err != nil {
		return nil, err
	}
	return ps, nil
}

// initializeAuth starts the refresh cycle of a namespace that has none
// pending. Refreshes due right now run on the request's own manager.
func (s *Server) initializeAuth(ctx context.Context, ps *portalSession) {
	if _, pending := s.scheduler.Pending(ps.namespace); pending {
		return
	}
	token, err := ps.store.AccessToken(ctx)
	if err != nil {
		log.Err(err).Str("namespace", ps.namespace).Msg("reading access token")
		return
	}

	var inRequest atomic.Bool
	inRequest.Store(true)
	defer inRequest.Store(false)

	outcome := s.scheduler.InitializeAuth(ps.namespace, token, refresh.Hooks{
		CheckAuth: func() {
			ps.manager.CheckAuth(ctx)
		},
		Refresh: func() {
			if inRequest.Load() {
				ps.manager.RefreshToken(ctx)
				return
			}
			s.backgroundRefresh(ps.namespace)
		},
	})
	if outcome == refresh.Recovered || outcome == refresh.RefreshedNow {
		s.scheduleNext(ctx, ps.store)
	}
	log.Debug().Str("namespace", ps.namespace).Str("outcome", outcome.String()).Msg("auth initialised")
}

// scheduleNext arms the timer for the stored access token when it is not already due
func (s *Server) scheduleNext(ctx context.Context, store *tokenstore.TokenStore) {
	token, err := store.AccessToken(ctx)
	if err != nil || token == "" {
		return
	}
	if s.scheduler.Delay(token) <= 0 {
		return
	}
	ns := store.Namespace()
	s.scheduler.Schedule(ns, token, func() {
		s.backgroundRefresh(ns)
	})
}

// backgroundRefresh runs when a refresh timer fires with no request in flight.
// The authToken cookie is realigned on the browser's next request.
func (s *Server) backgroundRefresh(namespace string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.GetAPITimeout())
	defer cancel()

	store, err := s.tokenStore(namespace)
	if err != nil {
		log.Err(err).Str("namespace", namespace).Msg("background refresh")
		return
	}
	m := s.newManager(ctx, store, &tokenstore.MemoryCookieMirror{}, notify.Logger{Namespace: namespace}, session.LogNavigator{Namespace: namespace})
	if err := m.Restore(ctx); err != nil {
		log.Err(err).Str("namespace", namespace).Msg("background refresh")
		return
	}
	m.RefreshToken(ctx)
	s.scheduleNext(ctx, store)
}

// realignCookie makes the authToken cookie match the stored access token
func (ps *portalSession) realignCookie(ctx context.Context) {
	token, err := ps.store.AccessToken(ctx)
	if err != nil {
		return
	}
	switch {
	case token == "" && ps.cookie.Token() != "":
		ps.cookie.ClearToken()
	case token != "" && token != ps.cookie.Token():
		ps.cookie.SetToken(token)
	}
}

// keepToasts stores this request's notifications for the next rendered page
func (ps *portalSession) keepToasts(ctx context.Context) {
	fresh := ps.toasts.Drain()
	if len(fresh) == 0 {
		return
	}
	all := append(ps.pendingToasts(ctx), fresh...)
	data, err := json.Marshal(all)
	if err != nil {
		log.Err(err).Str("namespace", ps.namespace).Msg("encoding toasts")
		return
	}
	if err := ps.store.Set(ctx, toastsKey, data); err != nil {
		log.Err(err).Str("namespace", ps.namespace).Msg("saving toasts")
	}
}

// takeToasts returns stored and fresh notifications and forgets them
func (ps *portalSession) takeToasts(ctx context.Context) []notify.Toast {
	all := append(ps.pendingToasts(ctx), ps.toasts.Drain()...)
	if err := ps.store.Delete(ctx, toastsKey); err != nil {
		log.Err(err).Str("namespace", ps.namespace).Msg("deleting toasts")
	}
	return all
}

func (ps *portalSession) pendingToasts(ctx context.Context) []notify.Toast {
	data, err := ps.store.Get(ctx, toastsKey)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Err(err).Str("namespace", ps.namespace).Msg("loading toasts")
		return nil
	}
	var toasts []notify.Toast
	if err := json.Unmarshal(data, &toasts); err != nil {
		log.Warn().Err(err).Str("namespace", ps.namespace).Msg("discarding unreadable toasts")
		return nil
	}
	return toasts
}
