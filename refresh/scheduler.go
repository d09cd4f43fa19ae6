package refresh

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// DefaultLead is how long before expiry a refresh fires
const DefaultLead = 5 * time.Minute

// Timer is the part of *time.Timer the scheduler uses
type Timer interface {
	Stop() bool
}

// AfterFunc starts a one-shot timer
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type pending struct {
	timer Timer
	at    time.Time
	gen   uint64
}

// Scheduler keeps at most one deferred refresh per namespace.
type Scheduler struct {
	lead      time.Duration
	afterFunc AfterFunc

	mu      sync.Mutex
	timers  map[string]pending
	gen     uint64
	stopped bool
}

type SchedulerOption func(*Scheduler)

// WithAfterFunc replaces time.AfterFunc, used by tests to fire timers by hand
func WithAfterFunc(fn AfterFunc) SchedulerOption {
	return func(s *Scheduler) {
		s.afterFunc = fn
	}
}

func NewScheduler(lead time.Duration, opts ...SchedulerOption) *Scheduler {
	if lead <= 0 {
		lead = DefaultLead
	}
	s := &Scheduler{
		lead:      lead,
		afterFunc: stdAfterFunc,
		timers:    make(map[string]pending),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arranges one call of fn at the token's expiry minus the lead time,
// replacing any refresh already pending for the namespace. If that moment has
// passed, or the token cannot be decoded, fn runs immediately on the calling
// goroutine and the returned delay is zero.
func (s *Scheduler) Schedule(namespace, token string, fn func()) time.Duration {
	delay := s.Delay(token)
	s.Cancel(namespace)

	if delay <= 0 {
		log.Debug().Str("namespace", namespace).Msg("refresh: token at or past refresh point, refreshing now")
		fn()
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}

	s.gen++
	gen := s.gen
	timer := s.afterFunc(delay, func() {
		s.mu.Lock()
		if p, ok := s.timers[namespace]; ok && p.gen == gen {
			delete(s.timers, namespace)
		}
		s.mu.Unlock()
		fn()
	})
	s.timers[namespace] = pending{timer: timer, at: NowTimeFunc().Add(delay), gen: gen}

	log.Debug().Str("namespace", namespace).Dur("in", delay).Msg("refresh: scheduled")
	return delay
}

// Cancel drops the pending refresh of the namespace, if any
func (s *Scheduler) Cancel(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.timers[namespace]; ok {
		p.timer.Stop()
		delete(s.timers, namespace)
	}
}

// Pending reports whether a refresh is scheduled, and when
func (s *Scheduler) Pending(namespace string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.timers[namespace]
	return p.at, ok
}

// Stop cancels every pending refresh; later Schedule calls only run immediate refreshes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ns, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, ns)
	}
	s.stopped = true
}

// Delay is how long Schedule would wait for token; zero or less means now
func (s *Scheduler) Delay(token string) time.Duration {
	exp, err := ExpiryOf(token)
	if err != nil {
		return 0
	}
	return exp.Add(-s.lead).Sub(NowTimeFunc())
}

// Outcome reports what InitializeAuth did
type Outcome int

const (
	NoToken Outcome = iota
	Recovered
	Scheduled
	RefreshedNow
)

func (o Outcome) String() string {
	switch o {
	case NoToken:
		return "no-token"
	case Recovered:
		return "recovered"
	case Scheduled:
		return "scheduled"
	case RefreshedNow:
		return "refreshed-now"
	}
	return "unknown"
}

// Hooks are the session operations the scheduler drives
type Hooks struct {
	CheckAuth func()
	Refresh   func()
}

// InitializeAuth runs once per namespace at start-up: nothing without a token,
// CheckAuth recovery for an expired token, otherwise a scheduled refresh.
func (s *Scheduler) InitializeAuth(namespace, token string, hooks Hooks) Outcome {
	if token == "" {
		return NoToken
	}
	if IsExpired(token) {
		hooks.CheckAuth()
		return Recovered
	}
	if s.Schedule(namespace, token, hooks.Refresh) == 0 {
		return RefreshedNow
	}
	return Scheduled
}
