// Package notify carries success and failure messages to the user. Failures
// caused by a 401 from the backend are dropped everywhere: the forced logout
// path already tells the user their session ended.
package notify

import (
	"sync"

	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/rs/zerolog/log"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is one user-facing message
type Toast struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

type Notifier interface {
	Success(message string)
	Failure(err error)
}

// Suppressed reports whether a failure should not be shown
func Suppressed(err error) bool {
	return err == nil || errors.IsUnauthorized(err)
}

// Recorder collects toasts until they are drained
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

var _ Notifier = (*Recorder)(nil)

func (r *Recorder) Success(message string) {
	r.add(Toast{Kind: KindSuccess, Message: message})
}

func (r *Recorder) Failure(err error) {
	if Suppressed(err) {
		return
	}
	r.add(Toast{Kind: KindError, Message: errors.Message(err)})
}

func (r *Recorder) add(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Drain returns and forgets the collected toasts
func (r *Recorder) Drain() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	toasts := r.toasts
	r.toasts = nil
	return toasts
}

// Logger writes notifications to the application log
type Logger struct {
	Namespace string
}

var _ Notifier = Logger{}

func (l Logger) Success(message string) {
	log.Info().Str("namespace", l.Namespace).Msg(message)
}

func (l Logger) Failure(err error) {
	if Suppressed(err) {
		return
	}
	log.Warn().Err(err).Str("namespace", l.Namespace).Msg("notify: operation failed")
}

// Multi fans out to every notifier
type Multi []Notifier

func (m Multi) Success(message string) {
	for _, n := range m {
		n.Success(message)
	}
}

func (m Multi) Failure(err error) {
	for _, n := range m {
		n.Failure(err)
	}
}
