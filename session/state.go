package session

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/fee-portal/users"
)

// PersistKey is the storage key of the persisted session subset
const PersistKey = "auth-storage"

type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusError          Status = "error"
)

// State is the in-memory session of one browser
type State struct {
	User            *users.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	IsLoading       bool        `json:"isLoading"`
	Error           string      `json:"error,omitempty"`
}

func (s State) Status() Status {
	switch {
	case s.IsLoading:
		return StatusAuthenticating
	case s.IsAuthenticated:
		return StatusAuthenticated
	case s.Error != "":
		return StatusError
	default:
		return StatusAnonymous
	}
}

func (s State) clone() State {
	s.User = s.User.Clone()
	return s
}

// Persisted is the subset of State that survives a reload
type Persisted struct {
	User            *users.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

// Encode serialises the persisted subset of s
func Encode(s State) ([]byte, error) {
	data, err := json.Marshal(Persisted{User: s.User, IsAuthenticated: s.IsAuthenticated})
	if err != nil {
		return nil, fmt.Errorf("session: encode: %w", err)
	}
	return data, nil
}

// Decode rebuilds a State from its persisted subset. Loading and error are
// never restored, and a session without a user is never authenticated.
func Decode(data []byte) (State, error) {
	var p Persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return State{}, fmt.Errorf("session: decode: %w", err)
	}
	s := State{User: p.User, IsAuthenticated: p.IsAuthenticated}
	if s.User == nil {
		s.IsAuthenticated = false
	}
	return s, nil
}
