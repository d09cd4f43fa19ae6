package session

import "github.com/rs/zerolog/log"

// Navigator performs the hard navigation to the login page after a session expires
type Navigator interface {
	ToLogin()
}

type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() {
	f()
}

// LogNavigator is used where no browser is attached, such as timer driven refreshes
type LogNavigator struct {
	Namespace string
}

func (n LogNavigator) ToLogin() {
	log.Info().Str("namespace", n.Namespace).Msg("session expired, login required on next visit")
}
