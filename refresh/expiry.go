package refresh

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/fee-portal/internal/errors"
)

// ExpiryOf decodes the exp claim of an access token without verifying its
// signature. The portal cannot verify backend tokens; it only needs to know
// when to refresh.
func ExpiryOf(rawToken string) (time.Time, error) {
	if strings.TrimSpace(rawToken) == "" {
		return time.Time{}, errors.ErrMalformedToken
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errors.ErrMalformedToken, err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errors.ErrMalformedToken, err)
	}
	if exp == nil {
		return time.Time{}, errors.ErrTokenNoExpiry
	}
	return exp.Time, nil
}

// IsExpired treats undecodable tokens as expired
func IsExpired(rawToken string) bool {
	exp, err := ExpiryOf(rawToken)
	if err != nil {
		return true
	}
	return !exp.After(NowTimeFunc())
}
