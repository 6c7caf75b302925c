// Package token inspects the bearer tokens the backend issues.
//
// The console treats the token as opaque: it never verifies signatures and
// never trusts claims for authorization, since the backend re-checks every
// request. The one useful thing a client can read out of a JWT-shaped
// token is its expiry, so a session restored from storage with a token
// that is already dead can be dropped up front instead of bouncing every
// call off a 401.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry reports the exp claim of a bearer token when the token happens to
// be a parseable JWT carrying one. Tokens that are not JWTs, or JWTs
// without an exp claim, report false.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token carries an expiry at or before now.
// An unreadable expiry reports false: an opaque token is assumed live and
// left for the backend to judge.
func Expired(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	return ok && !exp.After(now)
}
