package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp *jwt.NumericDate) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "7"}
	if exp != nil {
		claims.ExpiresAt = exp
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestExpiryReadsExpClaim(t *testing.T) {
	want := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signedToken(t, jwt.NewNumericDate(want))

	got, ok := Expiry(tok)
	if !ok {
		t.Fatal("Expiry reported no exp claim")
	}
	if !got.Equal(want) {
		t.Fatalf("Expiry = %v, want %v", got, want)
	}
}

func TestExpiryWithoutExpClaim(t *testing.T) {
	tok := signedToken(t, nil)
	if _, ok := Expiry(tok); ok {
		t.Fatal("Expiry reported an exp claim on a token without one")
	}
}

func TestExpiryOpaqueToken(t *testing.T) {
	for _, tok := range []string{"", "not-a-jwt", "a.b", "a.b.c"} {
		if _, ok := Expiry(tok); ok {
			t.Fatalf("Expiry(%q) reported ok for a non-JWT token", tok)
		}
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()

	live := signedToken(t, jwt.NewNumericDate(now.Add(time.Hour)))
	if Expired(live, now) {
		t.Fatal("live token reported expired")
	}

	dead := signedToken(t, jwt.NewNumericDate(now.Add(-time.Hour)))
	if !Expired(dead, now) {
		t.Fatal("dead token reported live")
	}

	// Opaque tokens are assumed live; validity is the backend's call.
	if Expired("opaque-bearer-value", now) {
		t.Fatal("opaque token reported expired")
	}
}
