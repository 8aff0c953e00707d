package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		ExpiresAt: exp.Unix(),
		Subject:   "1",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, ok := TokenExpiry(signed)
	if !ok || !got.Equal(exp) {
		t.Fatalf("expected %v got %v (%v)", exp, got, ok)
	}

	for _, bad := range []string{"", "T1", "not.a.jwt"} {
		if _, ok := TokenExpiry(bad); ok {
			t.Fatalf("expected no expiry for %q", bad)
		}
	}
}
