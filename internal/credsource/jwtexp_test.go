package credsource

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTExpiryMillisDecodesExpClaim(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("unused-signing-key"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	millis, ok := jwtExpiryMillis(signed)
	if !ok {
		t.Fatal("expected exp claim to be decoded")
	}
	if millis != exp.UnixMilli() {
		t.Fatalf("expected %d, got %d", exp.UnixMilli(), millis)
	}
}

func TestJWTExpiryMillisNonJWTReturnsFalse(t *testing.T) {
	_, ok := jwtExpiryMillis("sk-ant-oat01-not-a-jwt")
	if ok {
		t.Fatal("expected non-JWT token to fail decode")
	}
}
