package auth

import (
	"strings"
	"testing"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	token, err := SignJWT(Claims{Sub: "user-1", Email: "a@b.test", Name: "A"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Sub != "user-1" {
		t.Fatalf("unexpected sub: %s", claims.Sub)
	}
	if claims.Email != "a@b.test" {
		t.Fatalf("unexpected email: %s", claims.Email)
	}
	if claims.Exp <= claims.Iat {
		t.Fatalf("expected exp after iat, got iat=%d exp=%d", claims.Iat, claims.Exp)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	token, err := SignJWT(Claims{Sub: "user-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}
	parts[2] = "AAAA" + parts[2][4:]
	if _, err := VerifyJWT(strings.Join(parts, ".")); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestVerifyRejectsMissingSub(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	if _, err := SignJWT(Claims{}); err == nil {
		t.Fatal("expected sign to reject empty sub")
	}
}
