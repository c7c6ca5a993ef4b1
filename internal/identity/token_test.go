package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	principal := Principal{ID: uuid.New(), Email: "ana@clinica.com.br"}

	token, jti, expiresAt, err := NewAccessToken(secret, principal, time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if jti == "" {
		t.Fatal("empty jti")
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiresAt = %v, want future", expiresAt)
	}

	claims, err := ParseAccessToken(secret, token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if claims.Subject != principal.ID.String() {
		t.Errorf("Subject = %s, want %s", claims.Subject, principal.ID)
	}
	if claims.Email != principal.Email {
		t.Errorf("Email = %s, want %s", claims.Email, principal.Email)
	}
	if claims.ID != jti {
		t.Errorf("jti = %s, want %s", claims.ID, jti)
	}
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	token, _, _, err := NewAccessToken([]byte("right"), Principal{ID: uuid.New()}, time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if _, err := ParseAccessToken([]byte("wrong"), token); err == nil {
		t.Fatal("ParseAccessToken() accepted a token signed with another secret")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	token, _, _, err := NewAccessToken([]byte("secret"), Principal{ID: uuid.New()}, -time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if _, err := ParseAccessToken([]byte("secret"), token); err == nil {
		t.Fatal("ParseAccessToken() accepted an expired token")
	}
}
