package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateAccessToken("user-123")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	userID, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}
}

func TestGenerateAccessToken_EmptyUserID(t *testing.T) {
	svc := NewJWTService("test-secret")

	if _, err := svc.GenerateAccessToken(""); !errors.Is(err, ErrEmptyUserID) {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}
}

func TestValidateAccessToken_Malformed(t *testing.T) {
	svc := NewJWTService("test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ValidateAccessToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a")
	verifier := NewJWTService("secret-b")

	token, err := issuer.GenerateAccessToken("user-123")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := verifier.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret")

	// Issue a token that expired well past the validation leeway.
	past := time.Now().Add(-2 * time.Hour)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(AccessTokenExpiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateAccessToken_MissingSubject(t *testing.T) {
	svc := NewJWTService("test-secret")

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for missing subject, got %v", err)
	}
}

func TestValidateAccessToken_RejectsNonHMAC(t *testing.T) {
	svc := NewJWTService("test-secret")

	// alg=none style token: header {"alg":"none","typ":"JWT"}.
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1c2VyLTEyMyJ9."
	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}
