// Package auth provides JWT access-token validation for the feed API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry is the lifetime of issued access tokens.
const AccessTokenExpiry = 15 * time.Minute

// DefaultLeeway tolerated on token time claims.
const DefaultLeeway = 30 * time.Second

// Token validation errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptyUserID  = errors.New("userID cannot be empty")
)

// Claims are the JWT claims carried by access tokens. The subject claim
// holds the user ID.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService signs and validates access tokens with an HMAC secret.
type JWTService struct {
	secret []byte
	leeway time.Duration
}

// NewJWTService creates a JWTService with the given secret and the
// default leeway.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		leeway: DefaultLeeway,
	}
}

// GenerateAccessToken issues a signed access token for a user.
func (s *JWTService) GenerateAccessToken(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateAccessToken parses and validates a token string, returning
// the authenticated user ID.
func (s *JWTService) ValidateAccessToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithLeeway(s.leeway), jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
