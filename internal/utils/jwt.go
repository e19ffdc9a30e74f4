package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned when a presented token fails signature
// verification, is structurally malformed, or its claims have expired.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed HS256 token along with its expiry. The
// Token field contains the serialized JWT string; Exp stores the UTC
// expiration time. The same string that goes to the client is also stored
// server side, so liveness can be checked per request.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenClaims is the decoded view of an access token a caller gets back
// from ParseAccessToken. UserID carries the subject (the principal id) and
// Role its role at issue time.
type TokenClaims struct {
	UserID uint64
	Role   string
}

// NewAccessToken builds and signs an HS256 JWT for a user. The claims are
// the standard set: subject (sub), role, expiration (exp) and issued at
// (iat). Rotating the secret invalidates every token signed with the old
// one.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a raw token string
// and extracts its claims. Any failure collapses into ErrInvalidToken so
// callers treat all broken tokens the same; the dropped detail is only a
// diagnostic.
func ParseAccessToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC is accepted; a token signed any other way is forged.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64) // numeric claims decode as float64
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return TokenClaims{UserID: uint64(sub), Role: role}, nil
}
