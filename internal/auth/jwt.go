package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Package auth issues and verifies the bearer tokens that identify a draft
// owner. The server is the sole enforcer of per-owner isolation: every
// repository query is scoped by the owner extracted here.

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingOwner = errors.New("token carries no owner")
)

// Claims extends the registered claims with the owner identity.
type Claims struct {
	jwt.RegisteredClaims
	Owner string `json:"owner"`
}

// GenerateToken signs an HS256 token identifying the owner, valid for ttl.
func GenerateToken(owner string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Owner: owner,
	})
	return token.SignedString(secret)
}

// OwnerFromToken verifies the token signature and expiry and returns the
// owner identity embedded in it.
func OwnerFromToken(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Owner == "" {
		return "", ErrMissingOwner
	}
	return claims.Owner, nil
}
