package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when a valid token is presented where a
// token of another type is expected.
var ErrWrongTokenType = errors.New("wrong token type")

// Claims are the JWT claims issued by the API. The subject is the user's
// email; Type separates access tokens from refresh tokens.
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Token is a signed JWT along with its id and expiry.
type Token struct {
	Value string
	ID    string
	Exp   time.Time
}

// IssueToken builds and signs an HS256 JWT of the given type for email.
// Refresh tokens carry a random jti so two tokens issued in the same
// second still hash differently.
func IssueToken(secret, email, typ string, ttl time.Duration, now time.Time) (Token, error) {
	now = now.UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if typ == TokenTypeRefresh {
		claims.ID = uuid.NewString()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ID: claims.ID, Exp: exp}, nil
}

// ParseToken verifies raw with secret and checks that it is of type typ.
// Only HS256 is accepted.
func ParseToken(secret, raw, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string. Only the hash is stored.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
