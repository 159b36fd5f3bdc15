// Package auth reads session tokens and feeds them to the API client.
//
// Tokens are issued by the PG API and only ever inspected here, never
// verified: the server remains the authority on validity.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned for a token that is not a JWT.
var ErrMalformedToken = errors.New("token is not a JWT")

// userIDClaims are checked in order for the user id.
var userIDClaims = []string{"user_id", "userId", "id", "sub"}

// TokenInfo is what the client learns from a token without verifying it.
type TokenInfo struct {
	ExpiresAt time.Time
	IssuedAt  time.Time
	UserID    string
	Email     string
	Role      string
}

// Expired reports whether the token has an expiry at or before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect decodes the claims of a JWT without checking its signature.
func Inspect(raw string) (TokenInfo, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return TokenInfo{}, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	info := TokenInfo{
		Email: stringClaim(claims, "email"),
		Role:  stringClaim(claims, "role"),
	}
	for _, name := range userIDClaims {
		if id := stringClaim(claims, name); id != "" {
			info.UserID = id
			break
		}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: exp: %v", ErrMalformedToken, err)
	}
	if exp != nil {
		info.ExpiresAt = exp.Time
	}
	iat, err := claims.GetIssuedAt()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: iat: %v", ErrMalformedToken, err)
	}
	if iat != nil {
		info.IssuedAt = iat.Time
	}

	return info, nil
}

// stringClaim reads a string or numeric claim as a string.
func stringClaim(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
