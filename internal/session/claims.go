package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the subset of JWT claims the client inspects. The token
// is parsed without signature verification: the backend remains the
// authority on validity, the client only reads the payload to display
// the signed-in account and to schedule a proactive refresh.
type Claims struct {
	// Email is the account the token was issued for.
	Email string

	// ExpiresAt is the token expiry, zero when the claim is absent.
	ExpiresAt time.Time
}

// ParseClaims decodes the payload of token without verifying its
// signature.
func ParseClaims(token string) (Claims, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Claims{}, fmt.Errorf("decoding token payload: %w", err)
	}

	var out Claims
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// ExpiresWithin reports whether the token expires within d. A token
// with no expiry claim never reports true.
func (c Claims) ExpiresWithin(d time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Until(c.ExpiresAt) < d
}
