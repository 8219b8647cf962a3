// Package auth issues and verifies the opaque session credential a client
// persists across restarts. The credential wraps the transport identity so a
// reconnecting client is recognized as the same session.
package auth

import (
	"errors"
	"fmt"

	"github.com/Heavenston/headar/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid identity token")

// Issuer signs and verifies identity tokens with a shared HMAC key.
type Issuer struct {
	key   []byte
	clock utils.Clock
}

func NewIssuer(key []byte, clock utils.Clock) *Issuer {
	return &Issuer{key: key, clock: clock}
}

// Issue creates a token binding the given transport identity.
func (i *Issuer) Issue(identity string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  identity,
		IssuedAt: jwt.NewNumericDate(i.clock.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign identity token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the transport identity it binds.
func (i *Issuer) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
