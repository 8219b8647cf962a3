package user

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const IdentityKey contextKey = "identity"

var ErrNoIdentity = errors.New("no identity in context")

// WithIdentity stores the caller's transport identity in the context. The
// sync session sets it before dispatching any reducer.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFrom retrieves the caller's transport identity from the context.
// Returns ErrNoIdentity if absent.
func IdentityFrom(ctx context.Context) (string, error) {
	identity, ok := ctx.Value(IdentityKey).(string)
	if !ok || identity == "" {
		log.Trace("identity not found in context")
		return "", ErrNoIdentity
	}
	return identity, nil
}
