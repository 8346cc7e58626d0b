// Package identity owns the device-local participant identity: a single
// username durable across runs, created by explicit user action and read by
// every other component. It is always injected, never a global, so tests can
// substitute identities.
package identity

import (
	"context"
	"errors"
)

// ErrNoParticipant is returned when no identity has been set yet.
var ErrNoParticipant = errors.New("no participant identity set")

// Provider is the read-only view the engine and gateway depend on.
type Provider interface {
	// Participant returns the current participant username, or
	// ErrNoParticipant if the user has not created one.
	Participant(ctx context.Context) (string, error)
}

// Store is the full identity surface, including the explicit user actions
// that create and clear the identity.
type Store interface {
	Provider
	SetParticipant(ctx context.Context, username string) error
	Clear(ctx context.Context) error
	Close() error
}

// Static is a fixed-identity Provider for tests and one-shot commands.
type Static string

func (s Static) Participant(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoParticipant
	}
	return string(s), nil
}
