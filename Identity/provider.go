package Identity

import (
	"context"
	"errors"
)

var (
	ErrNotAuthenticated = errors.New("no authenticated user")
	ErrUnresolved       = errors.New("backend user id could not be resolved")
)

// Provider is the identity provider the app signs in with
type Provider interface {
	CurrentUserID() (string, bool)
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
}

// StaticProvider always reports the same user and token. Used by tests and
// by the check-in command when a token is passed on the command line.
type StaticProvider struct {
	UID   string
	Token string
}

func (s StaticProvider) CurrentUserID() (string, bool) {
	return s.UID, s.UID != ""
}

func (s StaticProvider) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	if s.UID == "" {
		return "", ErrNotAuthenticated
	}
	return s.Token, nil
}
