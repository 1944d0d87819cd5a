// Package prefs persists small client preferences: the last login identifier
// and, when enabled, the sealed session credential.
package prefs

import (
	"context"
	"errors"
)

// ErrNotFound indicates the preference has never been written.
var ErrNotFound = errors.New("preference not found")

const (
	KeyLastLogin  = "last_login"
	KeyCredential = "credential"
)

// Store is a tiny key/value store for preferences.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LastLogin returns the last submitted login identifier, or "" when none was stored.
func LastLogin(ctx context.Context, store Store) (string, error) {
	v, err := store.Get(ctx, KeyLastLogin)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SetLastLogin records the submitted login identifier.
func SetLastLogin(ctx context.Context, store Store, id string) error {
	return store.Put(ctx, KeyLastLogin, []byte(id))
}
