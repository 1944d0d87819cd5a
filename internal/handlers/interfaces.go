package handlers

import (
	"context"
	"net/http"

	"github.com/vidfriends/mediadeck/internal/archive"
	"github.com/vidfriends/mediadeck/internal/auth"
	"github.com/vidfriends/mediadeck/internal/models"
)

// SessionService owns the login session. *auth.Manager satisfies it.
type SessionService interface {
	Holder() *auth.Holder
	Login(ctx context.Context, username, password string) (auth.State, error)
	Logout(ctx context.Context) error
	LastLogin(ctx context.Context) (string, error)
	RefreshProfile(ctx context.Context) (models.Profile, error)
}

// ArchiveQueue schedules snapshot exports. *archive.Exporter satisfies it.
type ArchiveQueue interface {
	Enqueue(ctx context.Context, job archive.Job) error
}

// Middleware decorates a handler.
type Middleware func(http.Handler) http.Handler
