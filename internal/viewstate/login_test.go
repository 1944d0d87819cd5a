package viewstate

import (
	"context"
	"errors"
	"testing"

	"github.com/vidfriends/mediadeck/internal/auth"
)

func TestLoginPreloadsLastUsername(t *testing.T) {
	ctx := context.Background()
	session := newSession()
	if _, err := session.Login(ctx, "bob", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials got %v", err)
	}

	form := NewLogin(ctx, session)
	if got := form.State().Username; got != "bob" {
		t.Fatalf("expected username bob got %q", got)
	}
	if form.State().LoggedIn {
		t.Fatal("expected to be logged out")
	}
}

func TestLoginSubmit(t *testing.T) {
	ctx := context.Background()
	session := newSession()
	form := NewLogin(ctx, session)

	if _, err := form.Submit(ctx, "alice", "wrong"); err == nil {
		t.Fatal("expected failure")
	}
	state := form.State()
	if state.Error == "" || state.LoggedIn || state.Submitting {
		t.Fatalf("unexpected state after failure %+v", state)
	}
	if !session.Holder().Credential().IsGuest() {
		t.Fatal("failed login must leave the session as guest")
	}

	result, err := form.Submit(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Profile.Nickname != "alice" {
		t.Fatalf("unexpected profile %+v", result.Profile)
	}
	if state := form.State(); !state.LoggedIn || state.Error != "" {
		t.Fatalf("unexpected state after success %+v", state)
	}
}
