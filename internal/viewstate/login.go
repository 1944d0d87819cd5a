package viewstate

import (
	"context"
	"sync"

	"github.com/vidfriends/mediadeck/internal/auth"
	"github.com/vidfriends/mediadeck/internal/logging"
)

// LoginState is the observable state of the login form.
type LoginState struct {
	Username   string `json:"username"`
	Submitting bool   `json:"submitting"`
	Error      string `json:"error,omitempty"`
	LoggedIn   bool   `json:"loggedIn"`
}

// Login holds the login form.
type Login struct {
	session SessionManager

	mu    sync.Mutex
	state LoginState
}

// NewLogin returns a form with the username preloaded from the last login.
func NewLogin(ctx context.Context, session SessionManager) *Login {
	username, err := session.LastLogin(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("load last login", "error", err)
	}
	return &Login{
		session: session,
		state: LoginState{
			Username: username,
			LoggedIn: !session.Holder().Credential().IsGuest(),
		},
	}
}

// State returns a snapshot of the form.
func (l *Login) State() LoginState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Submit logs in. The form keeps the submitted username either way.
func (l *Login) Submit(ctx context.Context, username, password string) (auth.State, error) {
	l.mu.Lock()
	l.state.Username = username
	l.state.Submitting = true
	l.state.Error = ""
	l.mu.Unlock()

	result, err := l.session.Login(ctx, username, password)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Submitting = false
	if err != nil {
		l.state.Error = err.Error()
		return auth.State{}, err
	}
	l.state.LoggedIn = true
	return result, nil
}
