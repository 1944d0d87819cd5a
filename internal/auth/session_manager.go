package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/prefs"
	"github.com/vidfriends/mediadeck/internal/site"
)

var (
	// ErrInvalidCredentials indicates the site rejected the username or password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrMissingCredentials indicates the username or password was blank.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrLoginSuperseded indicates a logout or newer login finished first.
	ErrLoginSuperseded = errors.New("login superseded by a later session change")
)

// Authenticator performs the remote half of the login flow.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.Credential, error)
	Self(ctx context.Context, cred models.Credential) (models.Profile, error)
}

// State is an immutable snapshot of who is logged in.
type State struct {
	Credential models.Credential
	Profile    models.Profile
}

// Holder publishes the current session State. Readers get a copy; only the
// Manager writes.
type Holder struct {
	state atomic.Pointer[State]
}

// NewHolder returns a Holder in the guest state.
func NewHolder() *Holder {
	h := &Holder{}
	h.state.Store(&State{Credential: models.Guest, Profile: models.GuestProfile})
	return h
}

// Current returns a snapshot of the session.
func (h *Holder) Current() State {
	return *h.state.Load()
}

// Credential returns the credential to attach to remote calls.
func (h *Holder) Credential() models.Credential {
	return h.state.Load().Credential
}

func (h *Holder) set(s State) {
	h.state.Store(&s)
}

// Manager owns the session lifecycle: login, logout, restore and profile refresh.
type Manager struct {
	holder *Holder
	remote Authenticator
	store  prefs.Store
	sealer *prefs.Sealer

	// gen counts session changes. A login or restore only publishes when no
	// other change started after it.
	mu  sync.Mutex
	gen uint64
}

// NewManager constructs a Manager. A nil sealer disables remembering the credential.
func NewManager(holder *Holder, remote Authenticator, store prefs.Store, sealer *prefs.Sealer) *Manager {
	if holder == nil || remote == nil || store == nil {
		panic("auth: holder, authenticator and preference store must not be nil")
	}
	return &Manager{
		holder: holder,
		remote: remote,
		store:  store,
		sealer: sealer,
	}
}

// Holder exposes the session holder read by every client.
func (m *Manager) Holder() *Holder {
	return m.holder
}

// LastLogin returns the last submitted login identifier.
func (m *Manager) LastLogin(ctx context.Context) (string, error) {
	return prefs.LastLogin(ctx, m.store)
}

// Login submits the credentials. The submitted username is persisted as the
// last login whether or not the site accepts it; the session only changes on
// success.
func (m *Manager) Login(ctx context.Context, username, password string) (State, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return State{}, ErrMissingCredentials
	}

	ctx, span := logging.StartSpan(ctx, "auth.login", slog.String("username", username))
	defer span.End()

	gen := m.begin()

	if err := prefs.SetLastLogin(ctx, m.store, username); err != nil {
		logging.FromContext(ctx).Warn("persist last login", "error", err)
	}

	cred, err := m.remote.Login(ctx, username, password)
	if err != nil {
		span.Fail(err)
		if errors.Is(err, site.ErrUnauthorized) {
			return State{}, ErrInvalidCredentials
		}
		return State{}, fmt.Errorf("login: %w", err)
	}

	profile, err := m.remote.Self(ctx, cred)
	if err != nil {
		logging.FromContext(ctx).Warn("fetch profile after login", "error", err)
		profile = models.Profile{Nickname: username}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		span.Fail(ErrLoginSuperseded)
		return State{}, ErrLoginSuperseded
	}
	state := State{Credential: cred, Profile: profile}
	m.holder.set(state)

	if err := m.remember(ctx, cred); err != nil {
		logging.FromContext(ctx).Warn("remember credential", "error", err)
	}

	return state, nil
}

func (m *Manager) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen
}

// Logout returns to the guest state and forgets any remembered credential.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.gen++
	m.holder.set(State{Credential: models.Guest, Profile: models.GuestProfile})
	m.mu.Unlock()

	if err := m.store.Delete(ctx, prefs.KeyCredential); err != nil {
		return fmt.Errorf("forget credential: %w", err)
	}
	return nil
}

// Restore loads a remembered credential. It reports whether a session was restored.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	if m.sealer == nil {
		return false, nil
	}
	gen := m.begin()

	sealed, err := m.store.Get(ctx, prefs.KeyCredential)
	if errors.Is(err, prefs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}

	plain, err := m.sealer.Open(sealed)
	if err != nil {
		m.forget(ctx, "unreadable remembered credential")
		return false, nil
	}

	var stored storedCredential
	if err := json.Unmarshal(plain, &stored); err != nil || stored.Token == "" {
		m.forget(ctx, "malformed remembered credential")
		return false, nil
	}
	cred := models.Credential{Token: stored.Token, Username: stored.Username}

	profile, err := m.remote.Self(ctx, cred)
	if errors.Is(err, site.ErrUnauthorized) {
		m.forget(ctx, "remembered credential expired")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify remembered credential: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false, nil
	}
	m.holder.set(State{Credential: cred, Profile: profile})
	return true, nil
}

// forget drops the remembered credential. Failures are logged since the
// caller falls back to the guest session either way.
func (m *Manager) forget(ctx context.Context, reason string) {
	logger := logging.FromContext(ctx)
	logger.Info(reason)
	if err := m.store.Delete(ctx, prefs.KeyCredential); err != nil {
		logger.Warn("forget remembered credential", "reason", reason, "error", err)
	}
}

// RefreshProfile replaces the profile wholesale. The result is discarded if
// the credential changed while the request was in flight.
func (m *Manager) RefreshProfile(ctx context.Context) (models.Profile, error) {
	cred := m.holder.Credential()
	if cred.IsGuest() {
		return models.GuestProfile, nil
	}

	profile, err := m.remote.Self(ctx, cred)
	if err != nil {
		return models.Profile{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.holder.Current()
	if current.Credential != cred {
		return current.Profile, nil
	}
	m.holder.set(State{Credential: cred, Profile: profile})
	return profile, nil
}

type storedCredential struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (m *Manager) remember(ctx context.Context, cred models.Credential) error {
	if m.sealer == nil {
		return nil
	}
	plain, err := json.Marshal(storedCredential{Token: cred.Token, Username: cred.Username})
	if err != nil {
		return err
	}
	sealed, err := m.sealer.Seal(plain)
	if err != nil {
		return err
	}
	return m.store.Put(ctx, prefs.KeyCredential, sealed)
}
