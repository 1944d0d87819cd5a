package auth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/prefs"
	"github.com/vidfriends/mediadeck/internal/site"
)

type authenticatorStub struct {
	mu       sync.Mutex
	password string
	loginErr error
	selfErr  error
	profile  models.Profile
	logins   int
	selfs    int
}

func (a *authenticatorStub) Login(ctx context.Context, username, password string) (models.Credential, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logins++
	if a.loginErr != nil {
		return models.Credential{}, a.loginErr
	}
	if password != a.password {
		return models.Credential{}, site.ErrUnauthorized
	}
	return models.Credential{Token: "token-" + username, Username: username}, nil
}

func (a *authenticatorStub) Self(ctx context.Context, cred models.Credential) (models.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selfs++
	if a.selfErr != nil {
		return models.Profile{}, a.selfErr
	}
	return a.profile, nil
}

func TestManagerLoginSuccess(t *testing.T) {
	remote := &authenticatorStub{password: "hunter2", profile: models.Profile{ID: "1", Nickname: "Alice"}}
	store := prefs.NewMemoryStore()
	manager := NewManager(NewHolder(), remote, store, nil)

	state, err := manager.Login(context.Background(), " alice ", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if state.Credential.Token != "token-alice" || state.Profile.Nickname != "Alice" {
		t.Fatalf("unexpected state %+v", state)
	}
	if got := manager.Holder().Current(); got != state {
		t.Fatalf("holder not updated: %+v", got)
	}
	last, _ := manager.LastLogin(context.Background())
	if last != "alice" {
		t.Fatalf("expected last login alice got %q", last)
	}
	if store.Has(prefs.KeyCredential) {
		t.Fatal("credential must not be remembered without a sealer")
	}
}

func TestManagerLoginInvalidLeavesGuest(t *testing.T) {
	remote := &authenticatorStub{password: "hunter2"}
	store := prefs.NewMemoryStore()
	manager := NewManager(NewHolder(), remote, store, nil)

	if _, err := manager.Login(context.Background(), "mallory", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials got %v", err)
	}
	if !manager.Holder().Credential().IsGuest() {
		t.Fatal("failed login must leave the session unset")
	}
	if !manager.Holder().Current().Profile.IsGuest() {
		t.Fatal("failed login must leave the guest profile")
	}
	last, _ := manager.LastLogin(context.Background())
	if last != "mallory" {
		t.Fatalf("expected submitted identifier to be persisted got %q", last)
	}
}

func TestManagerLoginTransportError(t *testing.T) {
	remote := &authenticatorStub{loginErr: errors.New("dial tcp: refused")}
	manager := NewManager(NewHolder(), remote, prefs.NewMemoryStore(), nil)

	_, err := manager.Login(context.Background(), "alice", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrapped transport error got %v", err)
	}
}

func TestManagerLoginMissingCredentials(t *testing.T) {
	remote := &authenticatorStub{}
	store := prefs.NewMemoryStore()
	manager := NewManager(NewHolder(), remote, store, nil)

	if _, err := manager.Login(context.Background(), "  ", "pw"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials got %v", err)
	}
	if remote.logins != 0 {
		t.Fatal("blank credentials must not reach the site")
	}
	if store.Has(prefs.KeyLastLogin) {
		t.Fatal("blank username must not be persisted")
	}
}

func TestManagerRememberAndRestore(t *testing.T) {
	remote := &authenticatorStub{password: "pw", profile: models.Profile{Nickname: "Alice"}}
	store := prefs.NewMemoryStore()
	sealer, err := prefs.NewSealer("secret")
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}

	first := NewManager(NewHolder(), remote, store, sealer)
	if _, err := first.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !store.Has(prefs.KeyCredential) {
		t.Fatal("expected credential to be remembered")
	}

	second := NewManager(NewHolder(), remote, store, sealer)
	restored, err := second.Restore(context.Background())
	if err != nil || !restored {
		t.Fatalf("restore: %v, %v", restored, err)
	}
	if second.Holder().Credential().Token != "token-alice" {
		t.Fatalf("unexpected restored credential %+v", second.Holder().Credential())
	}

	if err := second.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !second.Holder().Credential().IsGuest() {
		t.Fatal("logout must reset to guest")
	}
	if store.Has(prefs.KeyCredential) {
		t.Fatal("logout must forget the remembered credential")
	}
}

func TestManagerRestoreRejectedCredential(t *testing.T) {
	store := prefs.NewMemoryStore()
	sealer, _ := prefs.NewSealer("secret")
	remote := &authenticatorStub{password: "pw"}

	first := NewManager(NewHolder(), remote, store, sealer)
	if _, err := first.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	remote.selfErr = site.ErrUnauthorized
	second := NewManager(NewHolder(), remote, store, sealer)
	restored, err := second.Restore(context.Background())
	if err != nil || restored {
		t.Fatalf("expected expired credential to be dropped got %v, %v", restored, err)
	}
	if store.Has(prefs.KeyCredential) {
		t.Fatal("expected rejected credential to be deleted")
	}
}

func TestManagerRefreshProfile(t *testing.T) {
	remote := &authenticatorStub{password: "pw", profile: models.Profile{Nickname: "Alice"}}
	manager := NewManager(NewHolder(), remote, prefs.NewMemoryStore(), nil)

	profile, err := manager.RefreshProfile(context.Background())
	if err != nil || !profile.IsGuest() {
		t.Fatalf("guest refresh should return the guest profile got %+v, %v", profile, err)
	}
	if remote.selfs != 0 {
		t.Fatal("guest refresh must not hit the site")
	}

	if _, err := manager.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	remote.profile = models.Profile{Nickname: "Alice", FriendRequests: 3}
	profile, err = manager.RefreshProfile(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if profile.FriendRequests != 3 || manager.Holder().Current().Profile.FriendRequests != 3 {
		t.Fatalf("expected profile to be replaced got %+v", profile)
	}
}

// gatedAuthenticator holds Login until release is closed.
type gatedAuthenticator struct {
	*authenticatorStub
	entered chan struct{}
	release chan struct{}
}

func (g *gatedAuthenticator) Login(ctx context.Context, username, password string) (models.Credential, error) {
	close(g.entered)
	<-g.release
	return g.authenticatorStub.Login(ctx, username, password)
}

func TestManagerLogoutDuringLoginWins(t *testing.T) {
	store := prefs.NewMemoryStore()
	sealer, _ := prefs.NewSealer("secret")
	remote := &gatedAuthenticator{
		authenticatorStub: &authenticatorStub{password: "pw", profile: models.Profile{Nickname: "Alice"}},
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	manager := NewManager(NewHolder(), remote, store, sealer)

	errs := make(chan error, 1)
	go func() {
		_, err := manager.Login(context.Background(), "alice", "pw")
		errs <- err
	}()

	<-remote.entered
	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	close(remote.release)

	if err := <-errs; !errors.Is(err, ErrLoginSuperseded) {
		t.Fatalf("expected ErrLoginSuperseded got %v", err)
	}
	if cred := manager.Holder().Credential(); !cred.IsGuest() {
		t.Fatalf("expected logout to stick got %+v", cred)
	}
	if store.Has(prefs.KeyCredential) {
		t.Fatal("expected the superseded login not to be remembered")
	}
}

type failingDeleteStore struct {
	*prefs.MemoryStore
}

func (failingDeleteStore) Delete(context.Context, string) error {
	return errors.New("disk full")
}

func TestManagerRestoreLogsFailedForget(t *testing.T) {
	store := failingDeleteStore{prefs.NewMemoryStore()}
	sealer, _ := prefs.NewSealer("secret")
	if err := store.Put(context.Background(), prefs.KeyCredential, []byte("not sealed")); err != nil {
		t.Fatalf("put: %v", err)
	}
	manager := NewManager(NewHolder(), &authenticatorStub{}, store, sealer)

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.New(&buf, "debug"))
	restored, err := manager.Restore(ctx)
	if err != nil || restored {
		t.Fatalf("expected an unreadable credential to be skipped got %v, %v", restored, err)
	}
	if !strings.Contains(buf.String(), "forget remembered credential") || !strings.Contains(buf.String(), "disk full") {
		t.Fatalf("expected the failed delete to be logged got %q", buf.String())
	}
}
