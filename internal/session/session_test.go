package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/akbarov/facegate/internal/api"
)

// fakeResolver implements Resolver without a network.
type fakeResolver struct {
	credential string
	loginErr   error
	faceErr    error
	currentErr error
	identity   api.Identity
}

func (f *fakeResolver) SetCredential(c string) { f.credential = c }

func (f *fakeResolver) Login(ctx context.Context, username, password string) (*api.AuthResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &api.AuthResult{Credential: "tok-" + username, User: f.identity}, nil
}

func (f *fakeResolver) FaceLogin(ctx context.Context, image string) (*api.AuthResult, error) {
	if f.faceErr != nil {
		return nil, f.faceErr
	}
	return &api.AuthResult{Credential: "tok-face", User: f.identity}, nil
}

func (f *fakeResolver) CurrentIdentity(ctx context.Context) (*api.Identity, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	id := f.identity
	return &id, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "credential.json"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestLogin_SessionBecomesComplete(t *testing.T) {
	resolver := &fakeResolver{identity: api.Identity{ID: "u-1", Username: "alisher", Role: api.RoleAdmin}}
	store := newTestStore(t)
	m := NewManager(resolver, store)

	var transitions []Session
	m.Subscribe(func(s Session) { transitions = append(transitions, s) })

	identity, err := m.Login(context.Background(), "alisher", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if identity.Role != api.RoleAdmin {
		t.Errorf("expected admin role, got '%s'", identity.Role)
	}

	current := m.Current()
	if !current.Complete() {
		t.Fatal("expected complete session after login")
	}
	if current.Credential != "tok-alisher" {
		t.Errorf("unexpected credential: %s", current.Credential)
	}

	if len(transitions) != 1 || !transitions[0].Complete() {
		t.Errorf("expected one complete-session notification, got %v", transitions)
	}

	// Credential persisted.
	stored, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stored != "tok-alisher" {
		t.Errorf("expected persisted credential, got '%s'", stored)
	}
}

func TestLogin_FailureLeavesSessionAbsent(t *testing.T) {
	resolver := &fakeResolver{loginErr: &api.Error{Status: http.StatusUnauthorized, Detail: "Invalid credentials"}}
	m := NewManager(resolver, newTestStore(t))

	_, err := m.Login(context.Background(), "alisher", "wrong")
	if err == nil {
		t.Fatal("expected login error")
	}
	if !api.IsAuthError(err) {
		t.Errorf("failure reason not surfaced: %v", err)
	}
	if m.Current().Complete() {
		t.Error("session must stay absent after failed login")
	}
}

func TestLoginByFace_NoMatchIsFailure(t *testing.T) {
	resolver := &fakeResolver{faceErr: &api.Error{Status: http.StatusUnauthorized, Detail: "Face not recognized"}}
	m := NewManager(resolver, newTestStore(t))

	_, err := m.LoginByFace(context.Background(), "data:image/jpeg;base64,abcd")
	if err == nil {
		t.Fatal("expected face login error")
	}
	s := m.Current()
	if s.Credential != "" || s.Identity.ID != "" {
		t.Error("no partial session may exist after a failed face login")
	}
}

func TestRestore_Success(t *testing.T) {
	resolver := &fakeResolver{identity: api.Identity{ID: "u-1", Username: "alisher", Role: api.RoleUser}}
	store := newTestStore(t)
	if err := store.Save("tok-persisted"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m := NewManager(resolver, store)
	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	current := m.Current()
	if !current.Complete() {
		t.Fatal("expected complete session after restore")
	}
	if current.Credential != "tok-persisted" {
		t.Errorf("unexpected credential: %s", current.Credential)
	}
	if resolver.credential != "tok-persisted" {
		t.Errorf("credential not attached to client: %s", resolver.credential)
	}
}

func TestRestore_RejectedCredentialIsCleared(t *testing.T) {
	resolver := &fakeResolver{currentErr: &api.Error{Status: http.StatusUnauthorized, Detail: "Invalid token"}}
	store := newTestStore(t)
	if err := store.Save("tok-expired"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m := NewManager(resolver, store)
	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore must not fail on credential rejection: %v", err)
	}

	if m.Current().Complete() {
		t.Error("session must stay absent after rejected restore")
	}
	stored, _ := store.Load()
	if stored != "" {
		t.Errorf("expected stored credential cleared, got '%s'", stored)
	}
	if resolver.credential != "" {
		t.Error("expected credential detached from client")
	}
}

func TestRestore_TransportErrorKeepsCredential(t *testing.T) {
	resolver := &fakeResolver{currentErr: errors.New("connection refused")}
	store := newTestStore(t)
	if err := store.Save("tok-kept"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m := NewManager(resolver, store)
	if err := m.Restore(context.Background()); err == nil {
		t.Fatal("expected transport error to be reported")
	}

	stored, _ := store.Load()
	if stored != "tok-kept" {
		t.Errorf("transport failure must not clear the stored credential, got '%s'", stored)
	}
	if m.Current().Complete() {
		t.Error("session must stay absent after failed restore")
	}
}

func TestRestore_NoStoredCredential(t *testing.T) {
	resolver := &fakeResolver{}
	m := NewManager(resolver, newTestStore(t))
	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore with empty store failed: %v", err)
	}
	if m.Current().Complete() {
		t.Error("expected absent session")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	resolver := &fakeResolver{identity: api.Identity{ID: "u-1"}}
	store := newTestStore(t)
	m := NewManager(resolver, store)

	if _, err := m.Login(context.Background(), "alisher", "secret123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if m.Current().Complete() {
		t.Error("expected absent session after logout")
	}
	if stored, _ := store.Load(); stored != "" {
		t.Error("expected stored credential removed on logout")
	}
	if resolver.credential != "" {
		t.Error("expected client credential detached on logout")
	}

	// second logout is a no-op
	if err := m.Logout(); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
	if m.Current().Complete() {
		t.Error("expected session to stay absent")
	}
}

func TestLogin_PersistFailureReported(t *testing.T) {
	// A store whose parent "directory" is a regular file cannot save.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	store, err := NewStore(filepath.Join(blocker, "credential.json"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	resolver := &fakeResolver{identity: api.Identity{ID: "u-1", Username: "alisher"}}
	m := NewManager(resolver, store)

	_, err = m.Login(context.Background(), "alisher", "secret123")
	if err == nil {
		t.Fatal("expected login to report the failed credential save")
	}
	// The service accepted the login, so the in-memory session is usable
	// for the rest of this run.
	if !m.Current().Complete() {
		t.Error("expected in-memory session despite failed persistence")
	}
}

func TestInvalidate_ClearsSessionAndStore(t *testing.T) {
	resolver := &fakeResolver{identity: api.Identity{ID: "u-1"}}
	store := newTestStore(t)
	m := NewManager(resolver, store)

	if _, err := m.Login(context.Background(), "alisher", "secret123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := m.Invalidate(); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if m.Current().Complete() {
		t.Error("expected absent session after invalidation")
	}
	if stored, _ := store.Load(); stored != "" {
		t.Error("expected stored credential removed on invalidation")
	}
	if resolver.credential != "" {
		t.Error("expected client credential detached on invalidation")
	}
}

func TestSessionNeverPartial(t *testing.T) {
	resolver := &fakeResolver{identity: api.Identity{ID: "u-1"}}
	m := NewManager(resolver, nil)

	m.Subscribe(func(s Session) {
		if (s.Credential == "") != (s.Identity.ID == "") {
			t.Errorf("partial session observed: %+v", s)
		}
	})

	if _, err := m.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	m.Logout()
}

func TestStore_ClearMissingFile(t *testing.T) {
	store := newTestStore(t)
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on missing file must be a no-op, got: %v", err)
	}
}

func TestStore_Permissions(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %o", info.Mode().Perm())
	}
}
