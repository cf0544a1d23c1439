// Package session owns the client's authentication state. The session is
// either absent or complete (credential plus resolved identity); no partial
// state is ever observable. The Manager is the single writer; every other
// component reads the current session or subscribes to changes.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/akbarov/facegate/internal/api"
)

// Session is the current authentication state. The zero value is the
// absent (unauthenticated) session.
type Session struct {
	Credential string
	Identity   api.Identity
}

// Complete reports whether the session carries both a credential and a
// resolved identity.
func (s Session) Complete() bool {
	return s.Credential != "" && s.Identity.ID != ""
}

// Resolver is the slice of the attendance service client the Manager needs.
type Resolver interface {
	SetCredential(credential string)
	Login(ctx context.Context, username, password string) (*api.AuthResult, error)
	FaceLogin(ctx context.Context, faceImage string) (*api.AuthResult, error)
	CurrentIdentity(ctx context.Context) (*api.Identity, error)
}

// Manager drives the session lifecycle: login, face login, restore from a
// persisted credential, and logout. State transitions are published to
// subscribers so route guarding can derive solely from session state.
type Manager struct {
	client Resolver
	store  *Store

	mu      sync.RWMutex
	current Session
	subs    []func(Session)
}

// NewManager creates a session manager. The store may be nil, in which
// case credentials are not persisted across runs.
func NewManager(client Resolver, store *Store) *Manager {
	return &Manager{client: client, store: store}
}

// Current returns the session as of this instant.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe registers a callback invoked after every session transition.
// Callbacks run synchronously on the mutating goroutine and must not call
// back into the Manager.
func (m *Manager) Subscribe(fn func(Session)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

// set installs the new session, persists or clears the stored credential,
// and notifies subscribers. The in-memory transition always happens; a
// store failure is returned so the caller can report it.
func (m *Manager) set(s Session) error {
	m.mu.Lock()
	m.current = s
	subs := make([]func(Session), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	m.client.SetCredential(s.Credential)
	var storeErr error
	if m.store != nil {
		if s.Credential == "" {
			storeErr = m.store.Clear()
		} else {
			storeErr = m.store.Save(s.Credential)
		}
	}
	for _, fn := range subs {
		fn(s)
	}
	return storeErr
}

// Restore attempts a single session restore from the persisted credential.
// When the service rejects the credential it is cleared and the session
// stays absent; that is not an error. A transport failure is returned to
// the caller and keeps the stored credential, but never blocks startup
// beyond this one attempt.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	credential, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load stored credential: %w", err)
	}
	if credential == "" {
		return nil
	}

	m.client.SetCredential(credential)
	identity, err := m.client.CurrentIdentity(ctx)
	if err != nil {
		m.client.SetCredential("")
		if api.IsAuthError(err) {
			if clearErr := m.store.Clear(); clearErr != nil {
				return fmt.Errorf("clear rejected credential: %w", clearErr)
			}
			return nil
		}
		return fmt.Errorf("resolve current identity: %w", err)
	}

	if err := m.set(Session{Credential: credential, Identity: *identity}); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

// Login authenticates with username and password. On success the session
// becomes complete and the credential is persisted; on failure the session
// stays absent and the failure reason is returned to the caller.
func (m *Manager) Login(ctx context.Context, username, password string) (api.Identity, error) {
	result, err := m.client.Login(ctx, username, password)
	if err != nil {
		return api.Identity{}, err
	}
	if err := m.set(Session{Credential: result.Credential, Identity: result.User}); err != nil {
		return result.User, fmt.Errorf("persist credential: %w", err)
	}
	return result.User, nil
}

// LoginByFace authenticates with a captured face image. Ambiguous or
// no-match results surface as a login failure; the session is never left
// partially authenticated.
func (m *Manager) LoginByFace(ctx context.Context, faceImage string) (api.Identity, error) {
	result, err := m.client.FaceLogin(ctx, faceImage)
	if err != nil {
		return api.Identity{}, err
	}
	if err := m.set(Session{Credential: result.Credential, Identity: result.User}); err != nil {
		return result.User, fmt.Errorf("persist credential: %w", err)
	}
	return result.User, nil
}

// Invalidate clears the session in response to a credential rejection
// observed elsewhere (e.g. a 401 on an authenticated call).
func (m *Manager) Invalidate() error {
	return m.set(Session{})
}

// Logout clears credential and session synchronously. Safe to call on an
// already absent session.
func (m *Manager) Logout() error {
	return m.set(Session{})
}
