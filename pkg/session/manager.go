// Package session owns the authenticated credential: who is logged in,
// where that fact is durably recorded, and how it is restored on startup.
// The transport and the live channel read the credential through narrow
// snapshot accessors; they never hold their own copy.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fleetdeck/fleetdeck/pkg/client"
	"github.com/fleetdeck/fleetdeck/pkg/domain"
)

// Storage keys within a tier. The remember-me flag always lives in the
// durable tier so rehydration knows which tier holds the credential.
const (
	keyToken    = "auth_token"
	keyProfile  = "user_data"
	keyRemember = "remember_me"
)

// State is the session lifecycle phase.
type State int

const (
	// LoggedOut means no credential is active.
	LoggedOut State = iota
	// Authenticating means a login is in flight.
	Authenticating
	// LoggedIn means a credential is active.
	LoggedIn
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case LoggedIn:
		return "logged_in"
	default:
		return "logged_out"
	}
}

// API is the slice of the transport the manager calls through.
type API interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (*domain.UserProfile, error)
	Me(ctx context.Context) (*domain.UserProfile, error)
}

// ErrNoToken is returned by RefreshFromToken when no token is stored in the
// active tier.
var ErrNoToken = errors.New("no stored token")

// LoginError is returned for any login failure. Its text is generic on
// purpose — credential failures must not reveal which part was wrong — while
// the underlying transport error stays reachable through errors.Unwrap.
type LoginError struct {
	cause error
}

func (e *LoginError) Error() string { return "login failed: check your email and password" }

// Unwrap exposes the underlying transport error to advanced callers.
func (e *LoginError) Unwrap() error { return e.cause }

// Manager is the single source of truth for the active credential.
type Manager struct {
	api       API
	durable   Store
	ephemeral Store
	logger    *zap.Logger

	mu    sync.RWMutex
	state State
	cred  *domain.Credential
}

// NewManager wires the manager to its transport and its two storage tiers.
func NewManager(api API, durable, ephemeral Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{api: api, durable: durable, ephemeral: ephemeral, logger: logger}
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Token returns the active bearer token, or "" when logged out. It
// implements the TokenSource interfaces of the transport and the live
// channel, which read it fresh at the moment of use.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return ""
	}
	return m.cred.Token
}

// CurrentCredential returns a read-only snapshot of the active credential,
// or nil when logged out.
func (m *Manager) CurrentCredential() *domain.Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return nil
	}
	snapshot := *m.cred
	return &snapshot
}

// remembered reports the durable remember-me flag and the tier it selects.
func (m *Manager) remembered() (Store, domain.Persistence) {
	if flag, ok := m.durable.Get(keyRemember); ok && flag == "true" {
		return m.durable, domain.PersistenceDurable
	}
	return m.ephemeral, domain.PersistenceEphemeral
}

// Rehydrate restores the credential from storage on startup. It performs no
// network calls and never fails the caller: anything short of a valid token
// plus a parseable cached profile lands in LoggedOut, and a corrupted
// profile purges that tier's entries before doing so.
func (m *Manager) Rehydrate() {
	tier, persistence := m.remembered()

	token, ok := tier.Get(keyToken)
	if !ok || token == "" {
		m.setLoggedOut()
		return
	}
	raw, ok := tier.Get(keyProfile)
	if !ok {
		m.setLoggedOut()
		return
	}

	var profile domain.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		_ = tier.Delete(keyToken)   //nolint:errcheck
		_ = tier.Delete(keyProfile) //nolint:errcheck
		m.logger.Warn("purged corrupted cached profile", zap.Error(err))
		m.setLoggedOut()
		return
	}

	m.mu.Lock()
	m.cred = &domain.Credential{Token: token, Profile: profile, Persistence: persistence}
	m.state = LoggedIn
	m.mu.Unlock()
	m.logger.Info("session rehydrated", zap.String("tier", string(persistence)))
}

// Login authenticates with the backend, persists the credential into the
// tier selected by remember, and caches the fetched profile. Any failure
// resets to LoggedOut and returns a *LoginError wrapping the cause.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) error {
	m.mu.Lock()
	m.state = Authenticating
	m.cred = nil
	m.mu.Unlock()

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.setLoggedOut()
		return &LoginError{cause: err}
	}

	tier, other := m.ephemeral, m.durable
	persistence := domain.PersistenceEphemeral
	if remember {
		tier, other = m.durable, m.ephemeral
		persistence = domain.PersistenceDurable
	}
	if err := m.durable.Set(keyRemember, boolString(remember)); err != nil {
		m.logger.Warn("could not persist remember flag", zap.Error(err))
	}
	if err := tier.Set(keyToken, resp.Token); err != nil {
		m.setLoggedOut()
		return &LoginError{cause: err}
	}
	// A re-login may switch tiers; drop any stale credential in the other.
	_ = other.Delete(keyToken)   //nolint:errcheck
	_ = other.Delete(keyProfile) //nolint:errcheck

	// Make the token visible to the transport before fetching the profile.
	m.mu.Lock()
	m.cred = &domain.Credential{Token: resp.Token, Persistence: persistence}
	m.mu.Unlock()

	profile, err := m.api.Me(ctx)
	if err != nil {
		m.Logout()
		return &LoginError{cause: err}
	}
	if err := m.cacheProfile(tier, *profile); err != nil {
		m.logger.Warn("could not cache profile", zap.Error(err))
	}

	m.mu.Lock()
	m.cred = &domain.Credential{Token: resp.Token, Profile: *profile, Persistence: persistence}
	m.state = LoggedIn
	m.mu.Unlock()
	m.logger.Info("logged in", zap.String("tier", string(persistence)))
	return nil
}

// Register forwards a registration to the backend. The transport error is
// returned unchanged so callers can render field-level validation messages
// from its Detail. Registration does not log the user in.
func (m *Manager) Register(ctx context.Context, req client.RegisterRequest) (*domain.UserProfile, error) {
	return m.api.Register(ctx, req)
}

// Logout clears both storage tiers unconditionally and resets the state.
// It is idempotent.
func (m *Manager) Logout() {
	for _, tier := range []Store{m.durable, m.ephemeral} {
		_ = tier.Delete(keyToken)   //nolint:errcheck
		_ = tier.Delete(keyProfile) //nolint:errcheck
	}
	m.setLoggedOut()
}

// DepositDurableToken stores an externally obtained token (the SSO handoff)
// in the durable tier and marks the session remembered, without touching the
// in-memory credential. Callers follow up with RefreshFromToken.
func (m *Manager) DepositDurableToken(token string) error {
	if err := m.durable.Set(keyRemember, "true"); err != nil {
		return err
	}
	return m.durable.Set(keyToken, token)
}

// RefreshFromToken re-fetches the profile using a token already present in
// the active tier — typically deposited there by the SSO flow — and
// re-caches it. It fails without touching storage when no token exists.
func (m *Manager) RefreshFromToken(ctx context.Context) error {
	tier, persistence := m.remembered()
	token, ok := tier.Get(keyToken)
	if !ok || token == "" {
		return ErrNoToken
	}

	m.mu.Lock()
	m.state = Authenticating
	m.cred = &domain.Credential{Token: token, Persistence: persistence}
	m.mu.Unlock()

	profile, err := m.api.Me(ctx)
	if err != nil {
		m.setLoggedOut()
		return err
	}
	if err := m.cacheProfile(tier, *profile); err != nil {
		m.logger.Warn("could not cache profile", zap.Error(err))
	}

	m.mu.Lock()
	m.cred = &domain.Credential{Token: token, Profile: *profile, Persistence: persistence}
	m.state = LoggedIn
	m.mu.Unlock()
	return nil
}

func (m *Manager) cacheProfile(tier Store, profile domain.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return tier.Set(keyProfile, string(data))
}

func (m *Manager) setLoggedOut() {
	m.mu.Lock()
	m.cred = nil
	m.state = LoggedOut
	m.mu.Unlock()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
