// Package session manages the authenticated user: login, registration,
// logout, and the persisted token/user pair that flips the cart manager
// into remote mode.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"storefront-client/internal/api"
	"storefront-client/internal/domain"
	"storefront-client/internal/store"
)

// ErrNotAuthenticated indicates an operation that needs a signed-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

type authAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.RegisterResponse, error)
	Logout(ctx context.Context) error
}

// TokenCache holds the current auth token in memory. It exists so the API
// client and the session manager can share one credential without a
// construction cycle: build the cache, then the client on top of it, then
// the manager on top of both.
type TokenCache struct {
	mu    sync.RWMutex
	token string
}

func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Token implements api.TokenSource.
func (c *TokenCache) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *TokenCache) set(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Subscriber receives the current user on every auth change; nil means
// logged out.
type Subscriber func(*domain.User)

type subscription struct {
	id int
	fn Subscriber
}

type Manager struct {
	api    authAPI
	store  store.Store
	tokens *TokenCache
	logger *log.Logger

	mu   sync.RWMutex
	user *domain.User

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

func New(apiClient authAPI, st store.Store, tokens *TokenCache, logger *log.Logger) *Manager {
	return &Manager{
		api:    apiClient,
		store:  st,
		tokens: tokens,
		logger: logger,
	}
}

// Load rehydrates token and user from the store. A malformed stored user
// means logged out, not an error.
func (m *Manager) Load(ctx context.Context) error {
	token := ""
	if data, err := m.store.Load(ctx, store.KeyToken); err == nil {
		token = string(data)
	} else if !errors.Is(err, store.ErrNoValue) {
		return fmt.Errorf("load token: %w", err)
	}

	var user *domain.User
	if data, err := m.store.Load(ctx, store.KeyUser); err == nil {
		var u domain.User
		if jsonErr := json.Unmarshal(data, &u); jsonErr != nil {
			m.logger.Printf("discard malformed stored user: %v", jsonErr)
			token = ""
			m.clearStored(ctx)
		} else {
			user = &u
		}
	} else if !errors.Is(err, store.ErrNoValue) {
		return fmt.Errorf("load user: %w", err)
	}

	m.tokens.set(token)
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	return nil
}

// Login authenticates and persists the credential. The caller is expected
// to run the guest-cart migration immediately afterwards, before any other
// remote cart mutation.
func (m *Manager) Login(ctx context.Context, req api.LoginRequest) (domain.User, error) {
	resp, err := m.api.Login(ctx, req)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	if err := m.persist(ctx, resp.Token, resp.User); err != nil {
		return domain.User{}, err
	}
	m.setUser(resp.Token, &resp.User)
	return resp.User, nil
}

// Register creates an account. When the backend auto-logs-in (returns a
// token), the session behaves as after Login.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) (domain.User, error) {
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	if resp.Token != "" {
		if err := m.persist(ctx, resp.Token, resp.User); err != nil {
			return domain.User{}, err
		}
		m.setUser(resp.Token, &resp.User)
	}
	return resp.User, nil
}

// Logout notifies the server, then clears local state. Server failures keep
// the session; use LogoutLocal when the backend is unreachable.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.api.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	m.clearStored(ctx)
	m.setUser("", nil)
	return nil
}

// LogoutLocal drops the session without a server round trip.
func (m *Manager) LogoutLocal(ctx context.Context) {
	m.clearStored(ctx)
	m.setUser("", nil)
}

// Token implements api.TokenSource for anything holding the manager.
func (m *Manager) Token() string {
	return m.tokens.Token()
}

func (m *Manager) IsLoggedIn() bool {
	return m.tokens.Token() != ""
}

// CurrentUser returns the signed-in user, if any.
func (m *Manager) CurrentUser() (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return domain.User{}, false
	}
	return *m.user, true
}

func (m *Manager) HasRole(role string) bool {
	u, ok := m.CurrentUser()
	return ok && u.HasRole(role)
}

func (m *Manager) IsAdmin() bool {
	return m.HasRole("ADMIN")
}

// Subscribe registers fn for auth changes and returns a cancel function.
func (m *Manager) Subscribe(fn Subscriber) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscription{id: id, fn: fn})
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) persist(ctx context.Context, token string, user domain.User) error {
	if err := m.store.Save(ctx, store.KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := m.store.Save(ctx, store.KeyUser, data); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func (m *Manager) clearStored(ctx context.Context) {
	if err := m.store.Clear(ctx, store.KeyToken); err != nil {
		m.logger.Printf("clear token: %v", err)
	}
	if err := m.store.Clear(ctx, store.KeyUser); err != nil {
		m.logger.Printf("clear user: %v", err)
	}
}

func (m *Manager) setUser(token string, user *domain.User) {
	m.tokens.set(token)
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	m.subMu.Lock()
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()
	for _, s := range subs {
		s.fn(user)
	}
}
