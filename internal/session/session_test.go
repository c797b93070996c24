package session

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"storefront-client/internal/api"
	"storefront-client/internal/domain"
	"storefront-client/internal/store"
)

type stubAuthAPI struct {
	loginResp    api.LoginResponse
	loginErr     error
	registerResp api.RegisterResponse
	registerErr  error
	logoutErr    error
	logoutCalls  int
}

func (s *stubAuthAPI) Login(_ context.Context, _ api.LoginRequest) (api.LoginResponse, error) {
	return s.loginResp, s.loginErr
}

func (s *stubAuthAPI) Register(_ context.Context, _ api.RegisterRequest) (api.RegisterResponse, error) {
	return s.registerResp, s.registerErr
}

func (s *stubAuthAPI) Logout(_ context.Context) error {
	s.logoutCalls++
	return s.logoutErr
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newManager(apiStub *stubAuthAPI, st store.Store) *Manager {
	return New(apiStub, st, NewTokenCache(), logDiscard())
}

func TestLoginPersistsTokenAndUser(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := domain.User{ID: 9, Username: "ana", Roles: []domain.Role{{ID: 1, Name: "USER"}}}
	m := newManager(&stubAuthAPI{loginResp: api.LoginResponse{Token: "tok-123", User: user}}, st)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var published []*domain.User
	cancel := m.Subscribe(func(u *domain.User) { published = append(published, u) })
	defer cancel()

	got, err := m.Login(ctx, api.LoginRequest{Username: "ana", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != 9 {
		t.Fatalf("user = %+v", got)
	}
	if m.Token() != "tok-123" || !m.IsLoggedIn() {
		t.Fatalf("token not cached: %q", m.Token())
	}
	if data, err := st.Load(ctx, store.KeyToken); err != nil || string(data) != "tok-123" {
		t.Fatalf("stored token = %q, %v", data, err)
	}
	if _, err := st.Load(ctx, store.KeyUser); err != nil {
		t.Fatalf("stored user: %v", err)
	}
	if len(published) != 1 || published[0] == nil || published[0].ID != 9 {
		t.Fatalf("published = %+v", published)
	}

	// A fresh manager over the same store restores the session.
	m2 := newManager(&stubAuthAPI{}, st)
	if err := m2.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m2.Token() != "tok-123" {
		t.Fatalf("restored token = %q", m2.Token())
	}
	u, ok := m2.CurrentUser()
	if !ok || u.Username != "ana" {
		t.Fatalf("restored user = %+v, %v", u, ok)
	}
	if !m2.HasRole("USER") || m2.IsAdmin() {
		t.Fatal("role checks wrong after restore")
	}
}

func TestLoginFailureLeavesGuestSession(t *testing.T) {
	ctx := context.Background()
	m := newManager(&stubAuthAPI{loginErr: errors.New("bad credentials")}, store.NewMemory())
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.Login(ctx, api.LoginRequest{Username: "x", Password: "y"}); err == nil {
		t.Fatal("expected login error")
	}
	if m.IsLoggedIn() {
		t.Fatal("session authenticated after failed login")
	}
}

func TestRegisterWithoutTokenStaysGuest(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	m := newManager(&stubAuthAPI{registerResp: api.RegisterResponse{Message: "check your email", User: domain.User{ID: 4}}}, st)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.Register(ctx, api.RegisterRequest{Username: "bo"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if m.IsLoggedIn() {
		t.Fatal("registered without token but session is authenticated")
	}
	if _, err := st.Load(ctx, store.KeyToken); !errors.Is(err, store.ErrNoValue) {
		t.Fatalf("token persisted without auto-login: %v", err)
	}
}

func TestLogoutClearsState(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	apiStub := &stubAuthAPI{loginResp: api.LoginResponse{Token: "tok", User: domain.User{ID: 1}}}
	m := newManager(apiStub, st)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.Login(ctx, api.LoginRequest{}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	var published []*domain.User
	cancel := m.Subscribe(func(u *domain.User) { published = append(published, u) })
	defer cancel()

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if apiStub.logoutCalls != 1 {
		t.Fatalf("logoutCalls = %d", apiStub.logoutCalls)
	}
	if m.IsLoggedIn() {
		t.Fatal("still logged in")
	}
	if _, err := st.Load(ctx, store.KeyToken); !errors.Is(err, store.ErrNoValue) {
		t.Fatalf("token not cleared: %v", err)
	}
	if len(published) != 1 || published[0] != nil {
		t.Fatalf("published = %+v, want one nil", published)
	}
}

func TestLogoutServerFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	apiStub := &stubAuthAPI{
		loginResp: api.LoginResponse{Token: "tok", User: domain.User{ID: 1}},
		logoutErr: errors.New("backend down"),
	}
	m := newManager(apiStub, store.NewMemory())
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.Login(ctx, api.LoginRequest{}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := m.Logout(ctx); err == nil {
		t.Fatal("expected logout error")
	}
	if !m.IsLoggedIn() {
		t.Fatal("session dropped despite server failure")
	}

	// Local logout works regardless of the backend.
	m.LogoutLocal(ctx)
	if m.IsLoggedIn() {
		t.Fatal("LogoutLocal did not clear the session")
	}
}

func TestLoadDiscardsMalformedStoredUser(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	if err := st.Save(ctx, store.KeyToken, []byte("tok")); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := st.Save(ctx, store.KeyUser, []byte("undefined")); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	m := newManager(&stubAuthAPI{}, st)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.IsLoggedIn() {
		t.Fatal("malformed stored user should mean logged out")
	}
	if _, ok := m.CurrentUser(); ok {
		t.Fatal("CurrentUser should be absent")
	}
}
