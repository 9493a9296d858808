// Package session owns the signed-in user: the bearer credential, the
// profile fetched for it, and the copy of both kept in persisted storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"njoj_client/internal/api/client"
	"njoj_client/internal/app/state"
	"njoj_client/internal/common"
	"njoj_client/internal/common/security"
	"njoj_client/internal/domain/model"
	"njoj_client/internal/platform/storage"
	"njoj_client/internal/router"
)

// Navigator is the part of the router the session drives.
type Navigator interface {
	RequiresAuth() bool
	Push(path string)
}

type Manager struct {
	api   *client.Client
	store storage.Store
	root  *state.Root
	nav   Navigator
	log   *slog.Logger
	now   func() time.Time

	mu    sync.RWMutex
	token string
	user  *model.User
}

// NewManager wires the session into api: every request is signed with the
// current credential and every 401 ends the session.
func NewManager(api *client.Client, store storage.Store, root *state.Root, nav Navigator) *Manager {
	m := &Manager{
		api:   api,
		store: store,
		root:  root,
		nav:   nav,
		log:   slog.Default().With("component", "session"),
		now:   time.Now,
	}
	api.SetTokenSource(m.Token)
	api.OnUnauthenticated(m.handleUnauthenticated)
	return m
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// CurrentUser returns a copy of the profile, nil when logged out.
func (m *Manager) CurrentUser() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) IsLoggedIn() bool {
	return m.Token() != ""
}

func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user.IsAdmin()
}

// ExpiresAt is the credential's exp claim. The zero time means logged out,
// an opaque token, or a token without exp.
func (m *Manager) ExpiresAt() time.Time {
	info, err := security.InspectToken(m.Token())
	if err != nil {
		return time.Time{}
	}
	return info.ExpiresAt
}

func (m *Manager) Login(ctx context.Context, creds model.LoginCredentials) error {
	defer m.root.Begin()()
	ctx = withoutReaction(ctx)

	var tok model.TokenResponse
	form := url.Values{"username": {creds.Username}, "password": {creds.Password}}
	if err := m.api.PostForm(ctx, "/auth/login", form, &tok); err != nil {
		m.log.Info("login failed", "username", creds.Username, "error", err)
		m.root.SetError(common.Message(err, "Login failed"))
		return err
	}
	if err := m.establish(ctx, tok); err != nil {
		m.log.Info("login failed", "username", creds.Username, "error", err)
		m.root.SetError(common.Message(err, "Login failed"))
		return err
	}
	m.log.Info("logged in", "username", creds.Username)
	return nil
}

func (m *Manager) Signup(ctx context.Context, data model.SignupRequest) error {
	defer m.root.Begin()()
	ctx = withoutReaction(ctx)

	var tok model.TokenResponse
	err := m.api.Post(ctx, "/auth/signup", data, &tok)
	if err == nil {
		err = m.establish(ctx, tok)
	}
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) {
			m.log.Warn("signup failed", "username", data.Username, "status", apiErr.Status, "detail", apiErr.Detail)
		} else {
			m.log.Warn("signup failed", "username", data.Username, "error", err)
		}
		m.root.SetError(common.Message(err, "Signup failed"))
		return err
	}
	m.log.Info("signed up", "username", data.Username)
	return nil
}

// establish fetches the profile for a freshly issued token, then persists
// and adopts both. Nothing changes unless every step succeeds.
func (m *Manager) establish(ctx context.Context, tok model.TokenResponse) error {
	if tok.AccessToken == "" {
		return fmt.Errorf("%w: no access token in response", common.ErrUnexpected)
	}
	var user model.User
	if err := m.api.Get(ctx, "/users/me", nil, &user, client.WithBearer(tok.AccessToken)); err != nil {
		return err
	}
	if err := m.persist(ctx, tok.AccessToken, &user); err != nil {
		return err
	}
	m.mu.Lock()
	m.token = tok.AccessToken
	m.user = &user
	m.mu.Unlock()
	return nil
}

func (m *Manager) persist(ctx context.Context, token string, user *model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if token != "" {
		if err := m.store.Set(ctx, storage.KeyToken, token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
	}
	if err := m.store.Set(ctx, storage.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

// Logout always succeeds locally. The visitor is sent to the login page
// only when the current route needs a session.
func (m *Manager) Logout(ctx context.Context) {
	m.clear(ctx)
	if m.nav.RequiresAuth() {
		m.nav.Push(router.LoginPath)
	}
}

func (m *Manager) UpdateProfile(ctx context.Context, data model.UserUpdate) error {
	defer m.root.Begin()()

	var user model.User
	err := m.api.Put(ctx, "/users/me", data, &user)
	if err == nil {
		err = m.persist(ctx, "", &user)
	}
	if err != nil {
		m.root.SetError(common.Message(err, "Failed to update profile"))
		return err
	}
	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	return nil
}

// InitAuth restores a session saved by an earlier process. It needs both
// entries; a JWT past its exp is discarded along with the stored copy.
func (m *Manager) InitAuth(ctx context.Context) error {
	token, okToken, err := m.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	rawUser, okUser, err := m.store.Get(ctx, storage.KeyUser)
	if err != nil {
		return fmt.Errorf("read user: %w", err)
	}
	if !okToken || !okUser || token == "" {
		return nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.log.Warn("discarding unreadable stored user", "error", err)
		return nil
	}
	if info, err := security.InspectToken(token); err == nil && info.Expired(m.now()) {
		m.log.Info("stored token expired", "expired_at", info.ExpiresAt)
		return m.store.Remove(ctx, storage.KeyToken, storage.KeyUser)
	}

	m.mu.Lock()
	m.token = token
	m.user = &user
	m.mu.Unlock()
	return nil
}

func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
	if err := m.store.Remove(ctx, storage.KeyToken, storage.KeyUser); err != nil {
		m.log.Error("failed to clear stored session", "error", err)
	}
}

// handleUnauthenticated ends the session after any 401 except those
// answering a login or signup attempt, which leave the session untouched.
func (m *Manager) handleUnauthenticated(ctx context.Context, err *common.APIError) {
	if suppressed(ctx) {
		return
	}
	m.log.Info("credential rejected, ending session", "detail", err.Detail)
	m.clear(context.WithoutCancel(ctx))
	m.nav.Push(router.LoginPath)
}

type reactionKey struct{}

func withoutReaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, reactionKey{}, true)
}

func suppressed(ctx context.Context) bool {
	v, _ := ctx.Value(reactionKey{}).(bool)
	return v
}
