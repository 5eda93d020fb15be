// Package services contains the application services of the blogkeeper
// client: the session manager that owns authentication state, and the post
// service built on top of it.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/cache"
	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/dmitrijs2005/blogkeeper/internal/cryptox"
	"github.com/dmitrijs2005/blogkeeper/internal/logging"
)

// SessionOptions tunes a SessionManager. Zero values fall back to defaults.
type SessionOptions struct {
	TTL                    time.Duration
	Platform               string
	RevokeOnPasswordChange bool
	Metrics                *Metrics
	Now                    func() time.Time
}

// SessionState is the in-memory view handed to the presentation layer.
type SessionState struct {
	User    *models.Profile
	Token   string
	Loading bool
}

func (s SessionState) Authenticated() bool {
	return s.User != nil && s.Token != ""
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Gender   *string
	Age      *int
	Role     models.Role
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      *models.Profile
	Token     string
	ExpiresAt time.Time
}

// SessionManager turns credentials into sessions and owns the current
// user/token of this device. Callers serialize Register, Login and Logout;
// state reads are safe from any goroutine.
type SessionManager struct {
	users    users.Repository
	sessions sessions.Repository
	cache    cache.SessionCache
	hasher   cryptox.Hasher
	tokens   cryptox.TokenGenerator
	opts     SessionOptions
	log      logging.Logger

	mu    sync.RWMutex
	state SessionState
}

func NewSessionManager(
	users users.Repository,
	sessions sessions.Repository,
	cache cache.SessionCache,
	hasher cryptox.Hasher,
	tokens cryptox.TokenGenerator,
	opts SessionOptions,
	log logging.Logger,
) *SessionManager {
	if opts.TTL <= 0 {
		opts.TTL = common.DefaultSessionTTL
	}
	if opts.Platform == "" {
		opts.Platform = "cli"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionManager{
		users:    users,
		sessions: sessions,
		cache:    cache,
		hasher:   hasher,
		tokens:   tokens,
		opts:     opts,
		log:      log.With("module", "session"),
	}
}

func (m *SessionManager) now() time.Time {
	return m.opts.Now().UTC()
}

// State returns a copy of the current session state.
func (m *SessionManager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Authenticated()
}

func (m *SessionManager) setState(user *models.Profile, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.User = user
	m.state.Token = token
}

func (m *SessionManager) setLoading(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Loading = v
}

// current returns the signed-in user and token, or ErrNotAuthenticated.
func (m *SessionManager) current() (*models.Profile, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.state.Authenticated() {
		return nil, "", common.ErrNotAuthenticated
	}
	u := *m.state.User
	return &u, m.state.Token, nil
}

// Register creates an account and signs it in. If signing in fails the new
// user row is removed again, so a failed registration can be retried with
// the same email.
func (m *SessionManager) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Email == "" || in.Password == "" || in.FullName == "" {
		m.opts.Metrics.register(OutcomeError)
		return nil, fmt.Errorf("%w: full name, email and password are required", common.ErrValidation)
	}
	if in.Age != nil && *in.Age < 0 {
		m.opts.Metrics.register(OutcomeError)
		return nil, fmt.Errorf("%w: age must not be negative", common.ErrValidation)
	}
	if in.Role == "" {
		in.Role = models.RoleEditor
	}

	_, err := m.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		m.opts.Metrics.register(OutcomeDuplicateEmail)
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		m.opts.Metrics.register(OutcomeError)
		return nil, fmt.Errorf("%w: lookup email: %w", common.ErrStoreRead, err)
	}

	now := m.now()
	user, err := m.users.Create(ctx, &models.User{
		Email:          in.Email,
		PasswordDigest: m.hasher.Hash(in.Password),
		FullName:       in.FullName,
		Gender:         in.Gender,
		Age:            in.Age,
		Role:           in.Role,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			m.opts.Metrics.register(OutcomeDuplicateEmail)
			return nil, common.ErrDuplicateEmail
		}
		m.opts.Metrics.register(OutcomeError)
		return nil, fmt.Errorf("%w: create user: %w", common.ErrStoreWrite, err)
	}

	res, err := m.Login(ctx, in.Email, in.Password)
	if err != nil {
		m.opts.Metrics.register(OutcomeError)
		if derr := m.users.Delete(ctx, user.ID); derr != nil {
			m.log.Error(ctx, "failed to remove user after unsuccessful registration", "user_id", user.ID, "error", derr)
		}
		return nil, err
	}

	m.opts.Metrics.register(OutcomeSuccess)
	m.log.Info(ctx, "user registered", "user_id", user.ID)
	return res, nil
}

// Login verifies the credentials and starts a new session. Unknown email
// and wrong password are both reported as ErrInvalidCredentials.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	digest := m.hasher.Hash(password)

	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			m.opts.Metrics.login(OutcomeInvalidCredentials)
			return nil, common.ErrInvalidCredentials
		}
		m.opts.Metrics.login(OutcomeError)
		return nil, fmt.Errorf("%w: lookup user: %w", common.ErrStoreRead, err)
	}

	if !cryptox.DigestsEqual(user.PasswordDigest, digest) {
		m.opts.Metrics.login(OutcomeInvalidCredentials)
		return nil, common.ErrInvalidCredentials
	}

	token, err := m.tokens.Generate()
	if err != nil {
		m.opts.Metrics.login(OutcomeError)
		return nil, err
	}

	now := m.now()
	session := &models.Session{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiredAt: now.Add(m.opts.TTL),
		Device:    models.DeviceInfo{Platform: m.opts.Platform, Timestamp: now},
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		m.opts.Metrics.login(OutcomeError)
		return nil, fmt.Errorf("%w: create session: %w", common.ErrStoreWrite, err)
	}

	profile := user.Strip()
	if err := m.cache.Save(ctx, &models.Snapshot{Token: token, User: profile}); err != nil {
		// A session the device cannot remember must not stay valid remotely.
		if lerr := m.sessions.MarkLoggedOut(ctx, token, now); lerr != nil {
			m.log.Warn(ctx, "failed to stamp orphaned session", "token", common.TokenPrefix(token), "error", lerr)
		}
		m.opts.Metrics.login(OutcomeError)
		return nil, err
	}

	m.setState(profile, token)
	m.opts.Metrics.login(OutcomeSuccess)
	m.log.Info(ctx, "user logged in", "user_id", user.ID, "token", common.TokenPrefix(token))

	u := *profile
	return &AuthResult{User: &u, Token: token, ExpiresAt: session.ExpiredAt}, nil
}

// Logout ends the current session. The remote stamp is best effort: its
// failure is logged and the device is signed out regardless. Only a failure
// to clear the local cache is returned.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.RLock()
	token := m.state.Token
	m.mu.RUnlock()

	outcome := OutcomeSuccess
	if token != "" {
		if err := m.sessions.MarkLoggedOut(ctx, token, m.now()); err != nil {
			outcome = OutcomeRemoteError
			m.log.Warn(ctx, "remote logout failed, signing out locally", "token", common.TokenPrefix(token), "error", err)
		}
	}

	m.setState(nil, "")
	m.opts.Metrics.logout(outcome)

	if err := m.cache.Clear(ctx); err != nil {
		return err
	}
	m.log.Info(ctx, "logged out")
	return nil
}

// Restore runs at startup. A cached snapshot is only trusted after the
// session store confirms its token is still active; otherwise the cache is
// dropped. It never fails: every problem ends in "not authenticated".
func (m *SessionManager) Restore(ctx context.Context) bool {
	m.setLoading(true)
	defer m.setLoading(false)

	snap, err := m.cache.Load(ctx)
	if err != nil {
		if errors.Is(err, cache.ErrCorruptSnapshot) {
			m.log.Warn(ctx, "dropping unreadable session snapshot", "error", err)
			m.clearCache(ctx)
			m.opts.Metrics.restore(OutcomeInvalid)
			return false
		}
		m.log.Warn(ctx, "failed to read session snapshot", "error", err)
		m.opts.Metrics.restore(OutcomeError)
		return false
	}
	if snap == nil {
		m.opts.Metrics.restore(OutcomeNoSnapshot)
		return false
	}

	session, err := m.sessions.FindActive(ctx, snap.Token, m.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			m.log.Info(ctx, "cached session expired or revoked", "token", common.TokenPrefix(snap.Token))
			m.clearCache(ctx)
			m.opts.Metrics.restore(OutcomeInvalid)
			return false
		}
		m.log.Warn(ctx, "failed to validate cached session", "token", common.TokenPrefix(snap.Token), "error", err)
		m.opts.Metrics.restore(OutcomeError)
		return false
	}

	if session.UserID != snap.User.ID {
		m.log.Warn(ctx, "cached session belongs to another user", "token", common.TokenPrefix(snap.Token))
		m.clearCache(ctx)
		m.opts.Metrics.restore(OutcomeInvalid)
		return false
	}

	m.setState(snap.User, snap.Token)
	m.opts.Metrics.restore(OutcomeSuccess)
	m.log.Info(ctx, "session restored", "user_id", snap.User.ID, "token", common.TokenPrefix(snap.Token))
	return true
}

func (m *SessionManager) clearCache(ctx context.Context) {
	if err := m.cache.Clear(ctx); err != nil {
		m.log.Warn(ctx, "failed to clear session snapshot", "error", err)
	}
}

// Validate re-checks the current token against the session store and
// returns the signed-in user. A token that is no longer active signs the
// device out and yields ErrSessionExpiredOrRevoked.
func (m *SessionManager) Validate(ctx context.Context) (*models.Profile, error) {
	user, token, err := m.current()
	if err != nil {
		return nil, err
	}

	if _, err := m.sessions.FindActive(ctx, token, m.now()); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			m.log.Info(ctx, "session no longer active", "token", common.TokenPrefix(token))
			m.setState(nil, "")
			m.clearCache(ctx)
			return nil, common.ErrSessionExpiredOrRevoked
		}
		return nil, fmt.Errorf("%w: validate session: %w", common.ErrStoreRead, err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the signed-in user.
func (m *SessionManager) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error) {
	user, _, err := m.current()
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return user, nil
	}
	if upd.FullName != nil && strings.TrimSpace(*upd.FullName) == "" {
		return nil, fmt.Errorf("%w: full name must not be empty", common.ErrValidation)
	}
	if upd.Age != nil && *upd.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", common.ErrValidation)
	}

	updated, err := m.users.UpdateProfile(ctx, user.ID, upd, m.now())
	if err != nil {
		return nil, fmt.Errorf("%w: update profile: %w", common.ErrStoreWrite, err)
	}

	profile := updated.Strip()

	m.mu.Lock()
	if m.state.User != nil && m.state.User.ID == profile.ID {
		m.state.User = profile
	}
	m.mu.Unlock()

	if err := m.cache.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	m.log.Info(ctx, "profile updated", "user_id", profile.ID)
	u := *profile
	return &u, nil
}

// ChangePassword replaces the password of the signed-in user after checking
// the old one. Other sessions stay valid unless RevokeOnPasswordChange is set.
// If the password was stored but revoking fails, ErrSessionsNotRevoked is
// returned and the new password is in effect.
func (m *SessionManager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	user, token, err := m.current()
	if err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password must not be empty", common.ErrValidation)
	}

	stored, err := m.users.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNotAuthenticated
		}
		return fmt.Errorf("%w: lookup user: %w", common.ErrStoreRead, err)
	}

	if !cryptox.DigestsEqual(stored.PasswordDigest, m.hasher.Hash(oldPassword)) {
		return common.ErrInvalidCredentials
	}

	now := m.now()
	if err := m.users.UpdatePassword(ctx, user.ID, m.hasher.Hash(newPassword), now); err != nil {
		return fmt.Errorf("%w: update password: %w", common.ErrStoreWrite, err)
	}
	m.log.Info(ctx, "password changed", "user_id", user.ID)

	if !m.opts.RevokeOnPasswordChange {
		return nil
	}

	n, err := m.sessions.RevokeAllByUser(ctx, user.ID, token, now)
	if err != nil {
		m.log.Warn(ctx, "password changed but other sessions were not revoked", "user_id", user.ID, "revoked", n, "error", err)
		return fmt.Errorf("%w: %w", common.ErrSessionsNotRevoked, err)
	}
	m.log.Info(ctx, "other sessions revoked", "user_id", user.ID, "count", n)
	return nil
}

// ActiveSessions lists the valid sessions of the signed-in user across all
// devices, newest first.
func (m *SessionManager) ActiveSessions(ctx context.Context) ([]*models.Session, error) {
	user, _, err := m.current()
	if err != nil {
		return nil, err
	}

	list, err := m.sessions.ListActiveByUser(ctx, user.ID, m.now())
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %w", common.ErrStoreRead, err)
	}
	return list, nil
}
