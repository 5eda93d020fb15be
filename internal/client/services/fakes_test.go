package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/cache"
	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/dmitrijs2005/blogkeeper/internal/cryptox"
	"github.com/dmitrijs2005/blogkeeper/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// ---- clock ----

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// ---- users ----

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	nextID int

	GetByEmailErr     error
	CreateErr         error
	UpdateProfileErr  error
	UpdatePasswordErr error
	DeleteErr         error

	Deleted  []string
	onDelete func(id string)
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (r *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.nextID++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", r.nextID)
	r.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GetByEmailErr != nil {
		return nil, r.GetByEmailErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateProfileErr != nil {
		return nil, r.UpdateProfileErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Gender != nil {
		u.Gender = upd.Gender
	}
	if upd.Age != nil {
		u.Age = upd.Age
	}
	u.UpdatedAt = now
	cp := *u
	return &cp, nil
}

func (r *memUsers) UpdatePassword(ctx context.Context, id string, digest string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdatePasswordErr != nil {
		return r.UpdatePasswordErr
	}
	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordDigest = digest
	u.UpdatedAt = now
	return nil
}

func (r *memUsers) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if r.DeleteErr != nil {
		r.mu.Unlock()
		return r.DeleteErr
	}
	delete(r.byID, id)
	r.Deleted = append(r.Deleted, id)
	onDelete := r.onDelete
	r.mu.Unlock()

	if onDelete != nil {
		onDelete(id)
	}
	return nil
}

// ---- sessions ----

type memSessions struct {
	mu      sync.Mutex
	byToken map[string]*models.Session

	CreateErr error
	FindErr   error
	MarkErr   error
	ListErr   error
	RevokeErr error

	FindCalls int
	onFind    func()
}

func newMemSessions() *memSessions {
	return &memSessions{byToken: map[string]*models.Session{}}
}

func (r *memSessions) Create(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if _, ok := r.byToken[s.Token]; ok {
		return common.ErrorAlreadyExists
	}
	cp := *s
	r.byToken[s.Token] = &cp
	return nil
}

func (r *memSessions) FindActive(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	if r.onFind != nil {
		r.onFind()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	s, ok := r.byToken[token]
	if !ok || !s.IsValid(now) {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSessions) MarkLoggedOut(ctx context.Context, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.MarkErr != nil {
		return r.MarkErr
	}
	if s, ok := r.byToken[token]; ok && s.LogoutTime == nil {
		t := at
		s.LogoutTime = &t
	}
	return nil
}

func (r *memSessions) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var out []*models.Session
	for _, s := range r.byToken {
		if s.UserID == userID && s.IsValid(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memSessions) RevokeAllByUser(ctx context.Context, userID string, exceptToken string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RevokeErr != nil {
		return 0, r.RevokeErr
	}
	var n int64
	for token, s := range r.byToken {
		if s.UserID == userID && token != exceptToken && s.LogoutTime == nil {
			t := at
			s.LogoutTime = &t
			n++
		}
	}
	return n, nil
}

func (r *memSessions) deleteByUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, s := range r.byToken {
		if s.UserID == userID {
			delete(r.byToken, token)
		}
	}
}

func (r *memSessions) get(token string) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byToken[token]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (r *memSessions) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}

// ---- cache with failure injection ----

type faultyCache struct {
	cache.SessionCache
	SaveErr   error
	ClearErr  error
	LoadErr   error
	UpdateErr error
}

func (c *faultyCache) Load(ctx context.Context) (*models.Snapshot, error) {
	if c.LoadErr != nil {
		return nil, c.LoadErr
	}
	return c.SessionCache.Load(ctx)
}

func (c *faultyCache) Save(ctx context.Context, s *models.Snapshot) error {
	if c.SaveErr != nil {
		return c.SaveErr
	}
	return c.SessionCache.Save(ctx, s)
}

func (c *faultyCache) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if c.UpdateErr != nil {
		return c.UpdateErr
	}
	return c.SessionCache.UpdateProfile(ctx, p)
}

func (c *faultyCache) Clear(ctx context.Context) error {
	if c.ClearErr != nil {
		return c.ClearErr
	}
	return c.SessionCache.Clear(ctx)
}

// ---- token generator ----

type failingTokens struct{}

func (failingTokens) Generate() (string, error) {
	return "", errors.New("entropy exhausted")
}

// ---- harness ----

// harness stands in for one device: the remote stores outlive managers,
// and so does the sqlite file, so building a second manager simulates an
// application restart.
type harness struct {
	users    *memUsers
	sessions *memSessions
	db       *sql.DB
	cache    cache.SessionCache
	clock    *testClock
	reg      *prometheus.Registry
	metrics  *Metrics
	tokens   cryptox.TokenGenerator
}

func setupLocalDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		users:    newMemUsers(),
		sessions: newMemSessions(),
		db:       setupLocalDB(t),
		clock:    &testClock{t: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)},
		reg:      prometheus.NewRegistry(),
		tokens:   cryptox.RandomTokenGenerator{},
	}
	h.users.onDelete = h.sessions.deleteByUser
	h.cache = cache.NewLocalSessionCache(h.db)
	h.metrics = NewMetrics(h.reg)
	return h
}

func (h *harness) manager(opts ...func(*SessionOptions)) *SessionManager {
	o := SessionOptions{
		Platform: "test",
		Metrics:  h.metrics,
		Now:      h.clock.Now,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return NewSessionManager(h.users, h.sessions, h.cache, cryptox.SHA256Hasher{}, h.tokens, o, logging.Discard())
}

func (h *harness) snapshot(t *testing.T) *models.Snapshot {
	t.Helper()
	snap, err := cache.NewLocalSessionCache(h.db).Load(context.Background())
	require.NoError(t, err)
	return snap
}

func aliceInput() RegisterInput {
	return RegisterInput{FullName: "Alice", Email: "a@x.com", Password: "secret1"}
}
