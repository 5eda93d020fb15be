package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/client/services"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/dmitrijs2005/blogkeeper/internal/logging"
)

var created = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

type fakeSession struct {
	user  *models.Profile
	token string

	regIn    services.RegisterInput
	regErr   error
	loginErr error

	loginEmail, loginPassword string

	logoutCalls int
	logoutErr   error

	restoreOK bool

	validateErr error

	updIn  models.ProfileUpdate
	updErr error

	oldPw, newPw string
	passwdErr    error

	sessions    []*models.Session
	sessionsErr error
}

func (f *fakeSession) State() services.SessionState {
	return services.SessionState{User: f.user, Token: f.token}
}

func (f *fakeSession) IsAuthenticated() bool { return f.user != nil && f.token != "" }

func (f *fakeSession) signIn(email string) *services.AuthResult {
	f.user = &models.Profile{ID: "user-1", Email: email, FullName: "Alice", Role: models.RoleEditor, CreatedAt: created}
	f.token = strings.Repeat("ab", 32)
	return &services.AuthResult{User: f.user, Token: f.token, ExpiresAt: created.Add(24 * time.Hour)}
}

func (f *fakeSession) Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	f.regIn = in
	if f.regErr != nil {
		return nil, f.regErr
	}
	res := f.signIn(in.Email)
	res.User.FullName = in.FullName
	return res, nil
}

func (f *fakeSession) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	f.loginEmail, f.loginPassword = email, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.signIn(email), nil
}

func (f *fakeSession) Logout(ctx context.Context) error {
	f.logoutCalls++
	f.user, f.token = nil, ""
	return f.logoutErr
}

func (f *fakeSession) Restore(ctx context.Context) bool {
	if f.restoreOK {
		f.signIn("a@x.com")
	}
	return f.restoreOK
}

func (f *fakeSession) Validate(ctx context.Context) (*models.Profile, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	if !f.IsAuthenticated() {
		return nil, common.ErrNotAuthenticated
	}
	return f.user, nil
}

func (f *fakeSession) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error) {
	f.updIn = upd
	if f.updErr != nil {
		return nil, f.updErr
	}
	upd.Apply(f.user)
	return f.user, nil
}

func (f *fakeSession) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	f.oldPw, f.newPw = oldPassword, newPassword
	return f.passwdErr
}

func (f *fakeSession) ActiveSessions(ctx context.Context) ([]*models.Session, error) {
	return f.sessions, f.sessionsErr
}

type fakePosts struct {
	byID map[string]*models.Post

	listLimit int
	listErr   error

	createIn models.PostInput
	updateID string
	updateIn models.PostInput
	deleted  []string

	imageURL string
	imageErr error
}

func newFakePosts(posts ...*models.Post) *fakePosts {
	f := &fakePosts{byID: map[string]*models.Post{}}
	for _, p := range posts {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakePosts) List(ctx context.Context, limit int) ([]*models.Post, error) {
	f.listLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Post
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePosts) Mine(ctx context.Context) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range f.byID {
		if p.UserID == "user-1" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePosts) Get(ctx context.Context, id string) (*models.Post, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakePosts) Create(ctx context.Context, in models.PostInput) (*models.Post, error) {
	f.createIn = in
	p := &models.Post{ID: "post-new", UserID: "user-1", Title: in.Title, Body: in.Body, CreatedAt: created}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakePosts) Update(ctx context.Context, id string, in models.PostInput) (*models.Post, error) {
	f.updateID, f.updateIn = id, in
	return f.byID[id], nil
}

func (f *fakePosts) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

func (f *fakePosts) ImageURL(ctx context.Context, p *models.Post) (string, error) {
	if p.ImageKey == "" {
		return "", nil
	}
	return f.imageURL, f.imageErr
}

type fakeSummarizer struct {
	text    string
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string, sentences int) (string, error) {
	f.text = text
	return f.summary, f.err
}

func newTestApp(s *fakeSession, p *fakePosts, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		log:     logging.Discard(),
		session: s,
		posts:   p,
		reader:  bufio.NewReader(strings.NewReader(input)),
		out:     out,
	}, out
}

// stubPasswords makes getPassword return the given answers in order.
func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := getPassword
	t.Cleanup(func() { getPassword = orig })
	i := 0
	getPassword = func(_ string, _ io.Writer) ([]byte, error) {
		if i >= len(answers) {
			return nil, io.EOF
		}
		pw := []byte(answers[i])
		i++
		return pw, nil
	}
}

func lines(l ...string) string {
	return strings.Join(l, "\n") + "\n"
}

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	orig := printlnFn
	var got []string
	printlnFn = func(a ...any) (int, error) {
		got = append(got, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &got
}
