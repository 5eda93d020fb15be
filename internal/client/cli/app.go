package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/client"
	"github.com/dmitrijs2005/blogkeeper/internal/client/config"
	"github.com/dmitrijs2005/blogkeeper/internal/client/media"
	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/client/services"
	"github.com/dmitrijs2005/blogkeeper/internal/client/summarizer"
	"github.com/dmitrijs2005/blogkeeper/internal/cryptox"
	"github.com/dmitrijs2005/blogkeeper/internal/logging"
	"github.com/dmitrijs2005/blogkeeper/internal/netx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const uploadTimeout = 60 * time.Second

// sessionService is the part of services.SessionManager the CLI drives.
type sessionService interface {
	State() services.SessionState
	IsAuthenticated() bool
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) bool
	Validate(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	ActiveSessions(ctx context.Context) ([]*models.Session, error)
}

type postService interface {
	List(ctx context.Context, limit int) ([]*models.Post, error)
	Mine(ctx context.Context) ([]*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, in models.PostInput) (*models.Post, error)
	Update(ctx context.Context, id string, in models.PostInput) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	ImageURL(ctx context.Context, p *models.Post) (string, error)
}

var (
	_ sessionService = (*services.SessionManager)(nil)
	_ postService    = (*services.PostService)(nil)
)

type App struct {
	config     *config.Config
	log        logging.Logger
	session    sessionService
	posts      postService
	summarizer summarizer.Summarizer
	registry   *prometheus.Registry
	closer     io.Closer
	reader     *bufio.Reader
	out        io.Writer
}

// NewApp opens the stores and builds every service from c. Stores are
// closed again if anything after them fails.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(os.Stderr, c.LogLevel, c.LogFormat)

	hasher, err := cryptox.NewHasher(c.Hasher, c.HashPepper)
	if err != nil {
		return nil, err
	}

	stores, err := client.OpenStores(ctx, c, log)
	if err != nil {
		log.Error(ctx, "error opening stores", "error", err)
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sm := services.NewSessionManager(
		stores.Users,
		stores.Sessions,
		stores.Cache,
		hasher,
		cryptox.RandomTokenGenerator{},
		services.SessionOptions{
			TTL:                    c.SessionTTL,
			Platform:               c.DevicePlatform,
			RevokeOnPasswordChange: c.RevokeSessionsOnPasswordChange,
			Metrics:                services.NewMetrics(reg),
		},
		log,
	)

	var images media.ImageStore
	if c.S3Bucket != "" {
		images = media.NewS3Store(media.S3Config{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		}, netx.NewHTTPClient(uploadTimeout))
	}

	sum, err := newSummarizer(ctx, c)
	if err != nil {
		log.Warn(ctx, "summarizer disabled", "provider", c.SummarizerProvider, "error", err)
		sum = nil
	}

	return &App{
		config:     c,
		log:        log.With("module", "cli"),
		session:    sm,
		posts:      services.NewPostService(stores.Posts, sm, images, log),
		summarizer: sum,
		registry:   reg,
		closer:     stores,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}, nil
}

func newSummarizer(ctx context.Context, c *config.Config) (summarizer.Summarizer, error) {
	switch c.SummarizerProvider {
	case config.SummarizerGemini:
		return summarizer.NewGeminiSummarizer(ctx, c.GeminiAPIKey, c.GeminiModel, c.SummarizerTimeout)
	case config.SummarizerHTTP, "":
		if c.SummarizerURL == "" {
			return nil, errors.New("no summarizer url")
		}
		return summarizer.NewHTTPSummarizer(c.SummarizerURL, c.SummarizerTimeout), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", c.SummarizerProvider)
	}
}

// Run restores the previous session, serves metrics if configured and
// blocks in the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.closer == nil {
			return
		}
		if err := a.closer.Close(); err != nil {
			a.log.Error(ctx, "error closing stores", "error", err)
		}
	}()

	stop := a.serveMetrics(ctx)
	defer stop()

	printlnFn("Welcome to blogkeeper (type 'help' for commands)")
	if a.session.Restore(ctx) {
		printlnFn("Signed in as", a.session.State().User.Email)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// serveMetrics exposes the registry on MetricsAddr and returns a function
// that shuts the listener down.
func (a *App) serveMetrics(ctx context.Context) func() {
	if a.config == nil || a.config.MetricsAddr == "" || a.registry == nil {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error(ctx, "metrics server failed", "addr", srv.Addr, "error", err)
		}
	}()
	a.log.Info(ctx, "metrics server started", "addr", srv.Addr)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn(ctx, "metrics server shutdown", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) getStatus() string {
	st := a.session.State()
	if st.Authenticated() && st.User != nil {
		return fmt.Sprintf("(%s)", st.User.Email)
	}
	return ""
}
