package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/blogkeeper/internal/client/cache"
	"github.com/dmitrijs2005/blogkeeper/internal/client/config"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/posts"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/blogkeeper/internal/logging"
	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces session keys in a shared Redis.
const RedisKeyPrefix = "blogkeeper:session"

// Seams for tests.
var (
	openPostgres = repomanager.OpenPostgres
	newRepoMgr   = func() repomanager.RepositoryManager { return repomanager.NewPostgresRepositoryManager() }
)

// Stores bundles every store the CLI talks to.
type Stores struct {
	Local  *sql.DB
	Record *sql.DB
	Redis  *redis.Client

	Users    users.Repository
	Sessions sessions.Repository
	Posts    posts.Repository
	Cache    cache.SessionCache
}

// OpenStores opens the local cache, the record store and, when configured,
// Redis for sessions. Anything opened before a failure is closed again.
func OpenStores(ctx context.Context, cfg *config.Config, log logging.Logger) (_ *Stores, err error) {
	s := &Stores{}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	s.Local, err = InitLocalDatabase(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalDataNotAvailable, err)
	}
	s.Cache = cache.NewLocalSessionCache(s.Local)

	s.Record, err = openPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	rm := newRepoMgr()
	if cfg.MigrateRecordStore {
		if err = rm.RunMigrations(ctx, s.Record); err != nil {
			return nil, fmt.Errorf("record store migrations: %w", err)
		}
		log.Debug(ctx, "record store migrated")
	}

	s.Users = rm.Users(s.Record)
	s.Posts = rm.Posts(s.Record)

	switch cfg.SessionBackend {
	case config.SessionBackendPostgres, "":
		s.Sessions = rm.Sessions(s.Record)
	case config.SessionBackendRedis:
		s.Redis, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		s.Sessions = sessions.NewRedisRepository(s.Redis, RedisKeyPrefix, log)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}

	log.Info(ctx, "stores ready", "session_backend", cfg.SessionBackend, "local_db", cfg.LocalDBPath)
	return s, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (s *Stores) Close() error {
	var errs []error
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if s.Record != nil {
		errs = append(errs, s.Record.Close())
	}
	if s.Local != nil {
		errs = append(errs, s.Local.Close())
	}
	return errors.Join(errs...)
}
