// Package cache keeps the last session snapshot on the device: the token
// and the stripped user it belongs to. Both entries are written and cleared
// in one sqlite transaction, so one is never present without the other.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/dmitrijs2005/blogkeeper/internal/dbx"
)

// ErrCorruptSnapshot is returned by Load when the cached user cannot be decoded.
var ErrCorruptSnapshot = errors.New("corrupt session snapshot")

// SessionCache is what the session manager needs from on-device storage.
type SessionCache interface {
	// Load returns the cached snapshot, or nil when there is none.
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, s *models.Snapshot) error
	// UpdateProfile overwrites the cached user, keeping the token.
	UpdateProfile(ctx context.Context, p *models.Profile) error
	Clear(ctx context.Context) error
}

// LocalSessionCache stores the snapshot in the metadata table of the local
// sqlite database.
type LocalSessionCache struct {
	db dbx.TxBeginner
}

var _ SessionCache = (*LocalSessionCache)(nil)

func NewLocalSessionCache(db dbx.TxBeginner) *LocalSessionCache {
	return &LocalSessionCache{db: db}
}

func (c *LocalSessionCache) withRepo(ctx context.Context, fn func(ctx context.Context, repo metadata.Repository) error) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, metadata.NewSQLiteRepository(tx))
	})
}

func (c *LocalSessionCache) Load(ctx context.Context) (*models.Snapshot, error) {
	var token, userData []byte

	err := c.withRepo(ctx, func(ctx context.Context, repo metadata.Repository) error {
		var err error
		if token, err = repo.Get(ctx, common.AuthTokenKey); err != nil {
			return err
		}
		userData, err = repo.Get(ctx, common.UserDataKey)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %w", common.ErrStoreRead, err)
	}

	if len(token) == 0 || len(userData) == 0 {
		return nil, nil
	}

	var p models.Profile
	if err := json.Unmarshal(userData, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	return &models.Snapshot{Token: string(token), User: &p}, nil
}

func (c *LocalSessionCache) Save(ctx context.Context, s *models.Snapshot) error {
	if s == nil || s.Token == "" || s.User == nil {
		return fmt.Errorf("%w: incomplete session snapshot", common.ErrValidation)
	}

	userData, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	err = c.withRepo(ctx, func(ctx context.Context, repo metadata.Repository) error {
		if err := repo.Set(ctx, common.AuthTokenKey, []byte(s.Token)); err != nil {
			return err
		}
		return repo.Set(ctx, common.UserDataKey, userData)
	})
	if err != nil {
		return fmt.Errorf("%w: save snapshot: %w", common.ErrStoreWrite, err)
	}
	return nil
}

func (c *LocalSessionCache) UpdateProfile(ctx context.Context, p *models.Profile) error {
	userData, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	err = c.withRepo(ctx, func(ctx context.Context, repo metadata.Repository) error {
		token, err := repo.Get(ctx, common.AuthTokenKey)
		if err != nil {
			return err
		}
		if len(token) == 0 {
			return common.ErrNotAuthenticated
		}
		return repo.Set(ctx, common.UserDataKey, userData)
	})
	if errors.Is(err, common.ErrNotAuthenticated) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: update cached user: %w", common.ErrStoreWrite, err)
	}
	return nil
}

func (c *LocalSessionCache) Clear(ctx context.Context) error {
	err := c.withRepo(ctx, func(ctx context.Context, repo metadata.Repository) error {
		return repo.Delete(ctx, common.AuthTokenKey, common.UserDataKey)
	})
	if err != nil {
		return fmt.Errorf("%w: clear snapshot: %w", common.ErrStoreWrite, err)
	}
	return nil
}
