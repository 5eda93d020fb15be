// Package sessions is the session store adapter. Sessions live either in the
// Postgres record store or in Redis; both honour the same contract.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
)

// Repository stores session rows. Validity is always evaluated against the
// caller-supplied now, never by a background sweep.
type Repository interface {
	// Create persists a new session. A token collision is reported as
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, s *models.Session) error

	// FindActive returns the session for token if it is not logged out and
	// expires after now. Anything else is common.ErrorNotFound.
	FindActive(ctx context.Context, token string, now time.Time) (*models.Session, error)

	// MarkLoggedOut stamps the logout time. Stamping an already logged out or
	// unknown token is a no-op.
	MarkLoggedOut(ctx context.Context, token string, at time.Time) error

	// ListActiveByUser returns the valid sessions of a user, newest first.
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*models.Session, error)

	// RevokeAllByUser logs out every active session of a user except the one
	// identified by exceptToken, returning how many were stamped.
	RevokeAllByUser(ctx context.Context, userID string, exceptToken string, at time.Time) (int64, error)
}
