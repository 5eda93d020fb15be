// Package users is the credential store adapter: user records in the
// Postgres record store.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
)

// Repository returns full user records, password digest included. Only the
// session manager consumes them; everything above it sees models.Profile.
//
// Missing rows are reported as common.ErrorNotFound and a taken email as
// common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate, now time.Time) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, digest string, now time.Time) error
	Delete(ctx context.Context, id string) error
}
