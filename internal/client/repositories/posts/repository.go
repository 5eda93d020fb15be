// Package posts stores blog posts in the Postgres record store.
package posts

import (
	"context"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
)

// Repository is owner-scoped for writes: Update and Delete only touch a row
// whose user_id matches, and report common.ErrorNotFound otherwise.
// Listings are ordered by creation time, newest first.
type Repository interface {
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	ListAll(ctx context.Context, limit int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Post, error)
	Update(ctx context.Context, p *models.Post) (*models.Post, error)
	Delete(ctx context.Context, id string, userID string) error
}
