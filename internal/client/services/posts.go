package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/media"
	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/posts"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/dmitrijs2005/blogkeeper/internal/filex"
	"github.com/dmitrijs2005/blogkeeper/internal/logging"
)

// DefaultFeedSize is how many posts List returns when asked for zero.
const DefaultFeedSize = 50

// Authenticator confirms that the device still holds an active session.
type Authenticator interface {
	Validate(ctx context.Context) (*models.Profile, error)
}

// PostService is blog CRUD for the signed-in user. Writes are owner-scoped
// in the store as well, so a post can only be changed by its author.
type PostService struct {
	posts  posts.Repository
	auth   Authenticator
	images media.ImageStore
	now    func() time.Time
	log    logging.Logger
}

// NewPostService builds the service. images may be nil, which disables
// image attachments.
func NewPostService(repo posts.Repository, auth Authenticator, images media.ImageStore, log logging.Logger) *PostService {
	return &PostService{
		posts:  repo,
		auth:   auth,
		images: images,
		now:    time.Now,
		log:    log.With("module", "posts"),
	}
}

func validatePost(in models.PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if strings.TrimSpace(in.Body) == "" {
		return fmt.Errorf("%w: body is required", common.ErrValidation)
	}
	if in.Reference != "" && !json.Valid([]byte(in.Reference)) {
		return fmt.Errorf("%w: reference must be valid JSON", common.ErrValidation)
	}
	return nil
}

func readErr(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", common.ErrStoreRead, op, err)
}

func writeErr(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", common.ErrStoreWrite, op, err)
}

func (s *PostService) List(ctx context.Context, limit int) ([]*models.Post, error) {
	if _, err := s.auth.Validate(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultFeedSize
	}
	list, err := s.posts.ListAll(ctx, limit)
	if err != nil {
		return nil, readErr("list posts", err)
	}
	return list, nil
}

func (s *PostService) Mine(ctx context.Context) ([]*models.Post, error) {
	user, err := s.auth.Validate(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.posts.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, readErr("list own posts", err)
	}
	return list, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	if _, err := s.auth.Validate(ctx); err != nil {
		return nil, err
	}
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, readErr("get post", err)
	}
	return p, nil
}

func (s *PostService) uploadImage(ctx context.Context, userID, path string) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("%w: image storage is not configured", common.ErrValidation)
	}
	data, contentType, err := filex.ReadImage(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	key, err := s.images.Put(ctx, userID, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return key, nil
}

func (s *PostService) Create(ctx context.Context, in models.PostInput) (*models.Post, error) {
	if err := validatePost(in); err != nil {
		return nil, err
	}
	user, err := s.auth.Validate(ctx)
	if err != nil {
		return nil, err
	}

	var imageKey string
	if in.ImagePath != "" {
		if imageKey, err = s.uploadImage(ctx, user.ID, in.ImagePath); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	p := &models.Post{
		UserID:    user.ID,
		Title:     strings.TrimSpace(in.Title),
		SubTitle:  strings.TrimSpace(in.SubTitle),
		Body:      in.Body,
		ImageKey:  imageKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Reference != "" {
		p.Reference = json.RawMessage(in.Reference)
	}

	created, err := s.posts.Create(ctx, p)
	if err != nil {
		return nil, writeErr("create post", err)
	}
	s.log.Info(ctx, "post created", "post_id", created.ID, "user_id", user.ID)
	return created, nil
}

// Update replaces the editable fields of a post owned by the signed-in
// user. The image is kept unless a new one is given.
func (s *PostService) Update(ctx context.Context, id string, in models.PostInput) (*models.Post, error) {
	if err := validatePost(in); err != nil {
		return nil, err
	}
	user, err := s.auth.Validate(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, readErr("get post", err)
	}
	if existing.UserID != user.ID {
		return nil, common.ErrorNotFound
	}

	imageKey := existing.ImageKey
	if in.ImagePath != "" {
		if imageKey, err = s.uploadImage(ctx, user.ID, in.ImagePath); err != nil {
			return nil, err
		}
	}

	p := &models.Post{
		ID:        id,
		UserID:    user.ID,
		Title:     strings.TrimSpace(in.Title),
		SubTitle:  strings.TrimSpace(in.SubTitle),
		Body:      in.Body,
		ImageKey:  imageKey,
		UpdatedAt: s.now().UTC(),
	}
	if in.Reference != "" {
		p.Reference = json.RawMessage(in.Reference)
	}

	updated, err := s.posts.Update(ctx, p)
	if err != nil {
		return nil, writeErr("update post", err)
	}
	s.log.Info(ctx, "post updated", "post_id", id, "user_id", user.ID)
	return updated, nil
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	user, err := s.auth.Validate(ctx)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id, user.ID); err != nil {
		return writeErr("delete post", err)
	}
	s.log.Info(ctx, "post deleted", "post_id", id, "user_id", user.ID)
	return nil
}

// ImageURL returns a temporary link to the post image, or "" if it has none.
func (s *PostService) ImageURL(ctx context.Context, p *models.Post) (string, error) {
	if p.ImageKey == "" || s.images == nil {
		return "", nil
	}
	return s.images.URL(ctx, p.ImageKey)
}
