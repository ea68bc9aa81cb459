package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/lock"
	"github.com/prn-tf/folio/internal/metrics"
	"github.com/prn-tf/folio/internal/pkg/pagination"
	"github.com/prn-tf/folio/internal/repository"
)

const (
	slugLockTTL     = 10 * time.Second
	slugLockRetries = 3
	slugLockDelay   = 50 * time.Millisecond
)

// PostService manages the blog post lifecycle: creation with a derived slug,
// partial updates, the one-way draft to published transition, and the public
// search over published posts.
type PostService struct {
	postRepo repository.PostRepository
	locker   lock.Locker
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   zerolog.Logger
}

// NewPostService creates a new PostService. m may be nil.
func NewPostService(postRepo repository.PostRepository, locker lock.Locker, m *metrics.Metrics, logger zerolog.Logger) *PostService {
	return &PostService{
		postRepo: postRepo,
		locker:   locker,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("service", "post").Logger(),
	}
}

// CreatePostInput contains the data needed to create a post.
type CreatePostInput struct {
	Title    string
	Excerpt  string
	Content  string
	ReadTime string

	// Status is DRAFT or PUBLISHED; empty means DRAFT.
	Status string
}

// UpdatePostInput contains a partial update. Nil fields are left unchanged.
type UpdatePostInput struct {
	Title    *string
	Excerpt  *string
	Content  *string
	ReadTime *string
	Status   *string
}

// SearchResult is one page of published posts.
type SearchResult struct {
	Posts      []*domain.Post  `json:"posts"`
	Pagination pagination.Meta `json:"pagination"`
}

// Create creates a post authored by author. The slug is derived from the title;
// if a post already holds it, ErrDuplicateSlug is returned.
func (s *PostService) Create(ctx context.Context, input CreatePostInput, author string) (*domain.Post, error) {
	if err := s.validateCreateInput(input); err != nil {
		return nil, err
	}

	status := domain.PostStatusDraft
	if input.Status != "" {
		parsed, err := domain.ParsePostStatus(input.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, domain.NewDomainError(err, "must be DRAFT or PUBLISHED", input.Status))
		}
		status = parsed
	}

	slug := domain.Slugify(input.Title)
	if slug == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidation, domain.NewDomainError(domain.ErrEmptySlug, "", input.Title))
	}

	now := s.now()
	post := &domain.Post{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     strings.TrimSpace(input.Title),
		Excerpt:   input.Excerpt,
		Content:   input.Content,
		ReadTime:  strings.TrimSpace(input.ReadTime),
		Status:    domain.PostStatusDraft,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == domain.PostStatusPublished {
		post.Publish(now)
	}

	err := lock.WithLock(ctx, s.locker, lock.Keys.PostSlug(slug), slugLockTTL, slugLockRetries, slugLockDelay, func() error {
		exists, err := s.postRepo.ExistsBySlug(ctx, slug)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrDuplicate
		}
		return s.postRepo.Create(ctx, post)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) || errors.Is(err, repository.ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateSlug, slug)
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to create post")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if post.IsPublished() {
		s.metrics.PostPublished()
	}

	s.logger.Info().
		Str("post_id", post.ID.String()).
		Str("slug", post.Slug).
		Str("status", string(post.Status)).
		Msg("post created")

	return post, nil
}

// Update applies a partial update. The slug never changes. Moving a draft to
// PUBLISHED stamps PublishedAt once; moving a published post back to DRAFT is
// rejected with ErrInvalidStatusTransition.
func (s *PostService) Update(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*domain.Post, error) {
	post, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyText(&post.Title, input.Title, "title"); err != nil {
		return nil, err
	}
	if err := applyText(&post.Excerpt, input.Excerpt, "excerpt"); err != nil {
		return nil, err
	}
	if err := applyText(&post.Content, input.Content, "content"); err != nil {
		return nil, err
	}
	if err := applyText(&post.ReadTime, input.ReadTime, "read_time"); err != nil {
		return nil, err
	}

	now := s.now()
	newlyPublished := false

	if input.Status != nil {
		status, err := domain.ParsePostStatus(*input.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, domain.NewDomainError(err, "must be DRAFT or PUBLISHED", *input.Status))
		}

		switch {
		case status == domain.PostStatusPublished:
			newlyPublished = post.PublishedAt == nil
			post.Publish(now)
		case post.IsPublished():
			return nil, fmt.Errorf("%w: %w", ErrInvalidStatusTransition, domain.ErrUnpublish)
		}
	}

	post.UpdatedAt = now

	if err := s.postRepo.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error().Err(err).Str("post_id", id.String()).Msg("failed to update post")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if newlyPublished {
		s.metrics.PostPublished()
		s.logger.Info().Str("post_id", post.ID.String()).Str("slug", post.Slug).Msg("post published")
	}

	return post, nil
}

// applyText sets *dst to the trimmed value of src when src is non-nil.
// Fields that are present must not be blank.
func applyText(dst *string, src *string, field string) error {
	if src == nil {
		return nil
	}
	if strings.TrimSpace(*src) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidation, field)
	}
	*dst = *src
	return nil
}

// Delete removes a post. Deleting an unknown or already-deleted post returns
// ErrPostNotFound.
func (s *PostService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.postRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		s.logger.Error().Err(err).Str("post_id", id.String()).Msg("failed to delete post")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("post_id", id.String()).Msg("post deleted")
	return nil
}

// ListForAdmin returns every post, drafts included, newest created first.
func (s *PostService) ListForAdmin(ctx context.Context) ([]*domain.Post, error) {
	result, err := s.postRepo.List(ctx, repository.PostListOptions{
		OrderBy: repository.OrderByCreatedAt,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list posts")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if result.Items == nil {
		return []*domain.Post{}, nil
	}
	return result.Items, nil
}

// GetPublishedBySlug returns a published post. Drafts are reported as not found.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to get post")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !post.IsPublished() {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// SearchPublished returns one page of published posts, most recently published
// first. A non-empty query keeps posts whose title, excerpt or content contains
// it, ignoring case. Pages past the end are empty but still report the total.
func (s *PostService) SearchPublished(ctx context.Context, query string, page pagination.Params) (*SearchResult, error) {
	page = pagination.New(page.Page, page.Limit)

	result, err := s.postRepo.List(ctx, repository.PostListOptions{
		Status:  domain.PostStatusPublished,
		Search:  strings.TrimSpace(query),
		OrderBy: repository.OrderByPublishedAt,
		Offset:  page.Offset(),
		Limit:   page.Limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to search posts")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	posts := result.Items
	if posts == nil {
		posts = []*domain.Post{}
	}

	return &SearchResult{
		Posts:      posts,
		Pagination: pagination.NewMeta(page, result.Total),
	}, nil
}

func (s *PostService) getByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error().Err(err).Str("post_id", id.String()).Msg("failed to get post")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return post, nil
}

func (s *PostService) validateCreateInput(input CreatePostInput) error {
	var missing []string
	if strings.TrimSpace(input.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(input.Excerpt) == "" {
		missing = append(missing, "excerpt")
	}
	if strings.TrimSpace(input.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(input.ReadTime) == "" {
		missing = append(missing, "read_time")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
