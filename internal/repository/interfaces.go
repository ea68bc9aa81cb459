// Package repository defines data access interfaces for folio.
// These interfaces abstract database operations, allowing for different implementations
// (SQLite, PostgreSQL, in-memory for testing, etc.) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/prn-tf/folio/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for identity data access.
type UserRepository interface {
	// Create creates a new user.
	// Returns ErrDuplicate if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// =============================================================================
// Post Repository
// =============================================================================

// PostRepository defines the interface for blog post data access.
// Each call is atomic on its own; callers compose them without transactions.
type PostRepository interface {
	// Create inserts a new post.
	// Returns ErrDuplicate if a post with the same slug exists.
	Create(ctx context.Context, post *domain.Post) error

	// GetByID retrieves a post by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// GetBySlug retrieves a post by slug regardless of status.
	GetBySlug(ctx context.Context, slug string) (*domain.Post, error)

	// ExistsBySlug checks if a post with the given slug exists.
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// Update persists every mutable field of post.
	// Returns ErrNotFound if no post has post.ID.
	Update(ctx context.Context, post *domain.Post) error

	// Delete removes a post by ID.
	// Returns ErrNotFound if no post has that ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns posts matching opts.
	List(ctx context.Context, opts PostListOptions) (*ListResult[domain.Post], error)
}

// PostListOptions filters and pages a post listing.
type PostListOptions struct {
	// Status restricts results to one status. Empty means all.
	Status domain.PostStatus

	// Search keeps posts whose title, excerpt or content contains it,
	// ignoring case. Empty means no filtering.
	Search string

	// OrderBy selects the sort column; results are always descending.
	OrderBy PostOrder

	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return. Zero means no limit.
	Limit int
}

// PostOrder names a column posts may be sorted by.
type PostOrder string

const (
	// OrderByCreatedAt sorts newest created first.
	OrderByCreatedAt PostOrder = "created_at"

	// OrderByPublishedAt sorts most recently published first.
	OrderByPublishedAt PostOrder = "published_at"
)

// Column returns the SQL column for the order, defaulting to created_at.
func (o PostOrder) Column() string {
	if o == OrderByPublishedAt {
		return "published_at"
	}
	return "created_at"
}

// =============================================================================
// Project Repository
// =============================================================================

// ProjectRepository defines the interface for portfolio project data access.
type ProjectRepository interface {
	// Create inserts a new project.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// Update persists every mutable field of project.
	// Returns ErrNotFound if no project has project.ID.
	Update(ctx context.Context, project *domain.Project) error

	// Delete removes a project by ID.
	// Returns ErrNotFound if no project has that ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns projects ordered by display_order ascending, then newest first.
	List(ctx context.Context, featuredOnly bool) ([]*domain.Project, error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []*T

	// Total is the total number of matching items (without pagination).
	Total int64

	// Offset is the current offset.
	Offset int

	// Limit is the current limit.
	Limit int
}
