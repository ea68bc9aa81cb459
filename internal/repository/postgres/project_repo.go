package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/repository"
)

// projectRepository implements repository.ProjectRepository.
type projectRepository struct {
	db *DB
}

// NewProjectRepository creates a new PostgreSQL project repository.
func NewProjectRepository(db *DB) repository.ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, name, description, image_url, github_url, live_url, technologies, featured, display_order, created_at, updated_at`

// Create inserts a new project.
func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	project.NormalizeTechnologies()

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.ImageURL,
		project.GithubURL,
		project.LiveURL,
		project.Technologies,
		project.Featured,
		project.DisplayOrder,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by ID.
func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return scanProject(r.db.Pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

// Update persists every mutable field of project.
func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	project.NormalizeTechnologies()

	query := `
		UPDATE projects
		SET name = $1, description = $2, image_url = $3, github_url = $4, live_url = $5,
		    technologies = $6, featured = $7, display_order = $8, updated_at = $9
		WHERE id = $10
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		project.Name,
		project.Description,
		project.ImageURL,
		project.GithubURL,
		project.LiveURL,
		project.Technologies,
		project.Featured,
		project.DisplayOrder,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a project by ID.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns projects ordered by display_order ascending, then newest first.
func (r *projectRepository) List(ctx context.Context, featuredOnly bool) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if featuredOnly {
		query += ` WHERE featured`
	}
	query += ` ORDER BY display_order ASC, created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	project := &domain.Project{}

	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.ImageURL,
		&project.GithubURL,
		&project.LiveURL,
		&project.Technologies,
		&project.Featured,
		&project.DisplayOrder,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	project.NormalizeTechnologies()
	return project, nil
}

// Ensure projectRepository implements repository.ProjectRepository.
var _ repository.ProjectRepository = (*projectRepository)(nil)
