package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/repository"
)

// projectRepository implements repository.ProjectRepository for SQLite.
type projectRepository struct {
	db *DB
}

// NewProjectRepository creates a new SQLite project repository.
func NewProjectRepository(db *DB) repository.ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, name, description, image_url, github_url, live_url, technologies, featured, display_order, created_at, updated_at`

// Create inserts a new project.
func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	techs, err := encodeTechnologies(project.Technologies)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		project.ID.String(),
		project.Name,
		project.Description,
		toNullString(project.ImageURL),
		toNullString(project.GithubURL),
		toNullString(project.LiveURL),
		techs,
		boolToInt(project.Featured),
		project.DisplayOrder,
		formatTime(project.CreatedAt),
		formatTime(project.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID.
func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id.String())
	return scanProject(row)
}

// Update persists every mutable field of project.
func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	techs, err := encodeTechnologies(project.Technologies)
	if err != nil {
		return err
	}

	query := `
		UPDATE projects
		SET name = ?, description = ?, image_url = ?, github_url = ?, live_url = ?,
		    technologies = ?, featured = ?, display_order = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		project.Name,
		project.Description,
		toNullString(project.ImageURL),
		toNullString(project.GithubURL),
		toNullString(project.LiveURL),
		techs,
		boolToInt(project.Featured),
		project.DisplayOrder,
		formatTime(project.UpdatedAt),
		project.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a project by ID.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns projects ordered by display_order ascending, then newest first.
func (r *projectRepository) List(ctx context.Context, featuredOnly bool) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if featuredOnly {
		query += ` WHERE featured = 1`
	}
	query += ` ORDER BY display_order ASC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
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

func scanProject(row rowScanner) (*domain.Project, error) {
	project := &domain.Project{}
	var id, techs, createdAt, updatedAt string
	var imageURL, githubURL, liveURL sql.NullString
	var featured int

	err := row.Scan(
		&id,
		&project.Name,
		&project.Description,
		&imageURL,
		&githubURL,
		&liveURL,
		&techs,
		&featured,
		&project.DisplayOrder,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	if project.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid project id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(techs), &project.Technologies); err != nil {
		return nil, fmt.Errorf("invalid technologies for project %s: %w", id, err)
	}
	project.NormalizeTechnologies()
	project.ImageURL = scanNullString(imageURL)
	project.GithubURL = scanNullString(githubURL)
	project.LiveURL = scanNullString(liveURL)
	project.Featured = featured != 0
	project.CreatedAt = parseTime(createdAt)
	project.UpdatedAt = parseTime(updatedAt)

	return project, nil
}

func encodeTechnologies(techs []string) (string, error) {
	if techs == nil {
		techs = []string{}
	}
	b, err := json.Marshal(techs)
	if err != nil {
		return "", fmt.Errorf("failed to encode technologies: %w", err)
	}
	return string(b), nil
}

// Ensure projectRepository implements repository.ProjectRepository.
var _ repository.ProjectRepository = (*projectRepository)(nil)
