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
	"github.com/prn-tf/folio/internal/repository"
)

// ProjectService manages the portfolio project catalogue.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	now         func() time.Time
	logger      zerolog.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, logger zerolog.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.With().Str("service", "project").Logger(),
	}
}

// ProjectInput carries every mutable project field. Create and Update both
// take the full set; Update replaces the stored values.
type ProjectInput struct {
	Name         string
	Description  string
	ImageURL     *string
	GithubURL    *string
	LiveURL      *string
	Technologies []string
	Featured     bool
	DisplayOrder int
}

func (in ProjectInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func (in ProjectInput) applyTo(p *domain.Project) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.ImageURL = optionalURL(in.ImageURL)
	p.GithubURL = optionalURL(in.GithubURL)
	p.LiveURL = optionalURL(in.LiveURL)
	p.Featured = in.Featured
	p.DisplayOrder = in.DisplayOrder

	p.Technologies = make([]string, 0, len(in.Technologies))
	for _, tech := range in.Technologies {
		if tech = strings.TrimSpace(tech); tech != "" {
			p.Technologies = append(p.Technologies, tech)
		}
	}
}

// optionalURL maps a blank link to nil.
func optionalURL(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// List returns projects ordered by display order, then newest first.
func (s *ProjectService) List(ctx context.Context, featuredOnly bool) ([]*domain.Project, error) {
	projects, err := s.projectRepo.List(ctx, featuredOnly)
	if err != nil {
		s.logger.Error().Err(err).Bool("featured", featuredOnly).Msg("failed to list projects")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if projects == nil {
		projects = []*domain.Project{}
	}
	return projects, nil
}

// Get retrieves a project by ID.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error().Err(err).Str("project_id", id.String()).Msg("failed to get project")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return project, nil
}

// Create creates a project.
func (s *ProjectService) Create(ctx context.Context, input ProjectInput) (*domain.Project, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	project := &domain.Project{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.applyTo(project)

	if err := s.projectRepo.Create(ctx, project); err != nil {
		s.logger.Error().Err(err).Str("name", project.Name).Msg("failed to create project")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("project_id", project.ID.String()).
		Str("name", project.Name).
		Msg("project created")

	return project, nil
}

// Update replaces a project's mutable fields.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, input ProjectInput) (*domain.Project, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	input.applyTo(project)
	project.UpdatedAt = s.now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error().Err(err).Str("project_id", id.String()).Msg("failed to update project")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("project_id", id.String()).Msg("project updated")
	return project, nil
}

// Delete removes a project. Unknown IDs return ErrProjectNotFound.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		s.logger.Error().Err(err).Str("project_id", id.String()).Msg("failed to delete project")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("project_id", id.String()).Msg("project deleted")
	return nil
}
