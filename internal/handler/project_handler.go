package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/service"
)

// ProjectHandler serves the project catalogue.
type ProjectHandler struct {
	projects *service.ProjectService
	maxBody  int64
	logger   zerolog.Logger
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projects *service.ProjectService, maxBody int64, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		maxBody:  maxBody,
		logger:   logger.With().Str("handler", "project").Logger(),
	}
}

type projectRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	ImageURL     *string  `json:"image_url"`
	GithubURL    *string  `json:"github_url"`
	LiveURL      *string  `json:"live_url"`
	Technologies []string `json:"technologies"`
	Featured     bool     `json:"featured"`
	DisplayOrder int      `json:"display_order"`
}

func (req projectRequest) input() service.ProjectInput {
	return service.ProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		GithubURL:    req.GithubURL,
		LiveURL:      req.LiveURL,
		Technologies: req.Technologies,
		Featured:     req.Featured,
		DisplayOrder: req.DisplayOrder,
	}
}

type projectResponse struct {
	Project *domain.Project `json:"project"`
	Message string          `json:"message,omitempty"`
}

type projectsResponse struct {
	Projects []*domain.Project `json:"projects"`
}

func projectID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.ErrProjectNotFound
	}
	return id, nil
}

// List returns every project, or only featured ones with ?featured=true.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	featured, _ := strconv.ParseBool(r.URL.Query().Get("featured"))

	projects, err := h.projects.List(r.Context(), featured)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, projectsResponse{Projects: projects})
}

// Get returns one project.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, projectResponse{Project: project})
}

// Create creates a project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, projectResponse{Project: project, Message: "Project created successfully"})
}

// Update replaces a project.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req projectRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.Update(r.Context(), id, req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, projectResponse{Project: project, Message: "Project updated successfully"})
}

// Delete removes a project.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.projects.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Project deleted successfully"})
}
