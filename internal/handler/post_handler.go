package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/auth"
	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/pkg/pagination"
	"github.com/prn-tf/folio/internal/service"
)

// PostHandler serves the admin post endpoints and the public blog.
type PostHandler struct {
	posts   *service.PostService
	maxBody int64
	logger  zerolog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, maxBody int64, logger zerolog.Logger) *PostHandler {
	return &PostHandler{
		posts:   posts,
		maxBody: maxBody,
		logger:  logger.With().Str("handler", "post").Logger(),
	}
}

type postRequest struct {
	Title    *string `json:"title"`
	Excerpt  *string `json:"excerpt"`
	Content  *string `json:"content"`
	ReadTime *string `json:"read_time"`
	Status   *string `json:"status"`
}

type postResponse struct {
	Post    *domain.Post `json:"post"`
	Message string       `json:"message,omitempty"`
}

type postsResponse struct {
	Posts []*domain.Post `json:"posts"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// postID parses the {id} URL parameter. A malformed id cannot name a post.
func postID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.ErrPostNotFound
	}
	return id, nil
}

// List returns every post, drafts included.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListForAdmin(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, postsResponse{Posts: posts})
}

// Create creates a post authored by the caller.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var author string
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		author = claims.Email
	}

	post, err := h.posts.Create(r.Context(), service.CreatePostInput{
		Title:    deref(req.Title),
		Excerpt:  deref(req.Excerpt),
		Content:  deref(req.Content),
		ReadTime: deref(req.ReadTime),
		Status:   deref(req.Status),
	}, author)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, postResponse{Post: post, Message: "Post created successfully"})
}

// Update applies the fields present in the body.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req postRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Update(r.Context(), id, service.UpdatePostInput{
		Title:    req.Title,
		Excerpt:  req.Excerpt,
		Content:  req.Content,
		ReadTime: req.ReadTime,
		Status:   req.Status,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, postResponse{Post: post, Message: "Post updated successfully"})
}

// Delete removes a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Post deleted successfully"})
}

// Search returns a page of published posts filtered by ?search=.
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.posts.SearchPublished(r.Context(), query.Get("search"), pagination.Parse(query))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetBySlug returns one published post.
func (h *PostHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, postResponse{Post: post})
}
