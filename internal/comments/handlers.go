package comments

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/newsblog/backend/internal/auth"
	apperrors "github.com/newsblog/backend/internal/errors"
)

type CommentRequest struct {
	Text       string `json:"text"`
	AuthorName string `json:"author_name"`
	ArticleID  int64  `json:"article_id"`
}

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// List handles GET /api/comment. An optional article_id query parameter
// narrows the listing to one article.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) error {
	if raw := r.URL.Query().Get("article_id"); raw != "" {
		articleID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || articleID <= 0 {
			return apperrors.ValidationError("invalid article_id")
		}
		comments, err := h.service.ListByArticle(r.Context(), articleID)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, comments)
	}

	comments, err := h.service.List(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, comments)
}

// Get handles GET /api/comment/{id}
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		return err
	}

	comment, err := h.service.Get(r.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, comment)
}

// Create handles POST /api/comment (guarded route).
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) error {
	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if req.Text == "" {
		return apperrors.ValidationError("text is required")
	}
	if req.ArticleID <= 0 {
		return apperrors.ValidationError("article_id is required")
	}

	principal := auth.PrincipalFromContext(r.Context())
	comment, err := h.service.Create(r.Context(), principal, req.ArticleID, req.Text, req.AuthorName)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, comment)
}

// Update handles PUT /api/comment/{id}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		return err
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if req.Text == "" {
		return apperrors.ValidationError("text is required")
	}

	comment, err := h.service.Update(r.Context(), id, req.Text, req.AuthorName)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /api/comment/{id}
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		return err
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("invalid comment id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
