package articles

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/newsblog/backend/internal/auth"
	apperrors "github.com/newsblog/backend/internal/errors"
)

type ArticleRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// List handles GET /api/articles
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) error {
	articles, err := h.service.List(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, articles)
}

// Get handles GET /api/articles/{id}
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		return err
	}

	article, err := h.service.Get(r.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, article)
}

// Create handles POST /api/articles. The owner and author name come from
// the authenticated principal, never from the payload.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) error {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	req, err := decodeArticleRequest(r)
	if err != nil {
		return err
	}

	article, err := h.service.Create(r.Context(), principal, req.Title, req.Content, req.Category)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, article)
}

// Update handles PUT /api/articles/{id}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) error {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		return err
	}

	req, err := decodeArticleRequest(r)
	if err != nil {
		return err
	}

	article, err := h.service.Update(r.Context(), principal, id, req.Title, req.Content, req.Category)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, article)
}

// Delete handles DELETE /api/articles/{id}
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) error {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		return err
	}

	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"message": "article deleted"})
}

// ListByCategory handles GET /api/articles/category/{category}
func (h *Handlers) ListByCategory(w http.ResponseWriter, r *http.Request) error {
	category := strings.ToLower(r.PathValue("category"))

	articles, err := h.service.ListByCategory(r.Context(), category)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, articles)
}

// ListByDate handles GET /api/articles/sort/date
func (h *Handlers) ListByDate(w http.ResponseWriter, r *http.Request) error {
	articles, err := h.service.ListByDate(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, articles)
}

// Search handles GET /api/articles/search?q=
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query().Get("q")
	if query == "" {
		return apperrors.ValidationError("query parameter 'q' is required")
	}

	articles, err := h.service.Search(r.Context(), query)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, articles)
}

func decodeArticleRequest(r *http.Request) (*ArticleRequest, error) {
	var req ArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperrors.BadRequest("invalid request body")
	}

	if err := validateArticleRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func validateArticleRequest(req *ArticleRequest) error {
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}
	if len(req.Title) > 255 {
		return apperrors.ValidationError("title must be at most 255 characters")
	}
	if req.Content == "" {
		return apperrors.ValidationError("content is required")
	}
	req.Category = strings.ToLower(req.Category)
	if req.Category == "" {
		return apperrors.ValidationError("category is required")
	}
	if !ValidCategory(req.Category) {
		return apperrors.InvalidCategory(req.Category)
	}
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("invalid article id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
