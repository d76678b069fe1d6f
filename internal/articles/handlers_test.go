package articles

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/newsblog/backend/internal/auth"
	"github.com/newsblog/backend/internal/db"
	apperrors "github.com/newsblog/backend/internal/errors"
)

type memUserStore struct {
	users map[uuid.UUID]*db.User
}

func (m *memUserStore) Create(ctx context.Context, user *db.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return db.ErrEmailExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserStore) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (m *memUserStore) GetByID(ctx context.Context, id uuid.UUID) (*db.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, db.ErrUserNotFound
}

type memTokenStore struct {
	tokens map[string]*db.RefreshToken
}

func (m *memTokenStore) Create(ctx context.Context, token *db.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *memTokenStore) GetByToken(ctx context.Context, tokenString string) (*db.RefreshToken, error) {
	if t, ok := m.tokens[tokenString]; ok {
		return t, nil
	}
	return nil, db.ErrTokenNotFound
}

func (m *memTokenStore) Revoke(ctx context.Context, tokenString string) error {
	t, ok := m.tokens[tokenString]
	if !ok || t.Revoked {
		return db.ErrTokenNotFound
	}
	t.Revoked = true
	return nil
}

type harness struct {
	mux   *http.ServeMux
	store *fakeArticleStore
	alice string
	bob   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	authSvc := auth.NewService(
		&memUserStore{users: make(map[uuid.UUID]*db.User)},
		&memTokenStore{tokens: make(map[string]*db.RefreshToken)},
		"test-secret", nil)

	store := newFakeArticleStore()
	handlers := NewHandlers(NewService(store, nil, nil, nil))
	guard := auth.Middleware(authSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/articles", apperrors.HandleFunc(handlers.List))
	mux.HandleFunc("GET /api/articles/{id}", apperrors.HandleFunc(handlers.Get))
	mux.HandleFunc("GET /api/articles/category/{category}", apperrors.HandleFunc(handlers.ListByCategory))
	mux.HandleFunc("GET /api/articles/sort/date", apperrors.HandleFunc(handlers.ListByDate))
	mux.HandleFunc("GET /api/articles/search", apperrors.HandleFunc(handlers.Search))
	mux.Handle("POST /api/articles", guard(apperrors.HandleFunc(handlers.Create)))
	mux.Handle("PUT /api/articles/{id}", guard(apperrors.HandleFunc(handlers.Update)))
	mux.Handle("DELETE /api/articles/{id}", guard(apperrors.HandleFunc(handlers.Delete)))

	aliceAuth, err := authSvc.Register(context.Background(), "Alice", "alice@example.com", "alicepassword")
	if err != nil {
		t.Fatalf("failed to register alice: %v", err)
	}
	bobAuth, err := authSvc.Register(context.Background(), "Bob", "bob@example.com", "bobpassword12")
	if err != nil {
		t.Fatalf("failed to register bob: %v", err)
	}

	return &harness{mux: mux, store: store, alice: aliceAuth.AccessToken, bob: bobAuth.AccessToken}
}

func (h *harness) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestCreateArticleEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/articles", ArticleRequest{
		Title:    "Breaking News",
		Content:  "something happened",
		Category: "general",
	}, h.alice)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}

	var article Article
	if err := json.NewDecoder(rec.Body).Decode(&article); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if article.ID == 0 {
		t.Error("created article should have an id")
	}
	if article.AuthorName != "Alice" {
		t.Errorf("author_name = %q, want the authenticated user's name", article.AuthorName)
	}

	// The article is publicly readable.
	rec = h.do(t, http.MethodGet, "/api/articles", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var articles []Article
	if err := json.NewDecoder(rec.Body).Decode(&articles); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Breaking News" {
		t.Errorf("list = %+v, want the created article", articles)
	}
}

func TestCreateArticleRequiresAuth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/articles", ArticleRequest{
		Title:    "Anonymous Post",
		Content:  "content",
		Category: "general",
	}, "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestCreateArticleRejectsUnknownCategory(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/articles", ArticleRequest{
		Title:    "Post",
		Content:  "content",
		Category: "gossip",
	}, h.alice)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decodeErrorBody(t, rec); resp.Code != apperrors.CodeInvalidCategory {
		t.Errorf("code = %s, want %s", resp.Code, apperrors.CodeInvalidCategory)
	}
}

func TestCreateArticleValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		req  ArticleRequest
	}{
		{"missing title", ArticleRequest{Content: "content", Category: "general"}},
		{"missing content", ArticleRequest{Title: "Title", Category: "general"}},
		{"missing category", ArticleRequest{Title: "Title", Content: "content"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/api/articles", tt.req, h.alice)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGetArticleEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/articles", ArticleRequest{
		Title:    "Detail Post",
		Content:  "content",
		Category: "science",
	}, h.alice)
	var created Article
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode created article: %v", err)
	}

	rec = h.do(t, http.MethodGet, "/api/articles/1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got Article
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode article: %v", err)
	}
	if got.ID != created.ID || got.Title != "Detail Post" {
		t.Errorf("got %+v, want the created article", got)
	}

	rec = h.do(t, http.MethodGet, "/api/articles/999", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing article status = %d, want 404", rec.Code)
	}
	if resp := decodeErrorBody(t, rec); resp.Code != apperrors.CodeArticleNotFound {
		t.Errorf("code = %s, want %s", resp.Code, apperrors.CodeArticleNotFound)
	}
}

func TestCategoryEndpoint(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodPost, "/api/articles", ArticleRequest{
		Title: "Tech Post", Content: "content", Category: "technology",
	}, h.alice)

	// Unknown category is an error, not an empty list.
	rec := h.do(t, http.MethodGet, "/api/articles/category/gossip", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown category status = %d, want 400", rec.Code)
	}
	if resp := decodeErrorBody(t, rec); resp.Code != apperrors.CodeInvalidCategory {
		t.Errorf("code = %s, want %s", resp.Code, apperrors.CodeInvalidCategory)
	}

	// Path category is case-insensitive.
	rec = h.do(t, http.MethodGet, "/api/articles/category/Technology", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var articles []Article
	if err := json.NewDecoder(rec.Body).Decode(&articles); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("got %d articles, want 1", len(articles))
	}

	// Valid category with no articles returns an empty list.
	rec = h.do(t, http.MethodGet, "/api/articles/category/culture", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty category status = %d, want 200", rec.Code)
	}
}

func TestUpdateArticleByNonOwner(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodPost, "/api/articles", ArticleRequest{
		Title: "Alice's Post", Content: "content", Category: "politics",
	}, h.alice)

	rec := h.do(t, http.MethodPut, "/api/articles/1", ArticleRequest{
		Title: "Bob's Edit", Content: "content", Category: "politics",
	}, h.bob)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if resp := decodeErrorBody(t, rec); resp.Code != apperrors.CodeForbidden {
		t.Errorf("code = %s, want %s", resp.Code, apperrors.CodeForbidden)
	}
}

func TestDeleteArticleEndpoint(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodPost, "/api/articles", ArticleRequest{
		Title: "Doomed Post", Content: "content", Category: "general",
	}, h.alice)

	rec := h.do(t, http.MethodDelete, "/api/articles/1", nil, h.bob)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete status = %d, want 403", rec.Code)
	}

	rec = h.do(t, http.MethodDelete, "/api/articles/1", nil, h.alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/api/articles/1", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted article status = %d, want 404", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodPost, "/api/articles", ArticleRequest{
		Title: "Élection Results", Content: "content", Category: "politics",
	}, h.alice)

	rec := h.do(t, http.MethodGet, "/api/articles/search?q=election", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var articles []Article
	if err := json.NewDecoder(rec.Body).Decode(&articles); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("got %d matches, want 1", len(articles))
	}

	rec = h.do(t, http.MethodGet, "/api/articles/search", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing query status = %d, want 400", rec.Code)
	}
}
