package comments

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newsblog/backend/internal/db"
	apperrors "github.com/newsblog/backend/internal/errors"
)

func newTestMux() (*http.ServeMux, *fakeCommentStore) {
	svc, store, _ := newTestService()
	h := NewHandlers(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/comment", apperrors.HandleFunc(h.List))
	mux.HandleFunc("GET /api/comment/{id}", apperrors.HandleFunc(h.Get))
	mux.HandleFunc("POST /api/comment", apperrors.HandleFunc(h.Create))
	mux.HandleFunc("PUT /api/comment/{id}", apperrors.HandleFunc(h.Update))
	mux.HandleFunc("DELETE /api/comment/{id}", apperrors.HandleFunc(h.Delete))
	return mux, store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateCommentEndpoint(t *testing.T) {
	mux, _ := newTestMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/comment", CommentRequest{
		Text:       "great read",
		AuthorName: "A Reader",
		ArticleID:  1,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}

	var comment Comment
	if err := json.NewDecoder(rec.Body).Decode(&comment); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if comment.ID == 0 || comment.Text != "great read" {
		t.Errorf("comment = %+v", comment)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	mux, _ := newTestMux()

	tests := []struct {
		name string
		req  CommentRequest
	}{
		{"missing text", CommentRequest{ArticleID: 1, AuthorName: "A Reader"}},
		{"missing article_id", CommentRequest{Text: "hi", AuthorName: "A Reader"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, mux, http.MethodPost, "/api/comment", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateCommentOnMissingArticle(t *testing.T) {
	mux, _ := newTestMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/comment", CommentRequest{
		Text:       "orphan",
		AuthorName: "A Reader",
		ArticleID:  99,
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp apperrors.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if resp.Code != apperrors.CodeArticleNotFound {
		t.Errorf("code = %s, want %s", resp.Code, apperrors.CodeArticleNotFound)
	}
}

func TestListCommentsByArticleQuery(t *testing.T) {
	mux, store := newTestMux()

	doJSON(t, mux, http.MethodPost, "/api/comment", CommentRequest{
		Text: "on article 1", AuthorName: "A Reader", ArticleID: 1,
	})
	// A comment elsewhere, inserted directly.
	store.comments[50] = &db.Comment{ID: 50, ArticleID: 2, Text: "elsewhere"}

	rec := doJSON(t, mux, http.MethodGet, "/api/comment?article_id=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var comments []Comment
	if err := json.NewDecoder(rec.Body).Decode(&comments); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(comments) != 1 || comments[0].Text != "on article 1" {
		t.Errorf("got %+v, want only the comment on article 1", comments)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/comment?article_id=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad article_id status = %d, want 400", rec.Code)
	}
}

func TestUpdateAndDeleteCommentEndpoints(t *testing.T) {
	mux, _ := newTestMux()

	doJSON(t, mux, http.MethodPost, "/api/comment", CommentRequest{
		Text: "draft", AuthorName: "A Reader", ArticleID: 1,
	})

	rec := doJSON(t, mux, http.MethodPut, "/api/comment/1", CommentRequest{Text: "final"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	var updated Comment
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Text != "final" {
		t.Errorf("text = %q, want final", updated.Text)
	}

	rec = doJSON(t, mux, http.MethodDelete, "/api/comment/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/comment/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted comment status = %d, want 404", rec.Code)
	}
}
