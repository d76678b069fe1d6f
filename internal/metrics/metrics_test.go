package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/articles", "/api/articles"},
		{"/api/articles/42", "/api/articles/{id}"},
		{"/api/comment/7", "/api/comment/{id}"},
		{"/api/articles/category/technology", "/api/articles/category/technology"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordRequestCollapsesIDs(t *testing.T) {
	m := New()
	m.RecordRequest("GET", "/api/articles/1", http.StatusOK, 10*time.Millisecond)
	m.RecordRequest("GET", "/api/articles/2", http.StatusOK, 30*time.Millisecond)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.requestCount["GET /api/articles/{id}"] != 2 {
		t.Errorf("count = %d, want both detail requests on one series", m.requestCount["GET /api/articles/{id}"])
	}
}

func TestRecordRequestCountsErrors(t *testing.T) {
	m := New()
	m.RecordRequest("POST", "/api/articles", http.StatusCreated, time.Millisecond)
	m.RecordRequest("POST", "/api/articles", http.StatusForbidden, time.Millisecond)
	m.RecordRequest("POST", "/api/articles", http.StatusInternalServerError, time.Millisecond)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.requestCount["POST /api/articles"] != 3 {
		t.Errorf("count = %d, want 3", m.requestCount["POST /api/articles"])
	}
	if m.requestErrors["POST /api/articles:4xx"] != 1 {
		t.Errorf("4xx errors = %d, want 1", m.requestErrors["POST /api/articles:4xx"])
	}
	if m.requestErrors["POST /api/articles:5xx"] != 1 {
		t.Errorf("5xx errors = %d, want 1", m.requestErrors["POST /api/articles:5xx"])
	}
}

func TestHandlerOutput(t *testing.T) {
	m := New()
	m.RecordRequest("GET", "/api/articles", http.StatusOK, 20*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "uptime_seconds") {
		t.Error("output should contain uptime_seconds")
	}
	if !strings.Contains(body, `request_count{route="GET /api/articles"} 1`) {
		t.Errorf("output missing request count, got:\n%s", body)
	}
}
