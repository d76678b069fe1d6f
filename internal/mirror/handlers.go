package mirror

import (
	"net/http"

	apperrors "github.com/newsblog/backend/internal/errors"
)

type Handlers struct {
	mirror *Mirror
}

func NewHandlers(m *Mirror) *Handlers {
	return &Handlers{mirror: m}
}

// Articles serves the raw articles.json snapshot.
func (h *Handlers) Articles(w http.ResponseWriter, r *http.Request) error {
	return h.serve(w, r, ArticlesObject)
}

// Comments serves the raw comments.json snapshot.
func (h *Handlers) Comments(w http.ResponseWriter, r *http.Request) error {
	return h.serve(w, r, CommentsObject)
}

func (h *Handlers) serve(w http.ResponseWriter, r *http.Request, name string) error {
	data, err := h.mirror.Read(r.Context(), name)
	if err != nil {
		// No snapshot yet means nothing has been published.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		return apperrors.MirrorError("failed to serve mirror snapshot").WithCause(err)
	}
	return nil
}
