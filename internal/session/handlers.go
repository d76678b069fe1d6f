package session

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	apperrors "github.com/newsblog/backend/internal/errors"
)

type Handlers struct {
	manager *Manager
}

func NewHandlers(manager *Manager) *Handlers {
	return &Handlers{manager: manager}
}

// Login handles the site login form (application/x-www-form-urlencoded).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.BadRequest("invalid form data")
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		return apperrors.ValidationError("email and password are required")
	}

	sessionID, err := h.manager.Login(r.Context(), email, password)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperrors.InternalError("login failed").WithCause(err)
	}

	SetCookie(w, sessionID, h.manager.now().Add(SessionTTL))
	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

// Logout revokes the current session and clears the cookie. Safe to call
// without an active session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if sessionID, err := uuid.Parse(cookie.Value); err == nil {
			if err := h.manager.Logout(r.Context(), sessionID); err != nil {
				return apperrors.InternalError("logout failed").WithCause(err)
			}
		}
	}

	ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

// Middleware resolves the session cookie into a user id stored in the
// request context, rejecting requests without a live session.
func (h *Handlers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := apperrors.GetRequestID(r.Context())

		cookie, err := r.Cookie(CookieName)
		if err != nil {
			apperrors.WriteError(w, requestID, apperrors.Unauthorized("not authenticated"))
			return
		}

		sessionID, err := uuid.Parse(cookie.Value)
		if err != nil {
			apperrors.WriteError(w, requestID, apperrors.Unauthorized("invalid session"))
			return
		}

		user, err := h.manager.Resolve(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, ErrNoSession) {
				apperrors.WriteError(w, requestID, apperrors.Unauthorized("session expired"))
				return
			}
			apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to resolve session"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
