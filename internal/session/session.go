// Package session implements the cookie-based login used by the
// server-rendered site, next to the JWT flow used by the API. Sessions are
// plain database rows; the cookie only carries the session id.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/newsblog/backend/internal/db"
	apperrors "github.com/newsblog/backend/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName = "session_id"
	SessionTTL = 24 * time.Hour
)

var ErrNoSession = errors.New("no active session")

// SessionStore is the slice of the session repository the manager needs.
type SessionStore interface {
	Create(ctx context.Context, session *db.Session) error
	Get(ctx context.Context, id uuid.UUID) (*db.Session, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

// UserStore resolves session owners.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db.User, error)
}

type Manager struct {
	sessions SessionStore
	users    UserStore
	now      func() time.Time
}

func NewManager(sessions SessionStore, users UserStore, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: sessions,
		users:    users,
		now:      now,
	}
}

// Login checks credentials and opens a session, returning its id.
func (m *Manager) Login(ctx context.Context, email, password string) (uuid.UUID, error) {
	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return uuid.Nil, apperrors.InvalidCredentials()
		}
		return uuid.Nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return uuid.Nil, apperrors.InvalidCredentials()
	}

	now := m.now()
	session := &db.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return uuid.Nil, err
	}

	return session.ID, nil
}

// Resolve maps a session id back to its user. Expired and revoked sessions
// resolve to ErrNoSession.
func (m *Manager) Resolve(ctx context.Context, sessionID uuid.UUID) (*db.User, error) {
	session, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, db.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	// Repository filtering already excludes dead sessions; re-check expiry
	// against the injected clock so tests can simulate it.
	if m.now().After(session.ExpiresAt) {
		return nil, ErrNoSession
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	return user, nil
}

// Logout revokes the session. Unknown sessions are not an error.
func (m *Manager) Logout(ctx context.Context, sessionID uuid.UUID) error {
	err := m.sessions.Revoke(ctx, sessionID)
	if errors.Is(err, db.ErrSessionNotFound) {
		return nil
	}
	return err
}

// SetCookie attaches the session cookie to a response.
func SetCookie(w http.ResponseWriter, sessionID uuid.UUID, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID.String(),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
