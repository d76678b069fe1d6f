package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/newsblog/backend/internal/db"
	apperrors "github.com/newsblog/backend/internal/errors"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Principal is the authenticated user identity resolved from a validated
// access token.
type Principal struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Middleware guards an operation behind a bearer access token. It validates
// the token, re-resolves the owning user on every request (revocation and
// account deletion can happen between calls) and passes the principal to the
// wrapped handler via the request context.
func Middleware(authService *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := apperrors.GetRequestID(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apperrors.WriteError(w, requestID, apperrors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				apperrors.WriteError(w, requestID, apperrors.Unauthorized("invalid authorization header format"))
				return
			}

			userID, err := authService.VerifyAccessToken(parts[1])
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					apperrors.WriteError(w, requestID, apperrors.TokenExpired())
				case errors.Is(err, ErrWrongTokenType):
					apperrors.WriteError(w, requestID, apperrors.WrongTokenType())
				default:
					apperrors.WriteError(w, requestID, apperrors.InvalidToken("invalid access token"))
				}
				return
			}

			user, err := authService.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, db.ErrUserNotFound) {
					apperrors.WriteError(w, requestID, apperrors.Unauthorized("account no longer exists"))
					return
				}
				apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to resolve user"))
				return
			}

			principal := &Principal{
				ID:    user.ID,
				Name:  user.Name,
				Email: user.Email,
			}

			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated principal, or nil outside a
// guarded handler.
func PrincipalFromContext(ctx context.Context) *Principal {
	principal, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok {
		return nil
	}
	return principal
}
