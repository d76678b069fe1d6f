package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/newsblog/backend/internal/db"
	apperrors "github.com/newsblog/backend/internal/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token"`
}

type MeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Handlers struct {
	authService *Service
}

func NewHandlers(authService *Service) *Handlers {
	return &Handlers{authService: authService}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if err := validateRegisterRequest(&req); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	resp, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrEmailExists) {
			return apperrors.EmailExists()
		}
		return apperrors.InternalError("failed to create user").WithCause(err)
	}

	resp.Message = "registration successful"
	return writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return apperrors.ValidationError("email and password are required")
	}

	resp, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return apperrors.InvalidCredentials()
		}
		return apperrors.InternalError("login failed").WithCause(err)
	}

	resp.Message = "login successful"
	return writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) error {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if req.RefreshToken == "" {
		return apperrors.ValidationError("refresh token is required")
	}

	accessToken, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			return apperrors.TokenExpired()
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenRevoked), errors.Is(err, ErrWrongTokenType):
			return apperrors.InvalidToken("invalid or revoked refresh token")
		}
		return apperrors.InternalError("token refresh failed").WithCause(err)
	}

	return writeJSON(w, http.StatusOK, RefreshResponse{
		Message:     "token refreshed",
		AccessToken: accessToken,
	})
}

// Logout revokes the refresh token named in the body. The route itself is
// guarded, so a valid access token is required to get here.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) error {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if req.RefreshToken == "" {
		return apperrors.ValidationError("refresh token is required")
	}

	if err := h.authService.Revoke(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, db.ErrTokenNotFound) {
			return apperrors.BadRequest("refresh token not found or already revoked")
		}
		return apperrors.InternalError("logout failed").WithCause(err)
	}

	return writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) error {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	user, err := h.authService.GetUserByID(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return apperrors.Unauthorized("account no longer exists")
		}
		return apperrors.DatabaseError("failed to load user").WithCause(err)
	}

	return writeJSON(w, http.StatusOK, MeResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

func validateRegisterRequest(req *RegisterRequest) error {
	if req.Name == "" {
		return errors.New("name is required")
	}
	if len(req.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}
	if req.Email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(req.Email) {
		return errors.New("invalid email format")
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
