package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/newsblog/backend/internal/db"
	"golang.org/x/crypto/bcrypt"
)

const (
	AccessTokenExpiry  = time.Hour
	RefreshTokenExpiry = 30 * 24 * time.Hour
	BcryptCost         = 12

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrWrongTokenType     = errors.New("wrong token type")
)

// Claims carries the token payload: the owning user, the token kind
// ("access" or "refresh") and the registered iat/exp fields.
type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type AuthResponse struct {
	Message      string    `json:"message,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	User         *UserInfo `json:"user"`
}

type UserInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db.User, error)
}

// TokenStore persists refresh-token state so revocation is checkable
// independently of the token's self-contained claims.
type TokenStore interface {
	Create(ctx context.Context, token *db.RefreshToken) error
	GetByToken(ctx context.Context, tokenString string) (*db.RefreshToken, error)
	Revoke(ctx context.Context, tokenString string) error
}

type Service struct {
	users     UserStore
	tokens    TokenStore
	jwtSecret []byte
	now       func() time.Time
}

// NewService builds the token service. now may be nil, in which case
// time.Now is used; tests inject a fixed clock to exercise expiry.
func NewService(users UserStore, tokens TokenStore, jwtSecret string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		users:     users,
		tokens:    tokens,
		jwtSecret: []byte(jwtSecret),
		now:       now,
	}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &db.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.generateTokens(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(ctx, user)
}

// Refresh verifies a refresh token and mints a new access token for its
// owner. Both the signed claims and the stored row must agree on the user;
// the row must be live. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", ErrWrongTokenType
	}

	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, db.ErrTokenNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	if stored.UserID.String() != claims.UserID {
		return "", ErrInvalidToken
	}

	if stored.Revoked {
		return "", ErrTokenRevoked
	}

	if s.now().After(stored.ExpiresAt) {
		// A present but expired row is retired so it can never come back.
		if err := s.tokens.Revoke(ctx, refreshToken); err != nil && !errors.Is(err, db.ErrTokenNotFound) {
			return "", err
		}
		return "", ErrTokenExpired
	}

	return s.IssueAccessToken(stored.UserID)
}

// Revoke marks the matching non-revoked refresh token revoked. Revoking an
// unknown or already-revoked token reports ErrTokenNotFound with no side
// effects, so the operation is idempotent.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	err := s.tokens.Revoke(ctx, refreshToken)
	if errors.Is(err, db.ErrTokenNotFound) {
		return db.ErrTokenNotFound
	}
	return err
}

// VerifyAccessToken checks signature, kind and expiry, returning the owning
// user id. Validity is derived purely from the token and the current time.
func (s *Service) VerifyAccessToken(tokenString string) (uuid.UUID, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}

	if claims.TokenType != TokenTypeAccess {
		return uuid.Nil, ErrWrongTokenType
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) generateTokens(ctx context.Context, user *db.User) (*AuthResponse, error) {
	accessToken, err := s.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: &UserInfo{
			ID:        user.ID.String(),
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}

// IssueAccessToken mints a short-lived stateless access token.
func (s *Service) IssueAccessToken(userID uuid.UUID) (string, error) {
	return s.signToken(userID, TokenTypeAccess, AccessTokenExpiry)
}

// IssueRefreshToken mints a long-lived refresh token and persists its state
// for revocation checks.
func (s *Service) IssueRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	now := s.now()

	tokenString, err := s.signToken(userID, TokenTypeRefresh, RefreshTokenExpiry)
	if err != nil {
		return "", err
	}

	refreshToken := &db.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     tokenString,
		IssuedAt:  now,
		ExpiresAt: now.Add(RefreshTokenExpiry),
		Revoked:   false,
	}

	if err := s.tokens.Create(ctx, refreshToken); err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *Service) signToken(userID uuid.UUID, tokenType string, expiry time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:    userID.String(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "newsblog",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
