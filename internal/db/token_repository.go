package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrTokenNotFound = errors.New("token not found")

// RefreshToken mirrors one issued refresh credential. The token column holds
// the exact signed token string; revocation flips the revoked flag, rows are
// only deleted by user cascade or expiry cleanup.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

type TokenRepository struct {
	db *DB
}

func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, issued_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Token, token.IssuedAt, token.ExpiresAt, token.Revoked,
	)
	return err
}

func (r *TokenRepository) GetByToken(ctx context.Context, tokenString string) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token, issued_at, expires_at, revoked
		FROM refresh_tokens
		WHERE token = $1
	`

	token := &RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenString).Scan(
		&token.ID, &token.UserID, &token.Token, &token.IssuedAt, &token.ExpiresAt, &token.Revoked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return token, nil
}

// Revoke marks a token revoked. The WHERE clause makes the check-then-act
// atomic: a token already revoked (or absent) reports ErrTokenNotFound.
func (r *TokenRepository) Revoke(ctx context.Context, tokenString string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token = $1 AND revoked = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, tokenString)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrTokenNotFound
	}

	return nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < NOW() OR revoked = TRUE
	`

	_, err := r.db.ExecContext(ctx, query)
	return err
}
