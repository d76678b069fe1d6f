package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrArticleNotFound = errors.New("article not found")

type Article struct {
	ID         int64
	UserID     uuid.UUID
	Title      string
	Content    string
	Category   string
	AuthorName string
	CreatedAt  time.Time
}

type ArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

func (r *ArticleRepository) Create(ctx context.Context, article *Article) error {
	query := `
		INSERT INTO articles (user_id, title, content, category, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		article.UserID, article.Title, article.Content, article.Category, article.CreatedAt,
	).Scan(&article.ID)
}

const articleSelect = `
	SELECT a.id, a.user_id, a.title, a.content, a.category, u.name, a.created_at
	FROM articles a
	JOIN users u ON u.id = a.user_id
`

func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*Article, error) {
	article := &Article{}
	err := r.db.QueryRowContext(ctx, articleSelect+` WHERE a.id = $1`, id).Scan(
		&article.ID, &article.UserID, &article.Title, &article.Content,
		&article.Category, &article.AuthorName, &article.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	return article, nil
}

func (r *ArticleRepository) List(ctx context.Context) ([]Article, error) {
	return r.list(ctx, articleSelect+` ORDER BY a.id`)
}

func (r *ArticleRepository) ListByCategory(ctx context.Context, category string) ([]Article, error) {
	return r.list(ctx, articleSelect+` WHERE a.category = $1 ORDER BY a.id`, category)
}

func (r *ArticleRepository) ListByDate(ctx context.Context) ([]Article, error) {
	return r.list(ctx, articleSelect+` ORDER BY a.created_at DESC, a.id DESC`)
}

func (r *ArticleRepository) list(ctx context.Context, query string, args ...any) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		var a Article
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Title, &a.Content,
			&a.Category, &a.AuthorName, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	return articles, rows.Err()
}

func (r *ArticleRepository) Update(ctx context.Context, article *Article) error {
	query := `
		UPDATE articles
		SET title = $1, content = $2, category = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		article.Title, article.Content, article.Category, article.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrArticleNotFound
	}

	return nil
}

// Delete removes an article; its comments go with it via the FK cascade.
func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrArticleNotFound
	}

	return nil
}
