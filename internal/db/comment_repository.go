package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrCommentNotFound = errors.New("comment not found")

type Comment struct {
	ID         int64
	ArticleID  int64
	Text       string
	AuthorName string
	CreatedAt  time.Time
}

type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *Comment) error {
	query := `
		INSERT INTO comments (article_id, text, author_name, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		comment.ArticleID, comment.Text, comment.AuthorName, comment.CreatedAt,
	).Scan(&comment.ID)
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	query := `
		SELECT id, article_id, text, author_name, created_at
		FROM comments
		WHERE id = $1
	`

	comment := &Comment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&comment.ID, &comment.ArticleID, &comment.Text, &comment.AuthorName, &comment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	return comment, nil
}

func (r *CommentRepository) List(ctx context.Context) ([]Comment, error) {
	return r.list(ctx, `
		SELECT id, article_id, text, author_name, created_at
		FROM comments
		ORDER BY id
	`)
}

func (r *CommentRepository) ListByArticle(ctx context.Context, articleID int64) ([]Comment, error) {
	return r.list(ctx, `
		SELECT id, article_id, text, author_name, created_at
		FROM comments
		WHERE article_id = $1
		ORDER BY id
	`, articleID)
}

func (r *CommentRepository) list(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.Text, &c.AuthorName, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func (r *CommentRepository) Update(ctx context.Context, comment *Comment) error {
	query := `
		UPDATE comments
		SET text = $1, author_name = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, comment.Text, comment.AuthorName, comment.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}
