package comments

import (
	"context"
	"errors"
	"time"

	"github.com/newsblog/backend/internal/auth"
	"github.com/newsblog/backend/internal/db"
	apperrors "github.com/newsblog/backend/internal/errors"
	"github.com/newsblog/backend/internal/mirror"
)

// Comment is the wire shape of a comment, shared by the live API and the
// JSON mirror snapshots.
type Comment struct {
	ID         int64     `json:"id"`
	ArticleID  int64     `json:"article_id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

func fromRow(c *db.Comment) Comment {
	return Comment{
		ID:         c.ID,
		ArticleID:  c.ArticleID,
		Text:       c.Text,
		AuthorName: c.AuthorName,
		CreatedAt:  c.CreatedAt,
	}
}

func fromRows(rows []db.Comment) []Comment {
	out := make([]Comment, 0, len(rows))
	for i := range rows {
		out = append(out, fromRow(&rows[i]))
	}
	return out
}

// CommentStore is the slice of the comment repository the service needs.
type CommentStore interface {
	Create(ctx context.Context, comment *db.Comment) error
	GetByID(ctx context.Context, id int64) (*db.Comment, error)
	List(ctx context.Context) ([]db.Comment, error)
	ListByArticle(ctx context.Context, articleID int64) ([]db.Comment, error)
	Update(ctx context.Context, comment *db.Comment) error
	Delete(ctx context.Context, id int64) error
}

// ArticleStore verifies the parent article before attaching a comment.
type ArticleStore interface {
	GetByID(ctx context.Context, id int64) (*db.Article, error)
}

// Mirrorer re-snapshots the comment collection after writes.
type Mirrorer interface {
	Snapshot(ctx context.Context, name string, v any)
}

type Service struct {
	store    CommentStore
	articles ArticleStore
	mirror   Mirrorer
	now      func() time.Time
}

func NewService(store CommentStore, articles ArticleStore, m Mirrorer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		articles: articles,
		mirror:   m,
		now:      now,
	}
}

// Create attaches a comment to an existing article. author_name is free
// text, not a user reference; when omitted it falls back to the acting
// principal's name.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, articleID int64, text, authorName string) (*Comment, error) {
	if _, err := s.articles.GetByID(ctx, articleID); err != nil {
		if errors.Is(err, db.ErrArticleNotFound) {
			return nil, apperrors.ArticleNotFound()
		}
		return nil, apperrors.DatabaseError("failed to load article").WithCause(err)
	}

	if authorName == "" && principal != nil {
		authorName = principal.Name
	}

	row := &db.Comment{
		ArticleID:  articleID,
		Text:       text,
		AuthorName: authorName,
		CreatedAt:  s.now(),
	}

	if err := s.store.Create(ctx, row); err != nil {
		return nil, apperrors.DatabaseError("failed to create comment").WithCause(err)
	}

	s.afterWrite(ctx)
	comment := fromRow(row)
	return &comment, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Comment, error) {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrCommentNotFound) {
			return nil, apperrors.CommentNotFound()
		}
		return nil, apperrors.DatabaseError("failed to load comment").WithCause(err)
	}

	comment := fromRow(row)
	return &comment, nil
}

func (s *Service) List(ctx context.Context) ([]Comment, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list comments").WithCause(err)
	}
	return fromRows(rows), nil
}

func (s *Service) ListByArticle(ctx context.Context, articleID int64) ([]Comment, error) {
	rows, err := s.store.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list comments").WithCause(err)
	}
	return fromRows(rows), nil
}

func (s *Service) Update(ctx context.Context, id int64, text, authorName string) (*Comment, error) {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrCommentNotFound) {
			return nil, apperrors.CommentNotFound()
		}
		return nil, apperrors.DatabaseError("failed to load comment").WithCause(err)
	}

	row.Text = text
	if authorName != "" {
		row.AuthorName = authorName
	}

	if err := s.store.Update(ctx, row); err != nil {
		if errors.Is(err, db.ErrCommentNotFound) {
			return nil, apperrors.CommentNotFound()
		}
		return nil, apperrors.DatabaseError("failed to update comment").WithCause(err)
	}

	s.afterWrite(ctx)
	comment := fromRow(row)
	return &comment, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrCommentNotFound) {
			return apperrors.CommentNotFound()
		}
		return apperrors.DatabaseError("failed to delete comment").WithCause(err)
	}

	s.afterWrite(ctx)
	return nil
}

func (s *Service) afterWrite(ctx context.Context) {
	if s.mirror == nil {
		return
	}
	rows, err := s.store.List(ctx)
	if err != nil {
		return
	}
	s.mirror.Snapshot(ctx, mirror.CommentsObject, fromRows(rows))
}
