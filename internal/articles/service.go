package articles

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/newsblog/backend/internal/auth"
	"github.com/newsblog/backend/internal/db"
	apperrors "github.com/newsblog/backend/internal/errors"
	"github.com/newsblog/backend/internal/mirror"
)

// Categories is the fixed allow-list for article categories. Filtering by
// anything else is an error, so "empty category" and "no such category" stay
// distinguishable.
var Categories = []string{"technology", "science", "politics", "sports", "culture", "general"}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

const (
	cacheTTL     = 30 * time.Second
	cacheKeyList = "articles:list"
	cacheKeyDate = "articles:date"
)

func cacheKeyCategory(category string) string {
	return "articles:category:" + category
}

// Article is the wire shape of an article, shared by the live API and the
// JSON mirror snapshots.
type Article struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	AuthorName string    `json:"author_name"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func fromRow(a *db.Article) Article {
	return Article{
		ID:         a.ID,
		Title:      a.Title,
		Content:    a.Content,
		Category:   a.Category,
		AuthorName: a.AuthorName,
		UserID:     a.UserID.String(),
		CreatedAt:  a.CreatedAt,
	}
}

func fromRows(rows []db.Article) []Article {
	out := make([]Article, 0, len(rows))
	for i := range rows {
		out = append(out, fromRow(&rows[i]))
	}
	return out
}

// ArticleStore is the slice of the article repository the service needs.
type ArticleStore interface {
	Create(ctx context.Context, article *db.Article) error
	GetByID(ctx context.Context, id int64) (*db.Article, error)
	List(ctx context.Context) ([]db.Article, error)
	ListByCategory(ctx context.Context, category string) ([]db.Article, error)
	ListByDate(ctx context.Context) ([]db.Article, error)
	Update(ctx context.Context, article *db.Article) error
	Delete(ctx context.Context, id int64) error
}

// Cache is the read-cache seam; both it and the mirror are optional.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// Mirrorer re-snapshots the article collection after writes.
type Mirrorer interface {
	Snapshot(ctx context.Context, name string, v any)
}

type Service struct {
	store  ArticleStore
	cache  Cache
	mirror Mirrorer
	now    func() time.Time
}

func NewService(store ArticleStore, cache Cache, m Mirrorer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  store,
		cache:  cache,
		mirror: m,
		now:    now,
	}
}

// Create inserts a new article owned by the acting principal. The owner is
// always the principal; any author field in the payload is ignored.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, title, content, category string) (*Article, error) {
	row := &db.Article{
		UserID:    principal.ID,
		Title:     title,
		Content:   content,
		Category:  category,
		CreatedAt: s.now(),
	}

	if err := s.store.Create(ctx, row); err != nil {
		return nil, apperrors.DatabaseError("failed to create article").WithCause(err)
	}
	row.AuthorName = principal.Name

	s.afterWrite(ctx)
	article := fromRow(row)
	return &article, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Article, error) {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrArticleNotFound) {
			return nil, apperrors.ArticleNotFound()
		}
		return nil, apperrors.DatabaseError("failed to load article").WithCause(err)
	}

	article := fromRow(row)
	return &article, nil
}

func (s *Service) List(ctx context.Context) ([]Article, error) {
	return s.cachedList(ctx, cacheKeyList, s.store.List)
}

func (s *Service) ListByDate(ctx context.Context) ([]Article, error) {
	return s.cachedList(ctx, cacheKeyDate, s.store.ListByDate)
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]Article, error) {
	if !ValidCategory(category) {
		return nil, apperrors.InvalidCategory(category)
	}

	return s.cachedList(ctx, cacheKeyCategory(category), func(ctx context.Context) ([]db.Article, error) {
		return s.store.ListByCategory(ctx, category)
	})
}

func (s *Service) cachedList(ctx context.Context, key string, load func(context.Context) ([]db.Article, error)) ([]Article, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			var articles []Article
			if err := json.Unmarshal([]byte(cached), &articles); err == nil {
				return articles, nil
			}
		}
	}

	rows, err := load(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list articles").WithCause(err)
	}
	articles := fromRows(rows)

	if s.cache != nil {
		if data, err := json.Marshal(articles); err == nil {
			s.cache.Set(ctx, key, string(data), cacheTTL)
		}
	}

	return articles, nil
}

// Update modifies an article. Only the owner may update; a non-owner gets
// Forbidden, which is distinct from the article not existing at all.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id int64, title, content, category string) (*Article, error) {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrArticleNotFound) {
			return nil, apperrors.ArticleNotFound()
		}
		return nil, apperrors.DatabaseError("failed to load article").WithCause(err)
	}

	if row.UserID != principal.ID {
		return nil, apperrors.Forbidden("you do not own this article")
	}

	row.Title = title
	row.Content = content
	row.Category = category

	if err := s.store.Update(ctx, row); err != nil {
		if errors.Is(err, db.ErrArticleNotFound) {
			return nil, apperrors.ArticleNotFound()
		}
		return nil, apperrors.DatabaseError("failed to update article").WithCause(err)
	}

	s.afterWrite(ctx)
	article := fromRow(row)
	return &article, nil
}

// Delete removes an article and, by cascade, its comments. Owner only.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrArticleNotFound) {
			return apperrors.ArticleNotFound()
		}
		return apperrors.DatabaseError("failed to load article").WithCause(err)
	}

	if row.UserID != principal.ID {
		return apperrors.Forbidden("you do not own this article")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrArticleNotFound) {
			return apperrors.ArticleNotFound()
		}
		return apperrors.DatabaseError("failed to delete article").WithCause(err)
	}

	s.afterWrite(ctx)
	return nil
}

// Search returns articles whose title or content contains the query,
// ignoring case and diacritics.
func (s *Service) Search(ctx context.Context, query string) ([]Article, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list articles").WithCause(err)
	}

	needle := Fold(query)
	matches := []Article{}
	for i := range rows {
		if containsFolded(rows[i].Title, needle) || containsFolded(rows[i].Content, needle) {
			matches = append(matches, fromRow(&rows[i]))
		}
	}

	return matches, nil
}

// afterWrite refreshes derived state: drops stale cache entries and
// re-snapshots the mirror. Both are best-effort.
func (s *Service) afterWrite(ctx context.Context) {
	if s.cache != nil {
		keys := []string{cacheKeyList, cacheKeyDate}
		for _, c := range Categories {
			keys = append(keys, cacheKeyCategory(c))
		}
		s.cache.Delete(ctx, keys...)
	}

	if s.mirror != nil {
		rows, err := s.store.List(ctx)
		if err != nil {
			return
		}
		s.mirror.Snapshot(ctx, mirror.ArticlesObject, fromRows(rows))
	}
}
