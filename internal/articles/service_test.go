package articles

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/newsblog/backend/internal/auth"
	"github.com/newsblog/backend/internal/db"
	apperrors "github.com/newsblog/backend/internal/errors"
)

type fakeArticleStore struct {
	nextID   int64
	articles map[int64]*db.Article
	authors  map[uuid.UUID]string
}

func newFakeArticleStore() *fakeArticleStore {
	return &fakeArticleStore{
		nextID:   1,
		articles: make(map[int64]*db.Article),
		authors:  make(map[uuid.UUID]string),
	}
}

func (f *fakeArticleStore) Create(ctx context.Context, article *db.Article) error {
	article.ID = f.nextID
	f.nextID++
	copied := *article
	if name, ok := f.authors[article.UserID]; ok {
		copied.AuthorName = name
	}
	f.articles[article.ID] = &copied
	return nil
}

func (f *fakeArticleStore) GetByID(ctx context.Context, id int64) (*db.Article, error) {
	if a, ok := f.articles[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, db.ErrArticleNotFound
}

func (f *fakeArticleStore) List(ctx context.Context) ([]db.Article, error) {
	out := make([]db.Article, 0, len(f.articles))
	for _, a := range f.articles {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeArticleStore) ListByCategory(ctx context.Context, category string) ([]db.Article, error) {
	all, _ := f.List(ctx)
	out := make([]db.Article, 0)
	for _, a := range all {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeArticleStore) ListByDate(ctx context.Context) ([]db.Article, error) {
	all, _ := f.List(ctx)
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return all, nil
}

func (f *fakeArticleStore) Update(ctx context.Context, article *db.Article) error {
	if _, ok := f.articles[article.ID]; !ok {
		return db.ErrArticleNotFound
	}
	copied := *article
	f.articles[article.ID] = &copied
	return nil
}

func (f *fakeArticleStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.articles[id]; !ok {
		return db.ErrArticleNotFound
	}
	delete(f.articles, id)
	return nil
}

type fakeCache struct {
	entries map[string]string
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool) {
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	f.entries[key] = value
	f.sets++
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) {
	for _, k := range keys {
		delete(f.entries, k)
	}
	f.deletes++
}

type fakeMirror struct {
	snapshots map[string]any
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{snapshots: make(map[string]any)}
}

func (f *fakeMirror) Snapshot(ctx context.Context, name string, v any) {
	f.snapshots[name] = v
}

func testPrincipal(name string) *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Name: name, Email: name + "@example.com"}
}

func wantAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("got %v, want *AppError with code %s", err, code)
	}
	if appErr.Code != code {
		t.Fatalf("error code = %s, want %s", appErr.Code, code)
	}
}

func TestCreateSetsOwnerAndAuthor(t *testing.T) {
	store := newFakeArticleStore()
	svc := NewService(store, nil, nil, nil)
	alice := testPrincipal("Alice")
	store.authors[alice.ID] = alice.Name

	article, err := svc.Create(context.Background(), alice, "First Post", "hello world", "technology")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if article.ID == 0 {
		t.Error("created article should have a server-assigned id")
	}
	if article.UserID != alice.ID.String() {
		t.Errorf("owner = %s, want %s", article.UserID, alice.ID)
	}
	if article.AuthorName != "Alice" {
		t.Errorf("author_name = %q, want Alice", article.AuthorName)
	}
}

func TestUpdateRequiresOwnership(t *testing.T) {
	store := newFakeArticleStore()
	svc := NewService(store, nil, nil, nil)
	alice := testPrincipal("Alice")
	bob := testPrincipal("Bob")

	created, err := svc.Create(context.Background(), alice, "Alice's Post", "content", "science")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Update(context.Background(), bob, created.ID, "Hijacked", "content", "science")
	wantAppError(t, err, apperrors.CodeForbidden)

	// The article is untouched.
	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "Alice's Post" {
		t.Errorf("title = %q, forbidden update must not modify the article", got.Title)
	}

	// The owner can still update.
	updated, err := svc.Update(context.Background(), alice, created.ID, "Revised", "content", "science")
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Title != "Revised" {
		t.Errorf("title = %q, want Revised", updated.Title)
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	store := newFakeArticleStore()
	svc := NewService(store, nil, nil, nil)
	alice := testPrincipal("Alice")
	bob := testPrincipal("Bob")

	created, err := svc.Create(context.Background(), alice, "Alice's Post", "content", "sports")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	wantAppError(t, svc.Delete(context.Background(), bob, created.ID), apperrors.CodeForbidden)
	if _, err := svc.Get(context.Background(), created.ID); err != nil {
		t.Fatal("forbidden delete must not remove the article")
	}

	if err := svc.Delete(context.Background(), alice, created.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	_, err = svc.Get(context.Background(), created.ID)
	wantAppError(t, err, apperrors.CodeArticleNotFound)
}

func TestUpdateMissingArticle(t *testing.T) {
	svc := NewService(newFakeArticleStore(), nil, nil, nil)

	_, err := svc.Update(context.Background(), testPrincipal("Alice"), 42, "Title", "content", "general")
	wantAppError(t, err, apperrors.CodeArticleNotFound)
}

func TestListByCategoryRejectsUnknown(t *testing.T) {
	svc := NewService(newFakeArticleStore(), nil, nil, nil)

	_, err := svc.ListByCategory(context.Background(), "gossip")
	wantAppError(t, err, apperrors.CodeInvalidCategory)
}

func TestListByCategoryEmptyIsNotAnError(t *testing.T) {
	store := newFakeArticleStore()
	svc := NewService(store, nil, nil, nil)
	alice := testPrincipal("Alice")

	if _, err := svc.Create(context.Background(), alice, "Tech Post", "content", "technology"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	articles, err := svc.ListByCategory(context.Background(), "culture")
	if err != nil {
		t.Fatalf("valid but empty category should not error: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("got %d articles, want 0", len(articles))
	}
}

func TestSearchIgnoresCaseAndDiacritics(t *testing.T) {
	store := newFakeArticleStore()
	svc := NewService(store, nil, nil, nil)
	alice := testPrincipal("Alice")

	if _, err := svc.Create(context.Background(), alice, "Café Économie", "growth outlook", "politics"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), alice, "Sports Roundup", "the weekly résumé", "sports"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	matches, err := svc.Search(context.Background(), "CAFE")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Title != "Café Économie" {
		t.Errorf("search CAFE matched %d articles, want the café article", len(matches))
	}

	// Content is searched too.
	matches, err = svc.Search(context.Background(), "resume")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Title != "Sports Roundup" {
		t.Errorf("search resume matched %d articles, want the roundup", len(matches))
	}

	matches, err = svc.Search(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches, want 0", len(matches))
	}
}

func TestListReadsThroughCache(t *testing.T) {
	store := newFakeArticleStore()
	cache := newFakeCache()
	svc := NewService(store, cache, nil, nil)
	alice := testPrincipal("Alice")

	if _, err := svc.Create(context.Background(), alice, "Cached Post", "content", "general"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if cache.sets == 0 {
		t.Error("list should populate the cache")
	}

	// Mutate the store behind the cache's back; the stale entry is served.
	store.articles[first[0].ID].Title = "Changed Underneath"
	second, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if second[0].Title != "Cached Post" {
		t.Errorf("title = %q, want the cached value", second[0].Title)
	}

	// A write invalidates, so the next list sees fresh rows.
	if _, err := svc.Create(context.Background(), alice, "Another Post", "content", "general"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	third, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(third) != 2 {
		t.Errorf("got %d articles after invalidation, want 2", len(third))
	}
	if third[0].Title != "Changed Underneath" {
		t.Errorf("title = %q, want the fresh store value", third[0].Title)
	}
}

func TestWritesSnapshotMirror(t *testing.T) {
	store := newFakeArticleStore()
	m := newFakeMirror()
	svc := NewService(store, nil, m, nil)
	alice := testPrincipal("Alice")

	created, err := svc.Create(context.Background(), alice, "Mirrored Post", "content", "science")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	snap, ok := m.snapshots["articles.json"].([]Article)
	if !ok || len(snap) != 1 {
		t.Fatalf("snapshot after create = %#v, want one article", m.snapshots)
	}
	if snap[0].Title != "Mirrored Post" {
		t.Errorf("snapshot title = %q, want Mirrored Post", snap[0].Title)
	}

	if err := svc.Delete(context.Background(), alice, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	snap, ok = m.snapshots["articles.json"].([]Article)
	if !ok || len(snap) != 0 {
		t.Errorf("snapshot after delete = %#v, want empty list", m.snapshots)
	}
}
