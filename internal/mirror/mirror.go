// Package mirror maintains a JSON-file mirror of the published content.
// After every successful article or comment write the owning service asks
// the mirror to re-snapshot the collection; readers are served the raw
// snapshot bytes. Mirror writes are best-effort: a failed write is logged
// and never fails the originating request.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/newsblog/backend/internal/logger"
)

const (
	ArticlesObject = "articles.json"
	CommentsObject = "comments.json"
)

// Store is a place snapshot files can be written to and read back from.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Check(ctx context.Context) error
}

// DiskStore writes snapshots to a local directory, the way the original
// deployment kept articles.json next to the app.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mirror dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Put(ctx context.Context, name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *DiskStore) Get(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, name))
}

func (s *DiskStore) Check(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

// ObjectStore keeps snapshots in an S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func NewObjectStore(cfg *ObjectStoreConfig) (*ObjectStore, error) {
	// Strip protocol prefix if present (minio-go expects host:port)
	endpoint := cfg.Endpoint
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ObjectStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (s *ObjectStore) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", name, err)
	}
	return nil
}

func (s *ObjectStore) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", name, err)
	}
	return data, nil
}

func (s *ObjectStore) Check(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// Mirror snapshots collections into a Store.
type Mirror struct {
	store Store
	log   *logger.Logger
}

func New(store Store) *Mirror {
	return &Mirror{
		store: store,
		log:   logger.Default().WithComponent("mirror"),
	}
}

// Snapshot serializes v and writes it under name. Errors are logged, not
// returned: the mirror must never fail the write that triggered it.
func (m *Mirror) Snapshot(ctx context.Context, name string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		m.log.Error(ctx, "mirror serialization failed", err, map[string]interface{}{"object": name})
		return
	}

	if err := m.store.Put(ctx, name, data); err != nil {
		m.log.Error(ctx, "mirror write failed", err, map[string]interface{}{"object": name})
		return
	}

	m.log.Debug(ctx, "mirror updated", map[string]interface{}{"object": name, "bytes": len(data)})
}

// Read returns the raw snapshot bytes for name.
func (m *Mirror) Read(ctx context.Context, name string) ([]byte, error) {
	return m.store.Get(ctx, name)
}

// Check reports whether the backing store is reachable.
func (m *Mirror) Check(ctx context.Context) error {
	return m.store.Check(ctx)
}
