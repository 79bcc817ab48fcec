package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStorage stores objects in a Google Cloud Storage bucket.
type GCSStorage struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// GCSOptions configures the bucket connection.
type GCSOptions struct {
	Bucket          string
	CredentialsFile string
	// Prefix is prepended to every object name.
	Prefix string
}

// NewGCSStorage dials GCS and returns a bucket-scoped store.
func NewGCSStorage(ctx context.Context, opts GCSOptions) (*GCSStorage, error) {
	if opts.Bucket == "" {
		return nil, errors.New("gcs storage: bucket not set")
	}

	clientOpts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := storage.NewClient(dialCtx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage: create client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: client.Bucket(opts.Bucket),
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

// Save uploads data under the object name.
func (s *GCSStorage) Save(ctx context.Context, name string, data []byte) (string, error) {
	w := s.bucket.Object(s.key(name)).NewWriter(ctx)
	w.ContentType = contentTypeFor(name)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs storage: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs storage: commit %s: %w", name, err)
	}
	return name, nil
}

// Open streams the object contents.
func (s *GCSStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(s.key(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("gcs storage: read %s: %w", name, err)
	}
	return r, nil
}

// Delete removes the object; missing objects are ignored.
func (s *GCSStorage) Delete(ctx context.Context, name string) error {
	err := s.bucket.Object(s.key(name)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs storage: delete %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the object is present.
func (s *GCSStorage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.bucket.Object(s.key(name)).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("gcs storage: stat %s: %w", name, err)
	}
	return true, nil
}

// EnsureDir is a no-op; bucket namespaces are flat.
func (s *GCSStorage) EnsureDir(ctx context.Context, dir string) error {
	return nil
}

// Close releases the client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) key(name string) string {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if s.prefix == "" {
		return clean
	}
	return s.prefix + "/" + clean
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
