package sources

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docprompt/internal/storage"
)

// ObjectStore abstracts the object storage reads the bucket resolver needs.
type ObjectStore interface {
	ListPrefix(ctx context.Context, bucket, prefix string) ([]string, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3Store implements ObjectStore with the minio-go SDK against MinIO or S3.
type S3Store struct {
	client *minio.Client
}

// NewS3Store creates an S3Store. endpoint may be "host:port" or a URL; an https URL enables TLS.
func NewS3Store(endpoint, accessKey, secretKey string, useSSL bool) (*S3Store, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &S3Store{client: client}, nil
}

// ListPrefix returns every object key under prefix.
func (s *S3Store) ListPrefix(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	objectCh := s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for obj := range objectCh {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// GetObject reads a whole object.
func (s *S3Store) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer func() {
		_ = obj.Close()
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// BucketResolver exposes the text objects of a bucket export.
// Source config: "bucket", optional "prefix". Item paths are keys relative to the prefix.
type BucketResolver struct {
	store ObjectStore
}

// NewBucketResolver creates a BucketResolver.
func NewBucketResolver(store ObjectStore) *BucketResolver {
	return &BucketResolver{store: store}
}

// Items lists the text objects under the configured prefix.
func (r *BucketResolver) Items(ctx context.Context, src storage.SourceRecord) (*ItemSet, error) {
	if r.store == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	bucket := configString(src.Config, "bucket")
	if bucket == "" {
		return nil, fmt.Errorf("bucket source %s has no bucket", src.Name)
	}
	prefix := configString(src.Config, "prefix")

	keys, err := r.store.ListPrefix(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	var selected, paths []string
	for _, key := range keys {
		if strings.HasSuffix(key, "/") || !IsTextFile(key) {
			continue
		}
		selected = append(selected, key)
		paths = append(paths, strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/"))
	}

	return &ItemSet{
		Count:  len(selected),
		PathOf: func(i int) string { return paths[i] },
		Resolve: func(ctx context.Context, i int) (*Content, error) {
			data, err := r.store.GetObject(ctx, bucket, selected[i])
			if err != nil {
				return nil, err
			}
			return &Content{
				Name:     path.Base(selected[i]),
				Content:  toText(selected[i], data),
				Metadata: map[string]any{"bucket": bucket, "key": selected[i]},
			}, nil
		},
	}, nil
}
