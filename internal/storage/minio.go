package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// ObjectStoreBackend stores images in an S3-compatible bucket (MinIO
// locally, Railway in production). The target endpoints do not support
// subdomain-per-bucket, so the client is pinned to path-style addressing.
type ObjectStoreBackend struct {
	client     *minio.Client
	bucket     string
	collection string
}

// NewObjectStoreBackend creates the S3 client and ensures the bucket exists.
// The bucket stays private: objects are served through the /images proxy,
// never by direct backend URL.
func NewObjectStoreBackend(endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*ObjectStoreBackend, error) {
	client, err := minio.New(trimScheme(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage: create client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("object storage: check bucket existence: %w: %w", ErrUnavailable, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("object storage: create bucket %q: %w", bucket, err)
		}
		log.Info().Str("bucket", bucket).Msg("storage: created bucket")
	}

	return &ObjectStoreBackend{
		client:     client,
		bucket:     bucket,
		collection: DefaultCollection,
	}, nil
}

// Name implements Backend.
func (o *ObjectStoreBackend) Name() string { return "object-store" }

// Put stores data under a UUID key in the collection prefix and returns the
// key. The content type is derived from the original file extension.
func (o *ObjectStoreBackend) Put(ctx context.Context, data []byte, originalName string) (string, error) {
	key := objectKey(o.collection, originalName)
	_, err := o.client.PutObject(ctx, o.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentTypeForExt(filepath.Ext(originalName)),
	})
	if err != nil {
		return "", fmt.Errorf("object storage: put %q: %w: %w", key, ErrUnavailable, err)
	}
	return key, nil
}

// Get opens the object at key. Missing objects map to ErrNotFound, every
// other backend failure to ErrUnavailable.
func (o *ObjectStoreBackend) Get(ctx context.Context, key string) (*Object, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("object storage: get %q: %w: %w", key, ErrUnavailable, err)
	}
	// GetObject is lazy; Stat performs the request and surfaces missing keys.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, fmt.Errorf("object storage: get %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("object storage: get %q: %w: %w", key, ErrUnavailable, err)
	}
	return &Object{ReadCloser: obj, ContentType: info.ContentType, Size: info.Size}, nil
}

// Delete removes the object at key. Absent objects count as success, and
// other failures are logged without being raised: a leaked blob is
// preferable to blocking the record deletion around it.
func (o *ObjectStoreBackend) Delete(ctx context.Context, key string) error {
	err := o.client.RemoveObject(ctx, o.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		log.Warn().Err(err).Str("key", key).Msg("object storage: delete failed")
	}
	return nil
}

// URL implements Backend. Keys are %2F-encoded into a single path segment of
// the proxy route, which streams the bytes on demand.
func (o *ObjectStoreBackend) URL(key string) string {
	return "/images/" + url.PathEscape(key)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == 404 || resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}

// objectKey builds the canonical key for a new upload: a UUID filename under
// the collection prefix, keeping the original extension (jpg when absent).
func objectKey(collection, originalName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if ext == "" {
		ext = "jpg"
	}
	return collection + "/" + uuid.NewString() + "." + ext
}

func trimScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimSuffix(endpoint, "/")
}
