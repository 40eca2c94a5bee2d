// Package objectstore wraps the MinIO SDK with the bucket-scoped blob
// operations the rest of the service builds on.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"
	"time"

	"github.com/abduss/modelvault/internal/metrics"
	"github.com/minio/minio-go/v7"
)

const (
	defaultObjectStoreTimeout = 5 * time.Second
	// DefaultPresignTTL applies when neither the caller nor the config set one.
	DefaultPresignTTL = time.Hour
	maxPresignTTL     = 7 * 24 * time.Hour
)

// Store performs object operations against a single backing client.
type Store struct {
	client Client
	cfg    Config
}

// New constructs a Store.
func New(client Client, cfg Config) *Store {
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = DefaultPresignTTL
	}
	return &Store{client: client, cfg: cfg}
}

// EnsureBucket creates bucket unless it already exists.
func (s *Store) EnsureBucket(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, bucket)
	metrics.ObserveStorage("bucket_exists", err)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region})
	metrics.ObserveStorage("make_bucket", err)
	if err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	return nil
}

// BucketExists reports whether bucket is present.
func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, bucket)
	metrics.ObserveStorage("bucket_exists", err)
	if err != nil {
		return false, fmt.Errorf("check bucket existence: %w", err)
	}
	return exists, nil
}

// ListBuckets returns the names of every bucket visible to the client.
func (s *Store) ListBuckets(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	infos, err := s.client.ListBuckets(ctx)
	metrics.ObserveStorage("list_buckets", err)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names, nil
}

// SetPublicRead grants anonymous GetObject on every key in bucket.
func (s *Store) SetPublicRead(ctx context.Context, bucket string) error {
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)

	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	err := s.client.SetBucketPolicy(ctx, bucket, policy)
	metrics.ObserveStorage("set_policy", err)
	if err != nil {
		return fmt.Errorf("set bucket policy %q: %w", bucket, translate(err, bucket, ""))
	}
	return nil
}

// Put writes r under key, replacing any existing object. size may be -1
// when unknown.
func (s *Store) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, meta map[string]string) (Ref, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	metrics.ObserveStorage("put", err)
	if err != nil {
		return Ref{}, fmt.Errorf("put object: %w", translate(err, bucket, key))
	}

	return Ref{Bucket: bucket, Key: key, URL: s.ObjectURL(bucket, key)}, nil
}

// Stat returns object attributes including content type and user metadata.
func (s *Store) Stat(ctx context.Context, bucket, key string) (Object, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	metrics.ObserveStorage("stat", err)
	if err != nil {
		return Object{}, translate(err, bucket, key)
	}

	obj := toObject(info)
	obj.ContentType = info.ContentType
	if len(info.UserMetadata) > 0 {
		obj.Metadata = make(map[string]string, len(info.UserMetadata))
		for k, v := range info.UserMetadata {
			obj.Metadata[k] = v
		}
	}
	return obj, nil
}

// Get opens key for reading. The object is stat'ed first so a missing key
// fails here rather than on the first Read. Callers must close the reader.
func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, Object, error) {
	obj, err := s.Stat(ctx, bucket, key)
	if err != nil {
		return nil, Object{}, err
	}

	rc, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	metrics.ObserveStorage("get", err)
	if err != nil {
		return nil, Object{}, fmt.Errorf("get object: %w", translate(err, bucket, key))
	}
	return rc, obj, nil
}

// Delete removes key. Deleting an absent object, or an object in an absent
// bucket, succeeds.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	err := translate(s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}), bucket, key)
	metrics.ObserveStorage("delete", err)
	if err != nil && !IsObjectNotFound(err) && !IsBucketNotFound(err) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// Copy duplicates an object by streaming it through this process, keeping
// its content type and user metadata. Server-side copy is not used.
func (s *Store) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (Ref, error) {
	rc, obj, err := s.Get(ctx, srcBucket, srcKey)
	if err != nil {
		return Ref{}, err
	}
	defer rc.Close()

	ref, err := s.Put(ctx, dstBucket, dstKey, rc, obj.Size, obj.ContentType, obj.Metadata)
	if err != nil {
		return Ref{}, fmt.Errorf("copy %s/%s: %w", srcBucket, srcKey, err)
	}
	return ref, nil
}

// List lazily yields every object under prefix. Iteration stops after the
// first error, which is ErrBucketNotFound when the bucket does not exist.
// Each call issues a fresh listing.
func (s *Store) List(ctx context.Context, bucket, prefix string) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if info.Err != nil {
				err := translate(info.Err, bucket, "")
				metrics.ObserveStorage("list", err)
				yield(Object{}, err)
				return
			}
			if !yield(toObject(info), nil) {
				return
			}
		}
		metrics.ObserveStorage("list", nil)
	}
}

// ListAll drains List into a slice.
func (s *Store) ListAll(ctx context.Context, bucket, prefix string) ([]Object, error) {
	var objects []Object
	for obj, err := range s.List(ctx, bucket, prefix) {
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// PresignGet returns a URL granting read access to key for ttl. A zero ttl
// selects the configured default.
func (s *Store) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	ttl, err := s.presignTTL(ttl)
	if err != nil {
		return "", err
	}

	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	metrics.ObserveStorage("presign_get", err)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", translate(err, bucket, key))
	}
	return u.String(), nil
}

// PresignPut returns a URL granting write access to key for ttl.
func (s *Store) PresignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	ttl, err := s.presignTTL(ttl)
	if err != nil {
		return "", err
	}

	u, err := s.client.PresignedPutObject(ctx, bucket, key, ttl)
	metrics.ObserveStorage("presign_put", err)
	if err != nil {
		return "", fmt.Errorf("presign put: %w", translate(err, bucket, key))
	}
	return u.String(), nil
}

// PresignTTL reports the default presign lifetime.
func (s *Store) PresignTTL() time.Duration {
	return s.cfg.PresignTTL
}

func (s *Store) presignTTL(ttl time.Duration) (time.Duration, error) {
	if ttl == 0 {
		return s.cfg.PresignTTL, nil
	}
	if ttl < time.Second || ttl > maxPresignTTL {
		return 0, ErrInvalidTTL
	}
	return ttl, nil
}

// ObjectURL synthesizes the path-style URL of an object.
func (s *Store) ObjectURL(bucket, key string) string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	host := strings.TrimPrefix(strings.TrimPrefix(s.cfg.Endpoint, "http://"), "https://")

	u := url.URL{Scheme: scheme, Host: host, Path: "/" + bucket + "/" + key}
	return u.String()
}

func toObject(info minio.ObjectInfo) Object {
	return Object{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ETag:         strings.Trim(info.ETag, `"`),
	}
}
