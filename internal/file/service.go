// Package file handles generic uploads into the shared uploads bucket.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"mime/multipart"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abduss/modelvault/internal/objectstore"
)

const defaultMaxFileSize = 100 * 1024 * 1024 // 100MB

var (
	allowedTypes = map[string]struct{}{
		"model/gltf-binary":        {},
		"model/gltf+json":          {},
		"application/octet-stream": {},
		"image/jpeg":               {},
		"image/jpg":                {},
		"image/png":                {},
		"image/webp":               {},
	}
	allowedExtensions = map[string]struct{}{
		".glb": {}, ".gltf": {}, ".ply": {}, ".obj": {}, ".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
	}
	contentTypes = map[string]string{
		".glb":  "model/gltf-binary",
		".gltf": "model/gltf+json",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
	}
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

type objectStore interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, meta map[string]string) (objectstore.Ref, error)
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, objectstore.Object, error)
	List(ctx context.Context, bucket, prefix string) iter.Seq2[objectstore.Object, error]
}

// Service manages uploads into a single shared bucket, one prefix per user.
type Service struct {
	objectStore  objectStore
	objectBucket string
	maxFileSize  int64
	now          func() time.Time
}

// NewService constructs a file service.
func NewService(store objectStore, objectBucket string, maxFileSize int64) *Service {
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	return &Service{
		objectStore:  store,
		objectBucket: objectBucket,
		maxFileSize:  maxFileSize,
		now:          time.Now,
	}
}

// Upload stores the file under {userID}/{unixMillis}_{name}.
func (s *Service) Upload(ctx context.Context, userID int64, username string, fileHeader *multipart.FileHeader) (Metadata, error) {
	if fileHeader == nil {
		return Metadata{}, ErrFileRequired
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowed(contentType, fileHeader.Filename) {
		return Metadata{}, ErrTypeNotAllowed
	}
	if fileHeader.Size > s.maxFileSize {
		return Metadata{}, ErrFileTooLarge
	}

	objectName := fmt.Sprintf("%d/%d_%s", userID, s.now().UnixMilli(), sanitizeFilename(fileHeader.Filename))

	file, err := fileHeader.Open()
	if err != nil {
		return Metadata{}, fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	reader := io.TeeReader(file, hasher)

	meta := map[string]string{
		"Original-Name": headerSafe(fileHeader.Filename),
		"Uploaded-By":   headerSafe(username),
		"User-Id":       strconv.FormatInt(userID, 10),
	}
	ref, err := s.objectStore.Put(ctx, s.objectBucket, objectName, reader, fileHeader.Size, contentType, meta)
	if err != nil {
		return Metadata{}, fmt.Errorf("store object: %w", err)
	}

	return Metadata{
		Bucket:      ref.Bucket,
		ObjectName:  ref.Key,
		URL:         ref.URL,
		FileName:    fileHeader.Filename,
		SizeBytes:   fileHeader.Size,
		ContentType: contentType,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// List returns the caller's uploads. A missing bucket yields none.
func (s *Service) List(ctx context.Context, userID int64) ([]Entry, error) {
	prefix := strconv.FormatInt(userID, 10) + "/"
	entries := make([]Entry, 0)
	for obj, err := range s.objectStore.List(ctx, s.objectBucket, prefix) {
		if err != nil {
			if objectstore.IsBucketNotFound(err) {
				return entries, nil
			}
			return nil, fmt.Errorf("list uploads: %w", err)
		}
		entries = append(entries, Entry{
			Name:         obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
		})
	}
	return entries, nil
}

// Open streams any object. The returned content type is derived from the
// key's extension.
func (s *Service) Open(ctx context.Context, bucketName, key string) (io.ReadCloser, int64, string, error) {
	if bucketName == "" || key == "" {
		return nil, 0, "", ErrObjectParams
	}

	reader, obj, err := s.objectStore.Get(ctx, bucketName, key)
	if err != nil {
		if objectstore.IsObjectNotFound(err) || objectstore.IsBucketNotFound(err) {
			return nil, 0, "", ErrFileNotFound
		}
		return nil, 0, "", fmt.Errorf("fetch object: %w", err)
	}
	return reader, obj.Size, ContentTypeFor(key), nil
}

// ContentTypeFor maps a key onto the content type served for it.
func ContentTypeFor(key string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func allowed(contentType, name string) bool {
	if _, ok := allowedTypes[strings.ToLower(contentType)]; ok {
		return true
	}
	_, ok := allowedExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return unsafeChars.ReplaceAllString(name, "_")
}

func headerSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '_'
		}
		return r
	}, s)
}
