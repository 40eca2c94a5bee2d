// Package catalog seeds the shared model catalog bucket from a local
// directory and prepares the buckets every tenant shares.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/abduss/modelvault/internal/objectstore"
	"go.uber.org/zap"
)

type objectStore interface {
	EnsureBucket(ctx context.Context, bucket string) error
	SetPublicRead(ctx context.Context, bucket string) error
	Stat(ctx context.Context, bucket, key string) (objectstore.Object, error)
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, meta map[string]string) (objectstore.Ref, error)
}

// Result summarizes one sync run.
type Result struct {
	Uploaded int
	Skipped  int
	Failed   int
}

// Syncer mirrors a directory tree into the catalog bucket.
type Syncer struct {
	store  objectStore
	bucket string
	dir    string
	log    *zap.Logger
}

// NewSyncer constructs a Syncer for dir and bucket.
func NewSyncer(store objectStore, bucket, dir string, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{store: store, bucket: bucket, dir: dir, log: log}
}

// Bootstrap creates the shared buckets and opens the catalog bucket for
// anonymous reads.
func Bootstrap(ctx context.Context, store objectStore, catalogBucket string, shared ...string) error {
	for _, bucket := range append([]string{catalogBucket}, shared...) {
		if bucket == "" {
			continue
		}
		if err := store.EnsureBucket(ctx, bucket); err != nil {
			return err
		}
	}
	return store.SetPublicRead(ctx, catalogBucket)
}

// Run uploads every file under the directory that is missing from the
// bucket or differs in size. Per-file failures are logged and counted.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	var res Result
	if s.dir == "" {
		return res, nil
	}

	info, err := os.Stat(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Info("catalog directory missing, nothing to sync", zap.String("dir", s.dir))
			return res, nil
		}
		return res, fmt.Errorf("stat catalog dir: %w", err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("catalog path %q is not a directory", s.dir)
	}

	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		uploaded, err := s.syncFile(ctx, path, key)
		switch {
		case err != nil:
			res.Failed++
			s.log.Warn("catalog file sync failed", zap.String("key", key), zap.Error(err))
		case uploaded:
			res.Uploaded++
		default:
			res.Skipped++
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walk catalog dir: %w", err)
	}

	s.log.Info("catalog sync finished",
		zap.Int("uploaded", res.Uploaded),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// Start runs the sync in the background. It never blocks the caller.
func (s *Syncer) Start(ctx context.Context) {
	go func() {
		if _, err := s.Run(ctx); err != nil {
			s.log.Error("catalog sync aborted", zap.Error(err))
		}
	}()
}

func (s *Syncer) syncFile(ctx context.Context, path, key string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}

	existing, err := s.store.Stat(ctx, s.bucket, key)
	switch {
	case err == nil && existing.Size == info.Size():
		return false, nil
	case err != nil && !objectstore.IsObjectNotFound(err):
		return false, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if _, err := s.store.Put(ctx, s.bucket, key, f, info.Size(), contentType, nil); err != nil {
		return false, err
	}
	return true, nil
}
