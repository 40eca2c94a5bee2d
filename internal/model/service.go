package model

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/abduss/modelvault/internal/bucket"
	"github.com/abduss/modelvault/internal/quota"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const catalogConcurrency = 8

type bucketResolver interface {
	Resolve(ctx context.Context, userID int64) (string, error)
	Lookup(ctx context.Context, userID int64) (bucket.Assignment, error)
	Tenants(ctx context.Context) ([]string, error)
}

type quotaChecker interface {
	CheckAndReserve(ctx context.Context, userID int64, bucket string, incoming int64) (quota.Snapshot, error)
}

type presigner interface {
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Service ties tenant resolution, quota checks and presigning around the Manager.
type Service struct {
	buckets   bucketResolver
	quota     quotaChecker
	manager   *Manager
	presigner presigner
	shared    []string
	log       *zap.Logger
}

// NewService constructs a model service.
func NewService(buckets bucketResolver, quota quotaChecker, manager *Manager, presigner presigner, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		buckets:   buckets,
		quota:     quota,
		manager:   manager,
		presigner: presigner,
		log:       log,
	}
}

// WithSharedBuckets adds non-tenant buckets, such as the seeded catalog, to
// the public catalog.
func (s *Service) WithSharedBuckets(names ...string) *Service {
	s.shared = append(s.shared, names...)
	return s
}

// Catalog lists models across every shared and tenant bucket. A bucket that
// fails to list is logged and skipped.
func (s *Service) Catalog(ctx context.Context) ([]Model, error) {
	assigned, err := s.buckets.Tenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	tenants := append(slices.Clone(s.shared), assigned...)
	slices.Sort(tenants)
	tenants = slices.Compact(tenants)

	var (
		mu  sync.Mutex
		all = make([]Model, 0)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogConcurrency)
	for _, name := range tenants {
		g.Go(func() error {
			models, err := s.manager.List(gctx, name)
			if err != nil {
				s.log.Warn("skip bucket in catalog", zap.String("bucket", name), zap.Error(err))
				return nil
			}
			mu.Lock()
			all = append(all, models...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(all, func(a, b Model) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Bucket, b.Bucket); c != 0 {
			return c
		}
		return cmp.Compare(a.Folder, b.Folder)
	})

	if err := s.presign(ctx, all); err != nil {
		return nil, err
	}
	return all, nil
}

// UserModels lists the caller's models. Users without a bucket have none.
func (s *Service) UserModels(ctx context.Context, userID int64) ([]Model, error) {
	assignment, err := s.buckets.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	name, ok := assignment.Name()
	if !ok {
		return []Model{}, nil
	}

	models, err := s.manager.List(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.presign(ctx, models); err != nil {
		return nil, err
	}
	return models, nil
}

// Create stores a new model in the caller's bucket after the quota check.
func (s *Service) Create(ctx context.Context, by Uploader, folderName string, image, asset Upload) (Model, error) {
	if image.Body == nil || asset.Body == nil {
		return Model{}, ErrMissingFiles
	}

	name, err := s.buckets.Resolve(ctx, by.UserID)
	if err != nil {
		return Model{}, err
	}

	if _, err := s.quota.CheckAndReserve(ctx, by.UserID, name, positive(image.Size)+positive(asset.Size)); err != nil {
		return Model{}, err
	}

	mdl, err := s.manager.Create(ctx, name, folderName, image, asset, by)
	if err != nil {
		return Model{}, err
	}
	s.log.Info("model created", zap.String("bucket", name), zap.String("folder", mdl.Folder), zap.Int64("user_id", by.UserID))

	if err := s.presignOne(ctx, &mdl); err != nil {
		return Model{}, err
	}
	return mdl, nil
}

// Rename renames a model in the caller's own bucket and optionally replaces
// its files. Quota is checked against the net growth after replaced files
// are released.
func (s *Service) Rename(ctx context.Context, by Uploader, bucketName, oldFolder, newFolder string, image, asset *Upload) (Model, error) {
	if err := s.requireOwner(ctx, by.UserID, bucketName); err != nil {
		return Model{}, err
	}

	var incoming int64
	var replaced []Category
	if image != nil {
		incoming += positive(image.Size)
		replaced = append(replaced, CategoryImage)
	}
	if asset != nil {
		incoming += positive(asset.Size)
		replaced = append(replaced, CategoryAsset)
	}
	if len(replaced) > 0 {
		released, err := s.manager.CategoryBytes(ctx, bucketName, oldFolder, replaced...)
		if err != nil {
			return Model{}, err
		}
		incoming -= released
	}
	if incoming > 0 {
		if _, err := s.quota.CheckAndReserve(ctx, by.UserID, bucketName, incoming); err != nil {
			return Model{}, err
		}
	}

	mdl, err := s.manager.Rename(ctx, bucketName, oldFolder, newFolder, image, asset, by)
	if err != nil {
		return Model{}, err
	}
	s.log.Info("model updated", zap.String("bucket", bucketName), zap.String("from", oldFolder), zap.String("to", mdl.Folder))

	if err := s.presignOne(ctx, &mdl); err != nil {
		return Model{}, err
	}
	return mdl, nil
}

// Delete removes a model from the caller's own bucket.
func (s *Service) Delete(ctx context.Context, userID int64, bucketName, folder string) (int, error) {
	if err := s.requireOwner(ctx, userID, bucketName); err != nil {
		return 0, err
	}

	removed, err := s.manager.Delete(ctx, bucketName, folder)
	if err != nil {
		return removed, err
	}
	s.log.Info("model deleted", zap.String("bucket", bucketName), zap.String("folder", folder), zap.Int("objects", removed))
	return removed, nil
}

func (s *Service) requireOwner(ctx context.Context, userID int64, bucketName string) error {
	assignment, err := s.buckets.Lookup(ctx, userID)
	if err != nil {
		return err
	}
	if name, ok := assignment.Name(); !ok || name != bucketName {
		return ErrNotOwner
	}
	return nil
}

// presign fills download URLs for every listed model concurrently. The
// first failure cancels the rest and fails the whole batch.
func (s *Service) presign(ctx context.Context, models []Model) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogConcurrency * 2)
	for i := range models {
		g.Go(func() error {
			return s.presignOne(gctx, &models[i])
		})
	}
	return g.Wait()
}

func (s *Service) presignOne(ctx context.Context, mdl *Model) error {
	url, err := s.presigner.PresignGet(ctx, mdl.Bucket, mdl.Asset.Key, 0)
	if err != nil {
		return fmt.Errorf("presign %s: %w", mdl.Asset.Key, err)
	}
	mdl.Asset.URL = url

	if mdl.Image != nil {
		url, err := s.presigner.PresignGet(ctx, mdl.Bucket, mdl.Image.Key, 0)
		if err != nil {
			return fmt.Errorf("presign %s: %w", mdl.Image.Key, err)
		}
		mdl.Image.URL = url
	}
	return nil
}

func positive(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
