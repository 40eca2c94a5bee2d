// Package quota sums tenant bucket usage and enforces plan byte limits.
package quota

import (
	"context"
	"fmt"
	"iter"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/metrics"
	"github.com/abduss/modelvault/internal/objectstore"
)

// DefaultLimitBytes applies to users without an active subscription.
const DefaultLimitBytes int64 = 1 << 30

// LimitSource resolves the plan limit of a user. ok is false when the
// user has no active subscription.
type LimitSource interface {
	StorageLimitBytes(ctx context.Context, userID int64) (limit int64, ok bool, err error)
}

type objectLister interface {
	List(ctx context.Context, bucket, prefix string) iter.Seq2[objectstore.Object, error]
}

// Accountant computes usage on demand from the object listing. Nothing is
// cached or reserved: two concurrent uploads can both pass CheckAndReserve.
type Accountant struct {
	objects      objectLister
	limits       LimitSource
	defaultLimit int64
}

// NewAccountant constructs an Accountant. A non-positive defaultLimit
// selects DefaultLimitBytes.
func NewAccountant(objects objectLister, limits LimitSource, defaultLimit int64) *Accountant {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimitBytes
	}
	return &Accountant{objects: objects, limits: limits, defaultLimit: defaultLimit}
}

// CurrentUsage sums object sizes in bucket. A missing bucket has zero usage.
func (a *Accountant) CurrentUsage(ctx context.Context, bucket string) (int64, error) {
	var total int64
	for obj, err := range a.objects.List(ctx, bucket, "") {
		if err != nil {
			if objectstore.IsBucketNotFound(err) {
				return 0, nil
			}
			return 0, fmt.Errorf("compute usage of %s: %w", bucket, err)
		}
		total += obj.Size
	}
	return total, nil
}

// LimitFor returns the byte limit of the user's active plan, or the
// default limit when there is none.
func (a *Accountant) LimitFor(ctx context.Context, userID int64) (int64, error) {
	if a.limits == nil {
		return a.defaultLimit, nil
	}

	limit, ok, err := a.limits.StorageLimitBytes(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("resolve storage limit: %w", err)
	}
	if !ok || limit <= 0 {
		return a.defaultLimit, nil
	}
	return limit, nil
}

// Snapshot reports current usage against the user's limit.
func (a *Accountant) Snapshot(ctx context.Context, userID int64, bucket string) (Snapshot, error) {
	used, err := a.CurrentUsage(ctx, bucket)
	if err != nil {
		return Snapshot{}, err
	}
	limit, err := a.LimitFor(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Bucket: bucket, UsedBytes: used, LimitBytes: limit}, nil
}

// CheckAndReserve fails with *apperror.QuotaExceededError when storing
// incoming more bytes would exceed the limit. Reaching the limit exactly
// is allowed.
func (a *Accountant) CheckAndReserve(ctx context.Context, userID int64, bucket string, incoming int64) (Snapshot, error) {
	if incoming < 0 {
		return Snapshot{}, apperror.Validation("upload size must not be negative")
	}

	snap, err := a.Snapshot(ctx, userID, bucket)
	if err != nil {
		return Snapshot{}, err
	}

	if snap.UsedBytes+incoming > snap.LimitBytes {
		metrics.QuotaRejected()
		return snap, &apperror.QuotaExceededError{UsedBytes: snap.UsedBytes, LimitBytes: snap.LimitBytes}
	}
	return snap, nil
}
