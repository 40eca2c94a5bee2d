package bucket

import (
	"context"
	"fmt"
)

type userStore interface {
	LookupOwner(ctx context.Context, userID int64) (Owner, error)
	AssignBucket(ctx context.Context, userID int64, name string) (string, error)
	ListAssigned(ctx context.Context) ([]string, error)
}

type bucketMaker interface {
	EnsureBucket(ctx context.Context, bucket string) error
}

// Resolver maps users onto their tenant buckets.
type Resolver struct {
	users userStore
	store bucketMaker
}

// NewResolver constructs a Resolver.
func NewResolver(users userStore, store bucketMaker) *Resolver {
	return &Resolver{users: users, store: store}
}

// Lookup returns the persisted assignment without creating anything.
func (r *Resolver) Lookup(ctx context.Context, userID int64) (Assignment, error) {
	owner, err := r.users.LookupOwner(ctx, userID)
	if err != nil {
		return Unassigned(), err
	}
	return owner.Bucket, nil
}

// Resolve returns the user's bucket, creating and persisting it on first
// use. Once assigned the name never changes, even if the username does.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (string, error) {
	owner, err := r.users.LookupOwner(ctx, userID)
	if err != nil {
		return "", err
	}

	if name, ok := owner.Bucket.Name(); ok {
		if err := r.store.EnsureBucket(ctx, name); err != nil {
			return "", fmt.Errorf("ensure bucket: %w", err)
		}
		return name, nil
	}

	name, err := Name(owner.Username, owner.UserID)
	if err != nil {
		return "", err
	}
	if err := r.store.EnsureBucket(ctx, name); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	stored, err := r.users.AssignBucket(ctx, userID, name)
	if err != nil {
		return "", err
	}
	if stored != name {
		if err := r.store.EnsureBucket(ctx, stored); err != nil {
			return "", fmt.Errorf("ensure bucket: %w", err)
		}
	}
	return stored, nil
}

// Owns reports whether bucket is the one assigned to userID.
func (r *Resolver) Owns(ctx context.Context, userID int64, bucket string) (bool, error) {
	assignment, err := r.Lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	name, ok := assignment.Name()
	return ok && name == bucket, nil
}

// Tenants lists every assigned tenant bucket.
func (r *Resolver) Tenants(ctx context.Context) ([]string, error) {
	return r.users.ListAssigned(ctx)
}
