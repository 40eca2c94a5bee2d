package bucket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

// Repository reads and persists bucket assignments on the users table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a bucket repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LookupOwner loads the identity and current assignment of a user.
func (r *Repository) LookupOwner(ctx context.Context, userID int64) (Owner, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var (
		owner      Owner
		bucketName *string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, username, bucket_name FROM users WHERE id = $1;`, userID).
		Scan(&owner.UserID, &owner.Username, &bucketName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Owner{}, ErrUserNotFound
		}
		return Owner{}, fmt.Errorf("lookup owner: %w", err)
	}

	owner.Bucket = assignmentFrom(bucketName)
	return owner, nil
}

// AssignBucket persists name unless the user already has a bucket, and
// returns whichever name ends up stored.
func (r *Repository) AssignBucket(ctx context.Context, userID int64, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
UPDATE users
SET bucket_name = $2, updated_at = NOW()
WHERE id = $1 AND bucket_name IS NULL
RETURNING bucket_name;`

	var stored string
	err := r.pool.QueryRow(ctx, query, userID, name).Scan(&stored)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("assign bucket: %w", err)
	}

	var existing *string
	err = r.pool.QueryRow(ctx, `SELECT bucket_name FROM users WHERE id = $1;`, userID).Scan(&existing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("read bucket assignment: %w", err)
	}
	if existing == nil {
		return "", fmt.Errorf("assign bucket: assignment for user %d not persisted", userID)
	}
	return *existing, nil
}

// ListAssigned returns every persisted tenant bucket name.
func (r *Repository) ListAssigned(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT bucket_name FROM users WHERE bucket_name IS NOT NULL ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list assigned buckets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan bucket name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bucket names: %w", err)
	}
	return names, nil
}
