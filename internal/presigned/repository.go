package presigned

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository persists the presign audit trail.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs an audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveAudit records an issued grant.
func (r *Repository) SaveAudit(ctx context.Context, rec AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO presign_audit (user_id, bucket_name, object_key, method, expires_at)
VALUES ($1, $2, $3, $4, $5);`

	if _, err := r.pool.Exec(ctx, query, rec.UserID, rec.Bucket, rec.Key, string(rec.Method), rec.ExpiresAt); err != nil {
		return fmt.Errorf("save presign audit: %w", err)
	}
	return nil
}
