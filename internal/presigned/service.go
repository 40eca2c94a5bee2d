// Package presigned issues time-limited object URLs on the caller's own bucket.
package presigned

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/modelvault/internal/bucket"
	"github.com/abduss/modelvault/internal/quota"
)

const maxTTLSeconds = 7 * 24 * 60 * 60

type urlSigner interface {
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	PresignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

type bucketLookup interface {
	Lookup(ctx context.Context, userID int64) (bucket.Assignment, error)
}

type quotaChecker interface {
	CheckAndReserve(ctx context.Context, userID int64, bucket string, incoming int64) (quota.Snapshot, error)
}

type auditStore interface {
	SaveAudit(ctx context.Context, rec AuditRecord) error
}

// Service validates ownership and delegates signing to the object store.
type Service struct {
	signer  urlSigner
	buckets bucketLookup
	quota   quotaChecker
	audit   auditStore
	ttl     time.Duration
	now     func() time.Time
}

// NewService constructs a presign service. audit may be nil. A ttl outside
// one second to seven days selects one hour.
func NewService(signer urlSigner, buckets bucketLookup, quota quotaChecker, audit auditStore, ttl time.Duration) *Service {
	if ttl < time.Second || ttl > maxTTLSeconds*time.Second {
		ttl = time.Hour
	}
	return &Service{
		signer:  signer,
		buckets: buckets,
		quota:   quota,
		audit:   audit,
		ttl:     ttl,
		now:     time.Now,
	}
}

// ValidateOwnership reports whether bucketName is the user's assigned bucket.
func (s *Service) ValidateOwnership(ctx context.Context, userID int64, bucketName string) (bool, error) {
	assignment, err := s.buckets.Lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	name, ok := assignment.Name()
	return ok && name == bucketName, nil
}

// Generate issues a GET or PUT URL for req after the ownership check. A
// PUT grant also requires the declared size to fit the user's quota.
func (s *Service) Generate(ctx context.Context, userID int64, req Request) (Grant, error) {
	method := Method(strings.ToUpper(strings.TrimSpace(string(req.Method))))
	if method == "" {
		method = MethodGet
	}
	if method != MethodGet && method != MethodPut {
		return Grant{}, ErrInvalidMethod
	}

	ttl := s.ttl
	if req.TTLSeconds != 0 {
		if req.TTLSeconds < 1 || req.TTLSeconds > maxTTLSeconds {
			return Grant{}, ErrInvalidTTL
		}
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	if method == MethodPut && req.SizeBytes <= 0 {
		return Grant{}, ErrSizeRequired
	}

	owns, err := s.ValidateOwnership(ctx, userID, req.Bucket)
	if err != nil {
		return Grant{}, err
	}
	if !owns {
		return Grant{}, ErrNotOwner
	}

	var url string
	if method == MethodPut {
		if _, err := s.quota.CheckAndReserve(ctx, userID, req.Bucket, req.SizeBytes); err != nil {
			return Grant{}, err
		}
		url, err = s.signer.PresignPut(ctx, req.Bucket, req.Key, ttl)
	} else {
		url, err = s.signer.PresignGet(ctx, req.Bucket, req.Key, ttl)
	}
	if err != nil {
		return Grant{}, fmt.Errorf("presign %s: %w", method, err)
	}

	grant := Grant{
		URL:       url,
		Method:    method,
		Bucket:    req.Bucket,
		Key:       req.Key,
		ExpiresAt: s.now().Add(ttl).UTC(),
	}

	if s.audit != nil {
		rec := AuditRecord{UserID: userID, Bucket: grant.Bucket, Key: grant.Key, Method: method, ExpiresAt: grant.ExpiresAt}
		if err := s.audit.SaveAudit(ctx, rec); err != nil {
			return Grant{}, err
		}
	}
	return grant, nil
}
