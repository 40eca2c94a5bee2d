package presigned

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/bucket"
	"github.com/abduss/modelvault/internal/objectstore"
	"github.com/abduss/modelvault/internal/objectstore/objectstoretest"
	"github.com/abduss/modelvault/internal/quota"
	"github.com/gin-gonic/gin"
)

type fakeBuckets map[int64]string

func (f fakeBuckets) Lookup(_ context.Context, userID int64) (bucket.Assignment, error) {
	if name, ok := f[userID]; ok {
		return bucket.Assigned(name), nil
	}
	return bucket.Unassigned(), nil
}

type fakeAudit struct {
	records []AuditRecord
	err     error
}

func (f *fakeAudit) SaveAudit(_ context.Context, rec AuditRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func newTestService() (*Service, *fakeAudit, *objectstoretest.Client) {
	fake := objectstoretest.New()
	audit := &fakeAudit{}
	store := objectstore.New(fake, objectstore.Config{})
	svc := NewService(store, fakeBuckets{1: "alice-1"}, quota.NewAccountant(store, nil, 100), audit, 0)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	return svc, audit, fake
}

func TestGenerate_PUT(t *testing.T) {
	svc, audit, _ := newTestService()

	grant, err := svc.Generate(context.Background(), 1, Request{Bucket: "alice-1", Key: "chair/chair.glb", Method: "put", TTLSeconds: 60, SizeBytes: 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grant.Method != MethodPut {
		t.Fatalf("wrong method in grant: %s", grant.Method)
	}
	if !strings.Contains(grant.URL, "X-Amz-Expires=60") || !strings.Contains(grant.URL, "X-Fake-Method=PUT") {
		t.Fatalf("unexpected url: %s", grant.URL)
	}
	if !grant.ExpiresAt.Equal(time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry: %s", grant.ExpiresAt)
	}
	if len(audit.records) != 1 || audit.records[0].Method != MethodPut {
		t.Fatalf("audit must be saved, got %+v", audit.records)
	}
}

func TestGenerate_DefaultsToGETForOneHour(t *testing.T) {
	svc, _, _ := newTestService()

	grant, err := svc.Generate(context.Background(), 1, Request{Bucket: "alice-1", Key: "a.glb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grant.Method != MethodGet || !strings.Contains(grant.URL, "X-Amz-Expires=3600") {
		t.Fatalf("unexpected grant: %+v", grant)
	}
}

func TestGenerate_InvalidMethod(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Generate(context.Background(), 1, Request{Bucket: "alice-1", Key: "a", Method: "DELETE"})
	if !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestGenerate_InvalidTTL(t *testing.T) {
	svc, _, _ := newTestService()

	for _, ttl := range []int64{-5, 8 * 24 * 3600, 18446744075} {
		_, err := svc.Generate(context.Background(), 1, Request{Bucket: "alice-1", Key: "a", TTLSeconds: ttl})
		if !errors.Is(err, ErrInvalidTTL) {
			t.Fatalf("ttl %d: expected ErrInvalidTTL, got %v", ttl, err)
		}
	}
}

func TestGenerate_PUTRequiresSize(t *testing.T) {
	svc, _, fake := newTestService()

	_, err := svc.Generate(context.Background(), 1, Request{Bucket: "alice-1", Key: "a.glb", Method: MethodPut})
	if !errors.Is(err, ErrSizeRequired) {
		t.Fatalf("expected ErrSizeRequired, got %v", err)
	}
	if fake.Calls("PresignedPutObject") != 0 {
		t.Fatalf("nothing should be signed")
	}
}

func TestGenerate_PUTOverQuota(t *testing.T) {
	svc, audit, fake := newTestService()
	fake.Seed("alice-1", "robot/robot.glb", make([]byte, 90))

	_, err := svc.Generate(context.Background(), 1, Request{Bucket: "alice-1", Key: "b.glb", Method: MethodPut, SizeBytes: 11})
	var quotaErr *apperror.QuotaExceededError
	if !errors.As(err, &quotaErr) || apperror.Status(err) != http.StatusForbidden {
		t.Fatalf("expected quota rejection with 403, got %v", err)
	}
	if fake.Calls("PresignedPutObject") != 0 || len(audit.records) != 0 {
		t.Fatalf("nothing should be signed or audited")
	}

	// reaching the limit exactly is allowed
	if _, err := svc.Generate(context.Background(), 1, Request{Bucket: "alice-1", Key: "b.glb", Method: MethodPut, SizeBytes: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerate_ForeignBucket(t *testing.T) {
	svc, audit, fake := newTestService()

	_, err := svc.Generate(context.Background(), 1, Request{Bucket: "bob-2", Key: "a.glb"})
	if apperror.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	_, err = svc.Generate(context.Background(), 2, Request{Bucket: "alice-1", Key: "a.glb"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for unassigned user, got %v", err)
	}
	if len(audit.records) != 0 || fake.Calls("PresignedGetObject") != 0 {
		t.Fatalf("nothing should be signed or audited")
	}
}

func TestGenerate_AuditFailure(t *testing.T) {
	svc, audit, _ := newTestService()
	audit.err = errors.New("db down")

	_, err := svc.Generate(context.Background(), 1, Request{Bucket: "alice-1", Key: "a.glb"})
	if err == nil {
		t.Fatalf("expected audit failure to surface")
	}
}

func TestHandler_RequiresBody(t *testing.T) {
	svc, _, _ := newTestService()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/v1")
	group.Use(func(c *gin.Context) {
		auth.SetUser(c, auth.ContextUser{ID: 1})
		c.Next()
	})
	RegisterRoutes(group, svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/storage/presign", strings.NewReader(`{"bucket":"alice-1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/storage/presign", strings.NewReader(`{"bucket":"alice-1","key":"a.glb"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/storage/presign", strings.NewReader(`{"bucket":"alice-1","key":"a.glb","method":"PUT","size_bytes":500}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 over quota, got %d: %s", rec.Code, rec.Body.String())
	}
}
