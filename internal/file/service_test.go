package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/objectstore"
	"github.com/abduss/modelvault/internal/objectstore/objectstoretest"
	"github.com/gin-gonic/gin"
)

const uploadsBucket = "user-uploads"

func newTestService(t *testing.T) (*Service, *objectstoretest.Client) {
	t.Helper()
	fake := objectstoretest.New()
	store := objectstore.New(fake, objectstore.Config{Endpoint: "minio:9000"})
	if err := store.EnsureBucket(context.Background(), uploadsBucket); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	service := NewService(store, uploadsBucket, 0)
	service.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return service, fake
}

func TestUploadStoresUnderUserPrefix(t *testing.T) {
	service, fake := newTestService(t)
	content := []byte("hello glb")
	fileHeader := buildFileHeader(t, "file", "my chair (v2).glb", "model/gltf-binary", content)

	meta, err := service.Upload(context.Background(), 42, "alice", fileHeader)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	wantKey := "42/1700000000123_my_chair__v2_.glb"
	if meta.ObjectName != wantKey {
		t.Fatalf("unexpected object name: %s", meta.ObjectName)
	}
	if meta.URL != "http://minio:9000/user-uploads/"+wantKey {
		t.Fatalf("unexpected url: %s", meta.URL)
	}
	sum := sha256.Sum256(content)
	if meta.Checksum != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected checksum: %s", meta.Checksum)
	}

	stored, ok := fake.Content(uploadsBucket, wantKey)
	if !ok || !bytes.Equal(stored, content) {
		t.Fatalf("expected object content to be stored")
	}
	md := fake.Metadata(uploadsBucket, wantKey)
	if md["Uploaded-By"] != "alice" || md["User-Id"] != "42" || md["Original-Name"] != "my chair (v2).glb" {
		t.Fatalf("unexpected metadata: %v", md)
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	service, fake := newTestService(t)
	fileHeader := buildFileHeader(t, "file", "script.sh", "text/x-shellscript", []byte("#!/bin/sh"))

	_, err := service.Upload(context.Background(), 1, "alice", fileHeader)
	if !errors.Is(err, ErrTypeNotAllowed) {
		t.Fatalf("expected ErrTypeNotAllowed, got %v", err)
	}
	if fake.Calls("PutObject") != 0 {
		t.Fatalf("expected nothing to be stored")
	}
}

func TestUploadAcceptsKnownExtensionWithOddType(t *testing.T) {
	service, _ := newTestService(t)
	fileHeader := buildFileHeader(t, "file", "scan.PLY", "text/plain", []byte("ply"))

	if _, err := service.Upload(context.Background(), 1, "alice", fileHeader); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	service, _ := newTestService(t)
	service.maxFileSize = 4
	fileHeader := buildFileHeader(t, "file", "big.glb", "model/gltf-binary", []byte("12345"))

	_, err := service.Upload(context.Background(), 1, "alice", fileHeader)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestListReturnsOnlyCallerPrefix(t *testing.T) {
	service, fake := newTestService(t)
	fake.Seed(uploadsBucket, "7/1_a.glb", []byte("aa"))
	fake.Seed(uploadsBucket, "7/2_b.png", []byte("bbb"))
	fake.Seed(uploadsBucket, "70/3_c.glb", []byte("c"))

	entries, err := service.List(context.Background(), 7)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "7/1_a.glb" || entries[0].Size != 2 || entries[0].ETag == "" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestOpenMissingObject(t *testing.T) {
	service, _ := newTestService(t)

	_, _, _, err := service.Open(context.Background(), uploadsBucket, "nope.glb")
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	_, _, _, err = service.Open(context.Background(), "", "nope.glb")
	if apperror.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"a/b.GLB":  "model/gltf-binary",
		"a/b.gltf": "model/gltf+json",
		"b.jpeg":   "image/jpeg",
		"b.webp":   "image/webp",
		"b.ply":    "application/octet-stream",
		"b":        "application/octet-stream",
	}
	for key, want := range cases {
		if got := ContentTypeFor(key); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestServeObjectHeaders(t *testing.T) {
	service, fake := newTestService(t)
	fake.Seed("3d-models", "chair/chair.glb", []byte("glTF"))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterPublicRoutes(router.Group("/v1"), service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/files/object?bucket=3d-models&path=chair/chair.glb", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "model/gltf-binary" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Cache-Control") != "public, max-age=31536000" {
		t.Fatalf("unexpected cache header %q", rec.Header().Get("Cache-Control"))
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "glTF" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestUploadHandlerRequiresFile(t *testing.T) {
	service, _ := newTestService(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/v1")
	group.Use(func(c *gin.Context) {
		auth.SetUser(c, auth.ContextUser{ID: 1, Username: "alice"})
		c.Next()
	})
	RegisterRoutes(group, service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/files", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// --- helpers ---

func buildFileHeader(t *testing.T, fieldName, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(int64(len(content)) + 1024); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	return req.MultipartForm.File[fieldName][0]
}
