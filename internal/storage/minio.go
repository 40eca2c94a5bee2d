package storage

import (
	"fmt"
	"strings"

	"github.com/abduss/modelvault/internal/config"
	"github.com/abduss/modelvault/internal/objectstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewObjectStore dials MinIO and wraps it in an objectstore.Store.
func NewObjectStore(minioCfg config.MinIOConfig, storageCfg config.StorageConfig) (*objectstore.Store, error) {
	client, err := NewMinIOClient(minioCfg)
	if err != nil {
		return nil, err
	}
	return objectstore.New(objectstore.WrapMinIO(client), objectstore.Config{
		Endpoint:   endpoint(minioCfg.Endpoint),
		UseSSL:     minioCfg.UseSSL,
		Region:     minioCfg.Region,
		PresignTTL: storageCfg.PresignTTL,
	}), nil
}

// NewMinIOClient establishes a MinIO client using the provided configuration.
func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(endpoint(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return client, nil
}

func endpoint(raw string) string {
	if !strings.Contains(raw, ":") {
		// default to MinIO API port when not supplied explicitly
		return fmt.Sprintf("%s:9000", raw)
	}
	return raw
}
