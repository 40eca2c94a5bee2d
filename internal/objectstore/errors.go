package objectstore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/minio/minio-go/v7"
)

var (
	ErrObjectNotFound = apperror.NotFound("object not found")
	ErrBucketNotFound = apperror.NotFound("bucket not found")
	ErrInvalidTTL     = apperror.Validation("presign ttl must be between 1 second and 7 days")
)

// translate maps SDK failures onto the store's sentinel errors.
func translate(err error, bucket, key string) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}
	if resp.StatusCode == http.StatusNotFound && key != "" {
		return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}
	return err
}

// IsBucketNotFound reports whether err signals a missing bucket.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsObjectNotFound reports whether err signals a missing object.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}
