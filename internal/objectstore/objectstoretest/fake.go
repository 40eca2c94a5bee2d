// Package objectstoretest provides an in-memory objectstore.Client for tests.
package objectstoretest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

type object struct {
	data        []byte
	contentType string
	meta        map[string]string
	modified    time.Time
	etag        string
}

// Client is a concurrency-safe in-memory stand-in for MinIO.
type Client struct {
	mu       sync.Mutex
	buckets  map[string]map[string]*object
	policies map[string]string
	failures map[string]error
	calls    map[string]int
}

// New returns an empty Client.
func New() *Client {
	return &Client{
		buckets:  make(map[string]map[string]*object),
		policies: make(map[string]string),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// Fail makes every subsequent call of op return err. A nil err clears it.
// Op names match the Client method names, e.g. "PutObject".
func (c *Client) Fail(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, op)
		return
	}
	c.failures[op] = err
}

// Calls reports how many times op was invoked.
func (c *Client) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Seed stores data under bucket/key, creating the bucket if needed.
func (c *Client) Seed(bucket, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buckets[bucket] == nil {
		c.buckets[bucket] = make(map[string]*object)
	}
	c.buckets[bucket][key] = newObject(data, "application/octet-stream", nil)
}

// Keys returns the sorted keys held in bucket.
func (c *Client) Keys(bucket string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.buckets[bucket]))
	for k := range c.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Content returns the bytes stored under bucket/key.
func (c *Client) Content(bucket, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

// Metadata returns the user metadata stored with bucket/key.
func (c *Client) Metadata(bucket, key string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if obj, ok := c.buckets[bucket][key]; ok {
		return obj.meta
	}
	return nil
}

// Policy returns the policy last applied to bucket.
func (c *Client) Policy(bucket string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policies[bucket]
}

func (c *Client) begin(op string) error {
	c.mu.Lock()
	c.calls[op]++
	return c.failures[op]
}

func newObject(data []byte, contentType string, meta map[string]string) *object {
	sum := md5.Sum(data)
	return &object{
		data:        data,
		contentType: contentType,
		meta:        meta,
		modified:    time.Now().UTC(),
		etag:        hex.EncodeToString(sum[:]),
	}
}

func noSuchBucket(bucket string) error {
	return minio.ErrorResponse{Code: "NoSuchBucket", Message: "The specified bucket does not exist", BucketName: bucket, StatusCode: http.StatusNotFound}
}

func noSuchKey(bucket, key string) error {
	return minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist.", BucketName: bucket, Key: key, StatusCode: http.StatusNotFound}
}

func (c *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	err := c.begin("BucketExists")
	defer c.mu.Unlock()
	if err != nil {
		return false, err
	}
	_, ok := c.buckets[bucketName]
	return ok, nil
}

func (c *Client) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	err := c.begin("MakeBucket")
	defer c.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := c.buckets[bucketName]; ok {
		return minio.ErrorResponse{Code: "BucketAlreadyOwnedByYou", BucketName: bucketName, StatusCode: http.StatusConflict}
	}
	c.buckets[bucketName] = make(map[string]*object)
	return nil
}

func (c *Client) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	err := c.begin("ListBuckets")
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(c.buckets))
	for name := range c.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]minio.BucketInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, minio.BucketInfo{Name: name})
	}
	return infos, nil
}

func (c *Client) SetBucketPolicy(ctx context.Context, bucketName, policy string) error {
	err := c.begin("SetBucketPolicy")
	defer c.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := c.buckets[bucketName]; !ok {
		return noSuchBucket(bucketName)
	}
	c.policies[bucketName] = policy
	return nil
}

func (c *Client) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, readErr := io.ReadAll(reader)

	err := c.begin("PutObject")
	defer c.mu.Unlock()
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if readErr != nil {
		return minio.UploadInfo{}, readErr
	}
	if objectSize >= 0 && int64(len(data)) != objectSize {
		return minio.UploadInfo{}, fmt.Errorf("short write: got %d bytes, want %d", len(data), objectSize)
	}
	objs, ok := c.buckets[bucketName]
	if !ok {
		return minio.UploadInfo{}, noSuchBucket(bucketName)
	}

	var meta map[string]string
	if len(opts.UserMetadata) > 0 {
		meta = make(map[string]string, len(opts.UserMetadata))
		for k, v := range opts.UserMetadata {
			meta[k] = v
		}
	}
	obj := newObject(data, opts.ContentType, meta)
	objs[objectName] = obj

	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: int64(len(data)), ETag: obj.etag}, nil
}

func (c *Client) lookup(bucketName, objectName string) (*object, error) {
	objs, ok := c.buckets[bucketName]
	if !ok {
		return nil, noSuchBucket(bucketName)
	}
	obj, ok := objs[objectName]
	if !ok {
		return nil, noSuchKey(bucketName, objectName)
	}
	return obj, nil
}

func (c *Client) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	err := c.begin("GetObject")
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	obj, err := c.lookup(bucketName, objectName)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), obj.data...))), nil
}

func (c *Client) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	err := c.begin("StatObject")
	defer c.mu.Unlock()
	if err != nil {
		return minio.ObjectInfo{}, err
	}
	obj, err := c.lookup(bucketName, objectName)
	if err != nil {
		return minio.ObjectInfo{}, err
	}
	return minio.ObjectInfo{
		Key:          objectName,
		Size:         int64(len(obj.data)),
		LastModified: obj.modified,
		ETag:         obj.etag,
		ContentType:  obj.contentType,
		UserMetadata: minio.StringMap(obj.meta),
	}, nil
}

func (c *Client) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	err := c.begin("RemoveObject")
	defer c.mu.Unlock()
	if err != nil {
		return err
	}
	objs, ok := c.buckets[bucketName]
	if !ok {
		return noSuchBucket(bucketName)
	}
	delete(objs, objectName)
	return nil
}

// ListObjects returns a fully buffered, closed channel in key order.
func (c *Client) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	err := c.begin("ListObjects")
	defer c.mu.Unlock()

	if err != nil {
		ch := make(chan minio.ObjectInfo, 1)
		ch <- minio.ObjectInfo{Err: err}
		close(ch)
		return ch
	}
	objs, ok := c.buckets[bucketName]
	if !ok {
		ch := make(chan minio.ObjectInfo, 1)
		ch <- minio.ObjectInfo{Err: noSuchBucket(bucketName)}
		close(ch)
		return ch
	}

	keys := make([]string, 0, len(objs))
	for k := range objs {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	ch := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		obj := objs[k]
		ch <- minio.ObjectInfo{
			Key:          k,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified,
			ETag:         `"` + obj.etag + `"`,
		}
	}
	close(ch)
	return ch
}

func (c *Client) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	err := c.begin("PresignedGetObject")
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return presigned(http.MethodGet, bucketName, objectName, expires), nil
}

func (c *Client) PresignedPutObject(ctx context.Context, bucketName, objectName string, expires time.Duration) (*url.URL, error) {
	err := c.begin("PresignedPutObject")
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return presigned(http.MethodPut, bucketName, objectName, expires), nil
}

func presigned(method, bucket, key string, expires time.Duration) *url.URL {
	q := url.Values{}
	q.Set("X-Amz-Expires", fmt.Sprintf("%d", int(expires.Seconds())))
	q.Set("X-Fake-Method", method)
	return &url.URL{Scheme: "http", Host: "objects.test", Path: "/" + bucket + "/" + key, RawQuery: q.Encode()}
}
