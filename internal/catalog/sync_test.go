package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/abduss/modelvault/internal/objectstore"
	"github.com/abduss/modelvault/internal/objectstore/objectstoretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogBucket = "3d-models"

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newSyncer(t *testing.T, dir string) (*Syncer, *objectstoretest.Client) {
	t.Helper()
	fake := objectstoretest.New()
	store := objectstore.New(fake, objectstore.Config{Endpoint: "minio:9000"})
	require.NoError(t, Bootstrap(context.Background(), store, catalogBucket, "user-uploads"))
	return NewSyncer(store, catalogBucket, dir, nil), fake
}

func TestBootstrapCreatesBucketsAndPolicy(t *testing.T) {
	_, fake := newSyncer(t, "")

	assert.Equal(t, 2, fake.Calls("MakeBucket"))
	assert.Contains(t, fake.Policy(catalogBucket), "arn:aws:s3:::3d-models/*")
	assert.Empty(t, fake.Policy("user-uploads"))
}

func TestRunUploadsMissingAndChangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "robot/robot.glb", "glb-bytes")
	writeFile(t, dir, "robot/preview.png", "png")
	writeFile(t, dir, "chair/chair.obj", "v 0 0 0")
	writeFile(t, dir, ".DS_Store", "junk")

	syncer, fake := newSyncer(t, dir)
	fake.Seed(catalogBucket, "robot/preview.png", []byte("png"))
	fake.Seed(catalogBucket, "chair/chair.obj", []byte("old"))

	res, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Uploaded: 2, Skipped: 1}, res)

	assert.Equal(t, []string{"chair/chair.obj", "robot/preview.png", "robot/robot.glb"}, fake.Keys(catalogBucket))
	content, ok := fake.Content(catalogBucket, "chair/chair.obj")
	require.True(t, ok)
	assert.Equal(t, "v 0 0 0", string(content))
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "robot/robot.glb", "glb-bytes")
	syncer, fake := newSyncer(t, dir)

	_, err := syncer.Run(context.Background())
	require.NoError(t, err)
	res, err := syncer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Skipped: 1}, res)
	assert.Equal(t, 1, fake.Calls("PutObject"))
}

func TestRunCountsFailuresAndContinues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/a.stl", "a")
	writeFile(t, dir, "b/b.stl", "b")
	syncer, fake := newSyncer(t, dir)
	fake.Fail("PutObject", errors.New("backend down"))

	res, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 2}, res)
}

func TestRunMissingDirectoryIsNoop(t *testing.T) {
	syncer, fake := newSyncer(t, filepath.Join(t.TempDir(), "absent"))

	res, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Zero(t, fake.Calls("StatObject"))
}
