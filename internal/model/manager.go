package model

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"iter"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/abduss/modelvault/internal/objectstore"
)

type objectStore interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, meta map[string]string) (objectstore.Ref, error)
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (objectstore.Ref, error)
	Delete(ctx context.Context, bucket, key string) error
	List(ctx context.Context, bucket, prefix string) iter.Seq2[objectstore.Object, error]
}

// Manager groups flat object listings into model folders and implements
// folder level writes on top of the object store.
type Manager struct {
	store objectStore
}

// NewManager constructs a Manager.
func NewManager(store objectStore) *Manager {
	return &Manager{store: store}
}

// List returns every valid model in bucket, most recently updated first.
// Objects at the bucket root are ignored. A missing bucket yields no models.
func (m *Manager) List(ctx context.Context, bucket string) ([]Model, error) {
	folders := make(map[string]*Model)

	for obj, err := range m.store.List(ctx, bucket, "") {
		if err != nil {
			if objectstore.IsBucketNotFound(err) {
				return []Model{}, nil
			}
			return nil, fmt.Errorf("list models in %s: %w", bucket, err)
		}

		folder, _, ok := strings.Cut(obj.Key, "/")
		if !ok || folder == "" {
			continue
		}

		mdl, exists := folders[folder]
		if !exists {
			mdl = &Model{Bucket: bucket, Folder: folder, Title: Title(folder)}
			folders[folder] = mdl
		}
		mdl.Files = append(mdl.Files, toFile(obj))
	}

	models := make([]Model, 0, len(folders))
	for _, mdl := range folders {
		if finalize(mdl) {
			models = append(models, *mdl)
		}
	}
	slices.SortFunc(models, func(a, b Model) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Folder, b.Folder)
	})
	return models, nil
}

// Get returns the model stored under folder.
func (m *Manager) Get(ctx context.Context, bucket, folder string) (Model, error) {
	objects, err := m.folderObjects(ctx, bucket, folder)
	if err != nil {
		return Model{}, err
	}
	if len(objects) == 0 {
		return Model{}, ErrModelNotFound
	}

	mdl := Model{Bucket: bucket, Folder: folder, Title: Title(folder)}
	for _, obj := range objects {
		mdl.Files = append(mdl.Files, toFile(obj))
	}
	if !finalize(&mdl) {
		return Model{}, ErrModelNotFound
	}
	return mdl, nil
}

// Create writes a preview image and a 3D asset under a sanitized folder.
func (m *Manager) Create(ctx context.Context, bucket, folderName string, image, asset Upload, by Uploader) (Model, error) {
	folder := SanitizeFolder(folderName)
	if folder == "" {
		return Model{}, ErrInvalidFolder
	}
	if err := validateImage(image); err != nil {
		return Model{}, err
	}
	if err := validateAsset(asset); err != nil {
		return Model{}, err
	}

	if err := m.put(ctx, bucket, folder, image, by); err != nil {
		return Model{}, err
	}
	if err := m.put(ctx, bucket, folder, asset, by); err != nil {
		return Model{}, err
	}

	return m.Get(ctx, bucket, folder)
}

// Rename moves oldFolder to the sanitized newFolder and optionally replaces
// the image or asset. The move copies every object and then deletes the
// originals; it is not atomic and an interruption can leave objects under
// both prefixes. The old prefix is only deleted after the copied count
// matches the listing.
func (m *Manager) Rename(ctx context.Context, bucket, oldFolder, newFolder string, image, asset *Upload, by Uploader) (Model, error) {
	oldFolder = strings.Trim(strings.TrimSpace(oldFolder), "/")
	target := SanitizeFolder(newFolder)
	if oldFolder == "" || target == "" {
		return Model{}, ErrInvalidFolder
	}
	if image != nil {
		if err := validateImage(*image); err != nil {
			return Model{}, err
		}
	}
	if asset != nil {
		if err := validateAsset(*asset); err != nil {
			return Model{}, err
		}
	}

	objects, err := m.folderObjects(ctx, bucket, oldFolder)
	if err != nil {
		return Model{}, err
	}
	if len(objects) == 0 {
		return Model{}, ErrModelNotFound
	}

	if target != oldFolder {
		if err := m.move(ctx, bucket, oldFolder, target, objects); err != nil {
			return Model{}, err
		}
	}

	if image != nil {
		if err := m.replace(ctx, bucket, target, CategoryImage, *image, by); err != nil {
			return Model{}, err
		}
	}
	if asset != nil {
		if err := m.replace(ctx, bucket, target, CategoryAsset, *asset, by); err != nil {
			return Model{}, err
		}
	}

	return m.Get(ctx, bucket, target)
}

// CategoryBytes sums the sizes of the objects under folder that classify
// as one of categories.
func (m *Manager) CategoryBytes(ctx context.Context, bucket, folder string, categories ...Category) (int64, error) {
	objects, err := m.folderObjects(ctx, bucket, strings.Trim(strings.TrimSpace(folder), "/"))
	if err != nil {
		return 0, err
	}
	var total int64
	for _, obj := range objects {
		if slices.Contains(categories, Classify(obj.Key)) {
			total += obj.Size
		}
	}
	return total, nil
}

// Delete removes every object under folder and returns how many were removed.
func (m *Manager) Delete(ctx context.Context, bucket, folder string) (int, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return 0, ErrInvalidFolder
	}

	objects, err := m.folderObjects(ctx, bucket, folder)
	if err != nil {
		return 0, err
	}
	if len(objects) == 0 {
		return 0, ErrModelNotFound
	}

	for i, obj := range objects {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := m.store.Delete(ctx, bucket, obj.Key); err != nil {
			return i, fmt.Errorf("delete %s: %w", obj.Key, err)
		}
	}
	return len(objects), nil
}

func (m *Manager) move(ctx context.Context, bucket, from, to string, objects []objectstore.Object) error {
	existing, err := m.folderObjects(ctx, bucket, to)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return ErrFolderExists
	}

	copied := 0
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := to + "/" + strings.TrimPrefix(obj.Key, from+"/")
		if _, err := m.store.Copy(ctx, bucket, obj.Key, bucket, dst); err != nil {
			return fmt.Errorf("copy %s: %w", obj.Key, err)
		}
		copied++
	}

	moved, err := m.folderObjects(ctx, bucket, to)
	if err != nil {
		return err
	}
	if copied != len(objects) || len(moved) != len(objects) {
		return fmt.Errorf("%w: %d of %d", ErrIncompleteRename, len(moved), len(objects))
	}

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.store.Delete(ctx, bucket, obj.Key); err != nil {
			return fmt.Errorf("delete %s: %w", obj.Key, err)
		}
	}
	return nil
}

func (m *Manager) replace(ctx context.Context, bucket, folder string, category Category, upload Upload, by Uploader) error {
	objects, err := m.folderObjects(ctx, bucket, folder)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if Classify(obj.Key) != category {
			continue
		}
		if err := m.store.Delete(ctx, bucket, obj.Key); err != nil {
			return fmt.Errorf("delete %s: %w", obj.Key, err)
		}
	}
	return m.put(ctx, bucket, folder, upload, by)
}

func (m *Manager) put(ctx context.Context, bucket, folder string, upload Upload, by Uploader) error {
	key := folder + "/" + sanitizeFileName(upload.FileName)
	meta := map[string]string{
		"Original-Name": headerValue(upload.FileName),
		"Uploaded-By":   headerValue(by.Username),
		"User-Id":       strconv.FormatInt(by.UserID, 10),
		"Folder-Name":   headerValue(folder),
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := m.store.Put(ctx, bucket, key, upload.Body, upload.Size, contentType, meta); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// folderObjects lists folder; a missing bucket counts as an empty folder.
func (m *Manager) folderObjects(ctx context.Context, bucket, folder string) ([]objectstore.Object, error) {
	var objects []objectstore.Object
	for obj, err := range m.store.List(ctx, bucket, folder+"/") {
		if err != nil {
			if objectstore.IsBucketNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("list %s: %w", folder, err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func validateImage(u Upload) error {
	if u.Body == nil {
		return ErrMissingFiles
	}
	if !IsAcceptedImageType(u.ContentType) {
		return ErrInvalidImageType
	}
	return validateSize(u)
}

func validateAsset(u Upload) error {
	if u.Body == nil {
		return ErrMissingFiles
	}
	if Classify(u.FileName) != CategoryAsset {
		return ErrInvalidAssetType
	}
	return validateSize(u)
}

func validateSize(u Upload) error {
	if u.Size == 0 {
		return ErrEmptyFile
	}
	if u.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

func toFile(obj objectstore.Object) File {
	return File{
		Key:          obj.Key,
		Name:         path.Base(obj.Key),
		Size:         obj.Size,
		LastModified: obj.LastModified,
		Category:     Classify(obj.Key),
	}
}

// finalize picks the primary image and asset and reports whether the
// folder is a valid model.
func finalize(mdl *Model) bool {
	var hasAsset bool
	for i := range mdl.Files {
		f := mdl.Files[i]
		mdl.SizeBytes += f.Size
		if f.LastModified.After(mdl.UpdatedAt) {
			mdl.UpdatedAt = f.LastModified
		}
		switch f.Category {
		case CategoryImage:
			if mdl.Image == nil {
				img := f
				mdl.Image = &img
			}
		case CategoryAsset:
			if !hasAsset {
				mdl.Asset = f
				hasAsset = true
			}
		}
	}
	return hasAsset
}
