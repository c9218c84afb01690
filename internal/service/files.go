package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/realtyhub/realtyhub/internal/models"
	"github.com/realtyhub/realtyhub/internal/storage"
	"go.uber.org/zap"
)

// Upload is one image file received with a listing form.
type Upload struct {
	Filename string
	// ContentType is what the client declared. Stored files use the type
	// detected from their content.
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// TombstoneRepository records files whose deletion failed.
type TombstoneRepository interface {
	Add(ctx context.Context, keys []string) error
}

// fileJanitor performs file operations that happen outside database
// transactions. Removal is best effort: failures are logged and recorded
// for the tombstone cleaner, never returned.
type fileJanitor struct {
	store      storage.ImageStore
	tombstones TombstoneRepository
	log        *zap.Logger
}

// save stores every upload as an image of listingID. On failure the files
// saved so far are removed.
func (j *fileJanitor) save(ctx context.Context, listingID string, uploads []Upload) ([]models.Image, error) {
	images := make([]models.Image, 0, len(uploads))
	for _, u := range uploads {
		key, err := j.saveOne(ctx, u)
		if err != nil {
			j.remove(ctx, imageKeys(images))
			return nil, err
		}
		images = append(images, models.Image{
			ID:        uuid.NewString(),
			ListingID: listingID,
			Key:       key,
			URL:       j.store.URL(key),
		})
	}
	return images, nil
}

// saveOne stores u under a name and content type detected from its bytes.
// The client's filename and declared type are not trusted.
func (j *fileJanitor) saveOne(ctx context.Context, u Upload) (string, error) {
	f, err := u.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open upload: %v", models.ErrStorage, err)
	}
	defer f.Close()

	contentType, ext, body, err := storage.SniffImage(f)
	if err != nil {
		return "", fmt.Errorf("%w: read upload: %v", models.ErrStorage, err)
	}
	if contentType == "" {
		return "", models.Invalid("only jpeg, png, gif and webp images are allowed")
	}
	return j.store.Save(ctx, storage.ImagePrefix, "image"+ext, contentType, body, u.Size)
}

// remove deletes files after the database change they belong to has been
// committed. It runs detached from request cancellation.
func (j *fileJanitor) remove(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var failed []string
	for _, key := range keys {
		if err := j.store.Delete(ctx, key); err != nil {
			j.log.Warn("failed to delete stored file", zap.String("key", key), zap.Error(err))
			failed = append(failed, key)
		}
	}
	if len(failed) == 0 || j.tombstones == nil {
		return
	}
	if err := j.tombstones.Add(ctx, failed); err != nil {
		j.log.Error("failed to record orphaned files", zap.Strings("keys", failed), zap.Error(err))
	}
}

func imageKeys(images []models.Image) []string {
	keys := make([]string, len(images))
	for i, img := range images {
		keys[i] = img.Key
	}
	return keys
}
