// Package services implements the photo metadata facade: it combines the
// identity provider, the photo_metadata table, the encrypted blob store and
// the preview cache into list/save/delete/category operations.
package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/progresskeeper/internal/blobstore"
	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/cryptox"
	"github.com/dmitrijs2005/progresskeeper/internal/filex"
	"github.com/dmitrijs2005/progresskeeper/internal/identity"
	"github.com/dmitrijs2005/progresskeeper/internal/logging"
	"github.com/dmitrijs2005/progresskeeper/internal/models"
	"github.com/dmitrijs2005/progresskeeper/internal/repositories/photos"
)

// BlobStore writes and removes encrypted blobs.
type BlobStore interface {
	WriteEncrypted(ctx context.Context, sourceRef string, data []byte) (string, error)
	Delete(uri string) error
}

// PreviewCache resolves blobs to decrypted preview files.
type PreviewCache interface {
	EnsurePreview(ctx context.Context, blobURI string) (string, error)
	Remove(blobURI string) error
}

const defaultResolveConcurrency = 8

type PhotoService struct {
	repo      photos.Repository
	identity  identity.Provider
	blobs     BlobStore
	previews  PreviewCache
	log       logging.Logger
	resolvers map[string]ContentResolver
	now       func() time.Time
	limit     int
	events    notifier
}

type Option func(*PhotoService)

// WithContentResolver registers r for source URIs with the given scheme.
func WithContentResolver(scheme string, r ContentResolver) Option {
	return func(s *PhotoService) { s.resolvers[scheme] = r }
}

// WithClock replaces time.Now as the capture time source.
func WithClock(now func() time.Time) Option {
	return func(s *PhotoService) { s.now = now }
}

// WithResolveConcurrency bounds how many rows ListPhotos resolves at once.
func WithResolveConcurrency(n int) Option {
	return func(s *PhotoService) {
		if n > 0 {
			s.limit = n
		}
	}
}

func NewPhotoService(repo photos.Repository, id identity.Provider, blobs BlobStore, previews PreviewCache, log logging.Logger, opts ...Option) *PhotoService {
	s := &PhotoService{
		repo:      repo,
		identity:  id,
		blobs:     blobs,
		previews:  previews,
		log:       log,
		resolvers: map[string]ContentResolver{"data": DataURIResolver{}},
		now:       time.Now,
		limit:     defaultResolveConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn may be called from several goroutines at once.
func (s *PhotoService) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.events.subscribe(fn)
}

// ListPhotos returns the current user's photos, most recent first. A
// non-empty categoryID restricts the list to photos in that category;
// an id that is not numeric applies no filter.
//
// Rows still pointing at plaintext local files are encrypted on the way.
func (s *PhotoService) ListPhotos(ctx context.Context, categoryID string) ([]models.Photo, error) {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	var filter []int64
	if categoryID != "" {
		filter = models.NormalizeCategoryIDs(categoryID)
	}

	rows, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	out := make([]models.Photo, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, row := range rows {
		g.Go(func() error {
			uri, err := s.resolveURI(gctx, row)
			if err != nil {
				return fmt.Errorf("photo %s: %w", row.ID, err)
			}
			out[i] = models.MapPhoto(row, uri)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PhotoService) resolveURI(ctx context.Context, row *models.PhotoRow) (string, error) {
	if filex.IsRemoteURL(row.LocalID) {
		return row.LocalID, nil
	}

	uri, err := s.migrateIfNeeded(ctx, row)
	if err != nil {
		return "", err
	}

	if blobstore.IsEncryptedURI(uri) {
		return s.previews.EnsurePreview(ctx, uri)
	}
	return uri, nil
}

// migrateIfNeeded encrypts a row's plaintext local file into a blob and
// repoints the row at it. Other references are returned unchanged.
func (s *PhotoService) migrateIfNeeded(ctx context.Context, row *models.PhotoRow) (string, error) {
	if !filex.IsFileURI(row.LocalID) || blobstore.IsEncryptedURI(row.LocalID) {
		return row.LocalID, nil
	}

	data, err := readLocal(row.LocalID)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Warn(ctx, "legacy photo file missing, not migrated", "photo", row.ID, "uri", row.LocalID)
		return row.LocalID, nil
	}
	if err != nil {
		return "", err
	}

	blobURI, err := s.blobs.WriteEncrypted(ctx, row.LocalID, data)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateLocalID(ctx, row.ID, row.UserID, blobURI); err != nil {
		s.discardBlob(ctx, blobURI)
		return "", err
	}

	s.removeLocal(ctx, row.LocalID)
	s.log.Info(ctx, "photo migrated to encrypted storage", "photo", row.ID)
	s.events.publish(Event{Kind: EventMigrated, PhotoID: row.ID})
	return blobURI, nil
}

// SavePhoto encrypts the content behind sourceURI into a new blob, records
// it for the current user and returns the stored photo with its preview
// URI. A local source file is removed once the row is stored.
func (s *PhotoService) SavePhoto(ctx context.Context, sourceURI string, categories []string, width, height int) (models.Photo, error) {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return models.Photo{}, err
	}

	cats := models.NormalizeCategoryIDs(categories...)
	if len(cats) == 0 {
		return models.Photo{}, ErrNoCategories
	}

	data, err := s.readSource(ctx, sourceURI)
	if err != nil {
		return models.Photo{}, err
	}

	blobURI, err := s.blobs.WriteEncrypted(ctx, sourceURI, data)
	if err != nil {
		return models.Photo{}, err
	}

	row, err := s.repo.Insert(ctx, &models.PhotoRow{
		UserID:     userID,
		LocalID:    blobURI,
		Width:      width,
		Height:     height,
		CapturedAt: models.TimestampFromTime(s.now()),
		Categories: cats,
	})
	if err != nil {
		s.discardBlob(ctx, blobURI)
		return models.Photo{}, err
	}

	if filex.IsFileURI(sourceURI) && !blobstore.IsEncryptedURI(sourceURI) {
		s.removeLocal(ctx, sourceURI)
	}

	previewURI, err := s.previews.EnsurePreview(ctx, blobURI)
	if err != nil {
		return models.Photo{}, fmt.Errorf("photo %s saved, preview failed: %w", row.ID, err)
	}

	s.events.publish(Event{Kind: EventSaved, PhotoID: row.ID})
	return models.MapPhoto(row, previewURI), nil
}

// DeletePhoto removes the photo and its local files. Deleting a photo that
// does not exist succeeds.
func (s *PhotoService) DeletePhoto(ctx context.Context, id string) error {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	row, err := s.repo.Get(ctx, id, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.deleteRow(ctx, userID, row)
}

func (s *PhotoService) deleteRow(ctx context.Context, userID string, row *models.PhotoRow) error {
	if err := s.repo.Delete(ctx, row.ID, userID); err != nil {
		return err
	}

	if blobstore.IsEncryptedURI(row.LocalID) {
		if err := s.previews.Remove(row.LocalID); err != nil {
			s.log.Warn(ctx, "preview removal failed", "photo", row.ID, "err", err)
		}
		s.discardBlob(ctx, row.LocalID)
	} else if filex.IsFileURI(row.LocalID) {
		s.removeLocal(ctx, row.LocalID)
	}

	s.events.publish(Event{Kind: EventDeleted, PhotoID: row.ID})
	return nil
}

// UpdatePhotoCategories replaces a photo's categories. A list with no
// numeric id deletes the photo.
func (s *PhotoService) UpdatePhotoCategories(ctx context.Context, id string, categories []string) error {
	cats := models.NormalizeCategoryIDs(categories...)
	if len(cats) == 0 {
		return s.DeletePhoto(ctx, id)
	}

	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateCategories(ctx, id, userID, cats); err != nil {
		return err
	}
	s.events.publish(Event{Kind: EventUpdated, PhotoID: id})
	return nil
}

// RemoveCategoryFromPhotos drops categoryID from every photo of the
// current user, deleting photos left without categories.
//
// Photos are processed one at a time and the first failure aborts the
// batch; already processed photos stay changed. Re-running is safe.
func (s *PhotoService) RemoveCategoryFromPhotos(ctx context.Context, categoryID string) error {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	ids := models.NormalizeCategoryIDs(categoryID)
	if len(ids) == 0 {
		return nil
	}
	target := ids[0]

	rows, err := s.repo.List(ctx, userID, ids)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := models.WithoutCategory(row.Categories, target)
		if len(next) == 0 {
			if err := s.deleteRow(ctx, userID, row); err != nil {
				return err
			}
			continue
		}

		if err := s.repo.UpdateCategories(ctx, row.ID, userID, next); err != nil {
			return err
		}
		s.events.publish(Event{Kind: EventUpdated, PhotoID: row.ID})
	}
	return nil
}

func (s *PhotoService) readSource(ctx context.Context, uri string) ([]byte, error) {
	if filex.IsFileURI(uri) {
		return readLocal(uri)
	}

	r, ok := s.resolvers[scheme(uri)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, uri)
	}

	text, err := r.ReadBase64(ctx, uri)
	if err != nil {
		return nil, err
	}
	return cryptox.DecodeBase64(text), nil
}

func readLocal(uri string) ([]byte, error) {
	path, err := filex.URIToPath(uri)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrStorageUnavailable, path, err)
	}
	return data, err
}

func (s *PhotoService) removeLocal(ctx context.Context, uri string) {
	path, err := filex.URIToPath(uri)
	if err == nil {
		err = filex.RemoveIfExists(path)
	}
	if err != nil {
		s.log.Warn(ctx, "local file removal failed", "uri", uri, "err", err)
	}
}

func (s *PhotoService) discardBlob(ctx context.Context, uri string) {
	if err := s.blobs.Delete(uri); err != nil {
		s.log.Warn(ctx, "blob removal failed", "uri", uri, "err", err)
	}
}
