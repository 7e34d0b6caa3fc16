package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/dmitrijs2005/progresskeeper/internal/filex"
	"github.com/dmitrijs2005/progresskeeper/internal/models"
)

// ImportResult summarizes an ImportLegacy run.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportLegacy imports an export of the old on-device image list. Each
// image is encrypted into a new blob and recorded for the current user
// with its original capture time. The legacy files are left in place.
//
// Images without a numeric category or whose file is gone are skipped.
// Any other failure stops the import; images imported so far stay.
func (s *PhotoService) ImportLegacy(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return res, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return res, fmt.Errorf("read legacy export: %w", err)
	}

	images, err := models.DecodeLegacyImages(raw)
	if err != nil {
		return res, fmt.Errorf("decode legacy export: %w", err)
	}

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		cats := models.NormalizeCategoryIDs(img.Categories...)
		if len(cats) == 0 {
			s.log.Warn(ctx, "legacy image has no numeric category, skipped", "legacy_id", img.ID)
			res.Skipped++
			continue
		}

		uri := legacyURI(img.URI)
		data, err := s.readSource(ctx, uri)
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn(ctx, "legacy image file missing, skipped", "legacy_id", img.ID, "uri", uri)
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("legacy image %s: %w", img.ID, err)
		}

		blobURI, err := s.blobs.WriteEncrypted(ctx, uri, data)
		if err != nil {
			return res, err
		}

		captured := img.Timestamp
		if captured == 0 {
			captured = models.TimestampFromTime(s.now())
		}

		row, err := s.repo.Insert(ctx, &models.PhotoRow{
			UserID:     userID,
			LocalID:    blobURI,
			Width:      img.Width,
			Height:     img.Height,
			CapturedAt: captured,
			Categories: cats,
		})
		if err != nil {
			s.discardBlob(ctx, blobURI)
			return res, err
		}

		res.Imported++
		s.events.publish(Event{Kind: EventSaved, PhotoID: row.ID})
	}

	s.log.Info(ctx, "legacy import finished", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

// legacyURI turns bare absolute paths of old exports into file:// URIs.
func legacyURI(uri string) string {
	if scheme(uri) == "" && filepath.IsAbs(uri) {
		return filex.PathToURI(uri)
	}
	return uri
}
