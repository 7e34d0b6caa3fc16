// Package preview maintains decrypted previews of encrypted blobs.
//
// The cache lives in <cache>/photo-previews. A preview is named like its
// blob with the cipher suffix stripped and is only ever written whole, so a
// present preview always holds the full decryption of its blob. The
// directory may be wiped at any time; previews are regenerated on demand.
package preview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/progresskeeper/internal/blobstore"
	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/cryptox"
	"github.com/dmitrijs2005/progresskeeper/internal/filex"
	"github.com/dmitrijs2005/progresskeeper/internal/keys"
	"github.com/dmitrijs2005/progresskeeper/internal/logging"
)

// DirName is the preview directory name inside the cache directory.
const DirName = "photo-previews"

// Opener decrypts blobs.
type Opener interface {
	Open(ctx context.Context, uri string, key []byte) ([]byte, error)
}

type Cache struct {
	cacheDir string
	blobs    Opener
	keys     keys.Provider
	log      logging.Logger

	group singleflight.Group
}

func New(cacheDir string, blobs Opener, kp keys.Provider, log logging.Logger) *Cache {
	return &Cache{cacheDir: cacheDir, blobs: blobs, keys: kp, log: log}
}

// Dir returns the absolute preview directory, creating it if needed.
func (c *Cache) Dir() (string, error) {
	dir, err := filex.EnsureSubdDir(c.cacheDir, DirName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	return dir, nil
}

// PreviewName strips the cipher suffix from a blob name.
func PreviewName(blobName string) string {
	c, err := cryptox.CipherBySuffix(blobName)
	if err != nil {
		return blobName
	}
	return strings.TrimSuffix(blobName, c.Suffix())
}

// EnsurePreview returns the URI of the decrypted preview of blobURI,
// generating it when absent. A cache hit touches neither key nor blob.
func (c *Cache) EnsurePreview(ctx context.Context, blobURI string) (string, error) {
	path, err := c.previewPath(blobURI)
	if err != nil {
		return "", err
	}

	ok, err := filex.Exists(path)
	if err != nil {
		return "", fmt.Errorf("%w: stat preview: %w", common.ErrStorageUnavailable, err)
	}
	if ok {
		c.log.Debug(ctx, "preview cache hit", "preview", filepath.Base(path))
		return filex.PathToURI(path), nil
	}

	// Concurrent misses for one blob share a single decryption.
	// The flight is shared, so it must outlive any single caller's context.
	// Each caller still stops waiting when its own context ends.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(path, func() (any, error) {
		return c.generate(flightCtx, blobURI, path)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) generate(ctx context.Context, blobURI, path string) (string, error) {
	if ok, _ := filex.Exists(path); ok {
		return filex.PathToURI(path), nil
	}

	key, err := c.keys.GetOrCreateKey(ctx)
	if err != nil {
		return "", err
	}

	plain, err := c.blobs.Open(ctx, blobURI, key)
	if err != nil {
		return "", err
	}

	if _, err := c.Dir(); err != nil {
		return "", err
	}
	if err := filex.WriteFileAtomic(path, plain, 0o600); err != nil {
		return "", fmt.Errorf("%w: write preview: %w", common.ErrStorageUnavailable, err)
	}

	c.log.Debug(ctx, "preview generated", "preview", filepath.Base(path))
	return filex.PathToURI(path), nil
}

// Remove deletes the preview of blobURI if present.
func (c *Cache) Remove(blobURI string) error {
	path, err := c.previewPath(blobURI)
	if err != nil {
		return err
	}
	return filex.RemoveIfExists(path)
}

// Clear drops every cached preview.
func (c *Cache) Clear() error {
	dir, err := c.Dir()
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: clear previews: %w", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (c *Cache) previewPath(blobURI string) (string, error) {
	name, err := blobstore.Name(blobURI)
	if err != nil {
		return "", err
	}

	dir, err := filepath.Abs(filepath.Join(c.cacheDir, DirName))
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	return filepath.Join(dir, PreviewName(name)), nil
}
