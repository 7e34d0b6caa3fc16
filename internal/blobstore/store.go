// Package blobstore keeps encrypted photo blobs on the device.
//
// Blobs live in <data>/encrypted-photos and are named
// <uuid>.<ext><cipher suffix>, e.g. 0b1c...e9.jpg.enc. A blob holds the
// cipher payload only; the key is managed by package keys.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/cryptox"
	"github.com/dmitrijs2005/progresskeeper/internal/filex"
	"github.com/dmitrijs2005/progresskeeper/internal/keys"
)

// DirName is the blob directory name inside the data directory.
const DirName = "encrypted-photos"

// DefaultExtension is used when the source reference carries none.
const DefaultExtension = "jpg"

// ErrNotEncrypted is returned for URIs outside the blob naming convention.
var ErrNotEncrypted = errors.New("blobstore: not an encrypted blob uri")

var extensionRe = regexp.MustCompile(`\.([A-Za-z0-9]+)(?:\?|#|$)`)

type Store struct {
	dataDir string
	cipher  cryptox.Cipher
	keys    keys.Provider
}

// New returns a Store writing new blobs with c.
func New(dataDir string, c cryptox.Cipher, kp keys.Provider) *Store {
	return &Store{dataDir: dataDir, cipher: c, keys: kp}
}

// Cipher returns the scheme used for new blobs.
func (s *Store) Cipher() cryptox.Cipher { return s.cipher }

// Dir returns the absolute blob directory, creating it if needed.
func (s *Store) Dir() (string, error) {
	dir, err := filex.EnsureSubdDir(s.dataDir, DirName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	return dir, nil
}

// Extension returns the lowercased file extension of ref, or
// DefaultExtension.
func Extension(ref string) string {
	m := extensionRe.FindStringSubmatch(ref)
	if m == nil {
		return DefaultExtension
	}
	return strings.ToLower(m[1])
}

// WriteEncrypted encrypts data with the current key and stores it as a new
// blob. sourceRef only contributes the file extension.
func (s *Store) WriteEncrypted(ctx context.Context, sourceRef string, data []byte) (string, error) {
	key, err := s.keys.GetOrCreateKey(ctx)
	if err != nil {
		return "", err
	}

	payload, err := s.cipher.Encrypt(data, key)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + "." + Extension(sourceRef) + s.cipher.Suffix()
	return s.WritePayload(name, payload)
}

// WritePayload stores an already encrypted payload under name.
func (s *Store) WritePayload(name string, payload []byte) (string, error) {
	if name != filepath.Base(name) || !hasCipherSuffix(name) {
		return "", fmt.Errorf("%w: %q", ErrNotEncrypted, name)
	}

	dir, err := s.Dir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := filex.WriteFileAtomic(path, payload, 0o600); err != nil {
		return "", fmt.Errorf("%w: write blob: %w", common.ErrStorageUnavailable, err)
	}
	return filex.PathToURI(path), nil
}

// ReadEncrypted returns the raw payload of the blob at uri.
func (s *Store) ReadEncrypted(uri string) ([]byte, error) {
	path, err := blobPath(uri)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", filepath.Base(path), common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: read blob: %w", common.ErrStorageUnavailable, err)
	}
	return data, nil
}

// Open reads the blob at uri and decrypts it with key, picking the scheme
// from the blob's suffix.
func (s *Store) Open(ctx context.Context, uri string, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := CipherFor(uri)
	if err != nil {
		return nil, err
	}

	payload, err := s.ReadEncrypted(uri)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(payload, key)
}

// Delete removes the blob at uri. Missing blobs are not an error.
func (s *Store) Delete(uri string) error {
	path, err := blobPath(uri)
	if err != nil {
		return err
	}
	return filex.RemoveIfExists(path)
}

// Path returns the local path of the blob with the given name.
func (s *Store) Path(name string) (string, error) {
	dir, err := s.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// List returns the names of all stored blobs, sorted.
func (s *Store) List() ([]string, error) {
	dir, err := s.Dir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list blobs: %w", common.ErrStorageUnavailable, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && hasCipherSuffix(e.Name()) && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// IsEncryptedURI reports whether uri names a blob: a file:// URI inside an
// encrypted-photos directory ending with a known cipher suffix.
func IsEncryptedURI(uri string) bool {
	_, err := blobPath(uri)
	return err == nil
}

// CipherFor returns the scheme a blob was written with.
func CipherFor(uri string) (cryptox.Cipher, error) {
	path, err := blobPath(uri)
	if err != nil {
		return nil, err
	}
	return cryptox.CipherBySuffix(path)
}

// Name returns the blob file name of uri.
func Name(uri string) (string, error) {
	path, err := blobPath(uri)
	if err != nil {
		return "", err
	}
	return filepath.Base(path), nil
}

func blobPath(uri string) (string, error) {
	if !filex.IsFileURI(uri) {
		return "", fmt.Errorf("%w: %q", ErrNotEncrypted, uri)
	}
	path, err := filex.URIToPath(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotEncrypted, err)
	}
	if filepath.Base(filepath.Dir(path)) != DirName || !hasCipherSuffix(path) {
		return "", fmt.Errorf("%w: %q", ErrNotEncrypted, uri)
	}
	return path, nil
}

func hasCipherSuffix(name string) bool {
	_, err := cryptox.CipherBySuffix(name)
	return err == nil
}
