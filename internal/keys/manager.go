// Package keys manages the installation-wide symmetric photo key.
//
// Exactly one 32-byte key file exists per data directory. It is created on
// first use and never rotated: losing it orphans every blob encrypted so far.
package keys

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/cryptox"
	"github.com/dmitrijs2005/progresskeeper/internal/filex"
)

// KeyFileName is the key file name inside the data directory.
const KeyFileName = "photo-key.bin"

// ErrCorruptKey is returned when the key file exists but does not hold
// exactly cryptox.KeySize bytes.
var ErrCorruptKey = errors.New("keys: key file has wrong length")

// Provider returns the current symmetric key.
type Provider interface {
	GetOrCreateKey(ctx context.Context) ([]byte, error)
}

// Manager is the file-backed Provider.
type Manager struct {
	dataDir string
	mu      sync.Mutex
}

// NewManager returns a Manager keeping its key file in dataDir.
func NewManager(dataDir string) *Manager {
	return &Manager{dataDir: dataDir}
}

// Path returns the absolute key file path, creating the data directory.
func (m *Manager) Path() (string, error) {
	dir, err := filex.EnsureSubdDir(m.dataDir, "")
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	return filepath.Join(dir, KeyFileName), nil
}

// GetOrCreateKey returns the persisted key, creating it on first call.
//
// Creation is first-writer-wins: the candidate key is written to a temp file
// and hard-linked into place, which fails if another writer (goroutine or
// process) got there first; the loser then reads the winner's key.
func (m *Manager) GetOrCreateKey(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := m.Path()
	if err != nil {
		return nil, err
	}

	key, err := readKey(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := createKey(path); err != nil {
		return nil, err
	}
	return readKey(path)
}

func readKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read key: %w", common.ErrStorageUnavailable, err)
	}
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrCorruptKey, len(key))
	}
	return key, nil
}

func createKey(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".photo-key-*")
	if err != nil {
		return fmt.Errorf("%w: create key: %w", common.ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	candidate := common.GenerateRandByteArray(cryptox.KeySize)
	defer common.WipeByteArray(candidate)

	_, werr := tmp.Write(candidate)
	if serr := tmp.Sync(); werr == nil {
		werr = serr
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("%w: write key: %w", common.ErrStorageUnavailable, werr)
	}

	if err := os.Link(tmpName, path); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: install key: %w", common.ErrStorageUnavailable, err)
	}
	return nil
}
