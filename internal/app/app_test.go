package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/config"
	"github.com/dmitrijs2005/progresskeeper/internal/identity"
	"github.com/dmitrijs2005/progresskeeper/internal/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	dir := t.TempDir()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.CacheDir = filepath.Join(dir, "cache")
	return cfg
}

func TestNewApp_LocalOnly(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer

	a, err := NewApp(ctx, testConfig(t), &logs)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Photos.ListPhotos(ctx, "")
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	tok, err := identity.GenerateToken("u1", []byte("k"), time.Hour)
	require.NoError(t, err)
	_, err = a.Session.Login(ctx, tok)
	require.NoError(t, err)

	list, err := a.Photos.ListPhotos(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = a.Backup.Backup(ctx)
	require.ErrorIs(t, err, services.ErrBackupDisabled)
}

func TestNewApp_ReopensExistingDatabase(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := NewApp(ctx, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = NewApp(ctx, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestNewApp_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.Cipher = "rot13"
	_, err := NewApp(ctx, cfg, &bytes.Buffer{})
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.RemoteDSN = "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"
	_, err = NewApp(ctx, cfg, &bytes.Buffer{})
	require.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)", sqliteDSN("a.db"))
	assert.Equal(t, "file:a.db?cache=shared&_pragma=busy_timeout(5000)", sqliteDSN("file:a.db?cache=shared"))
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)", sqliteDSN("a.db?_pragma=foreign_keys(1)"))
}
