// Package app wires configuration, storage and services into one
// application instance.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/progresskeeper/internal/blobstore"
	"github.com/dmitrijs2005/progresskeeper/internal/config"
	"github.com/dmitrijs2005/progresskeeper/internal/cryptox"
	"github.com/dmitrijs2005/progresskeeper/internal/dbx"
	"github.com/dmitrijs2005/progresskeeper/internal/filex"
	"github.com/dmitrijs2005/progresskeeper/internal/identity"
	"github.com/dmitrijs2005/progresskeeper/internal/keys"
	"github.com/dmitrijs2005/progresskeeper/internal/logging"
	"github.com/dmitrijs2005/progresskeeper/internal/migrations"
	"github.com/dmitrijs2005/progresskeeper/internal/preview"
	"github.com/dmitrijs2005/progresskeeper/internal/repositories/photos"
	"github.com/dmitrijs2005/progresskeeper/internal/repositories/session"
	"github.com/dmitrijs2005/progresskeeper/internal/services"
)

type App struct {
	Config   *config.Config
	Log      logging.Logger
	Session  *identity.SessionProvider
	Keys     *keys.Manager
	Blobs    *blobstore.Store
	Previews *preview.Cache
	Photos   *services.PhotoService
	Backup   *services.BackupService

	localDB  *sql.DB
	remoteDB *sql.DB
}

// NewApp opens the local database (and the remote one when configured),
// applies migrations and builds the services. Log output goes to logOut,
// or stderr when nil.
func NewApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	if logOut == nil {
		logOut = os.Stderr
	}
	log := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)

	cipher, err := cryptox.CipherByName(cfg.Cipher)
	if err != nil {
		return nil, err
	}

	if cfg.LocalDSN == "" {
		if _, err := filex.EnsureSubdDir(cfg.DataDir, ""); err != nil {
			return nil, fmt.Errorf("data directory: %w", err)
		}
	}

	a := &App{Config: cfg, Log: log}

	a.localDB, err = dbx.Open(ctx, "sqlite", sqliteDSN(cfg.LocalDatabaseDSN()))
	if err != nil {
		return nil, err
	}
	if err := migrations.RunSQLite(ctx, a.localDB); err != nil {
		_ = a.Close()
		return nil, err
	}

	var repo photos.Repository = photos.NewSQLiteRepository(a.localDB)
	if cfg.RemoteDSN != "" {
		a.remoteDB, err = dbx.Open(ctx, "pgx", cfg.RemoteDSN)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if err := migrations.RunPostgres(ctx, a.remoteDB); err != nil {
			_ = a.Close()
			return nil, err
		}
		repo = photos.NewPostgresRepository(a.remoteDB)
	}

	a.Session = identity.NewSessionProvider(session.NewSQLiteRepository(a.localDB), []byte(cfg.JWTSecret))
	a.Keys = keys.NewManager(cfg.DataDir)
	a.Blobs = blobstore.New(cfg.DataDir, cipher, a.Keys)
	a.Previews = preview.New(cfg.CacheDir, a.Blobs, a.Keys, log.With("component", "preview"))
	web := services.HTTPResolver{}
	a.Photos = services.NewPhotoService(repo, a.Session, a.Blobs, a.Previews, log.With("component", "photos"),
		services.WithContentResolver("http", web),
		services.WithContentResolver("https", web),
	)

	var store services.ObjectStore
	if cfg.S3.Enabled() {
		client, err := services.NewS3Client(ctx, cfg.S3)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		store = client
	}
	a.Backup = services.NewBackupService(repo, a.Session, a.Blobs, store, cfg.S3.Bucket, log.With("component", "backup"))

	log.Debug(ctx, "application ready",
		"data_dir", cfg.DataDir, "cache_dir", cfg.CacheDir,
		"remote", cfg.RemoteDSN != "", "cipher", cipher.Name(), "backup", cfg.S3.Enabled())
	return a, nil
}

// sqliteDSN adds a busy timeout unless the DSN sets pragmas itself, so
// concurrent writers wait for the lock instead of failing.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}

// Close releases the database handles.
func (a *App) Close() error {
	var errs []error
	if a.remoteDB != nil {
		errs = append(errs, a.remoteDB.Close())
	}
	if a.localDB != nil {
		errs = append(errs, a.localDB.Close())
	}
	return errors.Join(errs...)
}
