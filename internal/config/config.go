package config

import (
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/progresskeeper/internal/cryptox"
)

// S3 holds settings of the optional S3-compatible backup bucket.
type S3 struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// Enabled reports whether a backup bucket is configured.
func (s S3) Enabled() bool { return s.Bucket != "" }

// Config holds runtime settings.
//
// Fields:
//   - DataDir: durable per-device storage (document directory).
//   - CacheDir: disposable storage for decrypted previews.
//   - LocalDSN: SQLite DSN of the local database; empty means
//     <DataDir>/progress.db.
//   - RemoteDSN: PostgreSQL DSN of the photo_metadata table; empty selects the
//     local SQLite table.
//   - Cipher: scheme name for newly written blobs.
//   - JWTSecret: optional HS256 secret for verifying session tokens.
//   - OperationTimeout: deadline applied to each CLI operation.
type Config struct {
	DataDir          string
	CacheDir         string
	LocalDSN         string
	RemoteDSN        string
	Cipher           string
	JWTSecret        string
	LogLevel         string
	LogFormat        string
	OperationTimeout time.Duration
	S3               S3
}

// LoadDefaults populates c with defaults suitable for a single-user install
// in the working directory.
func (c *Config) LoadDefaults() {
	c.DataDir = "progress-data"
	c.CacheDir = filepath.Join("progress-data", "cache")
	c.LocalDSN = ""
	c.RemoteDSN = ""
	c.Cipher = cryptox.DefaultCipherName
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.OperationTimeout = 30 * time.Second
	c.S3 = S3{Region: "us-east-1"}
}

// LocalDatabaseDSN returns LocalDSN or its default under DataDir.
func (c *Config) LocalDatabaseDSN() string {
	if c.LocalDSN != "" {
		return c.LocalDSN
	}
	return filepath.Join(c.DataDir, "progress.db")
}

// LoadConfig builds a Config from defaults, then the optional config file,
// then flags found in args (usually os.Args[1:]). Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	defaults := *cfg
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	// An unset cache directory follows a relocated data directory.
	if cfg.CacheDir == defaults.CacheDir && cfg.DataDir != defaults.DataDir {
		cfg.CacheDir = filepath.Join(cfg.DataDir, "cache")
	}
	if _, err := cryptox.CipherByName(cfg.Cipher); err != nil {
		return nil, err
	}
	return cfg, nil
}
