package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/progresskeeper/internal/flagx"
)

var knownFlags = []string{"-d", "-k", "-l", "-r", "-x", "-j", "-v", "-t", "-b", "-g", "-e", "-u", "-p"}

// parseFlags overlays cfg with the flags it recognizes in args. Other
// arguments (subcommands and their flags) are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.CacheDir, "k", cfg.CacheDir, "cache directory")
	fs.StringVar(&cfg.LocalDSN, "l", cfg.LocalDSN, "local SQLite DSN")
	fs.StringVar(&cfg.RemoteDSN, "r", cfg.RemoteDSN, "remote PostgreSQL DSN")
	fs.StringVar(&cfg.Cipher, "x", cfg.Cipher, "cipher for new blobs")
	fs.StringVar(&cfg.JWTSecret, "j", cfg.JWTSecret, "session token HS256 secret")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	timeout := fs.Int("t", int(cfg.OperationTimeout.Seconds()), "operation timeout (in seconds)")

	fs.StringVar(&cfg.S3.Bucket, "b", cfg.S3.Bucket, "S3 backup bucket")
	fs.StringVar(&cfg.S3.Region, "g", cfg.S3.Region, "S3 region")
	fs.StringVar(&cfg.S3.BaseEndpoint, "e", cfg.S3.BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3.AccessKey, "u", cfg.S3.AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3.SecretKey, "p", cfg.S3.SecretKey, "S3 secret key")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// Only an explicit -t replaces the timeout; the default would truncate
	// sub-second values loaded from a file.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.OperationTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
