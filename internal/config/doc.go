// Package config loads runtime configuration for progresskeeper.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c or -config; the format is
//     chosen by extension (.yaml/.yml → YAML, anything else → JSON).
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   data directory (key file, encrypted photos, local database)
//	-k string   cache directory (decrypted previews)
//	-l string   local SQLite DSN (default <data>/progress.db)
//	-r string   remote PostgreSQL DSN for photo_metadata (empty → local table)
//	-x string   cipher for new blobs: keystream | xchacha20poly1305
//	-j string   HS256 secret used to verify session tokens (optional)
//	-v string   log level: debug | info | warn | error
//	-t int      per-operation timeout (seconds)
//	-b string   S3 bucket for encrypted backups (empty disables backup)
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-u string   S3 access key
//	-p string   S3 secret key
//
// # File schema
//
//	{
//	  "data_dir": "/var/lib/progress",
//	  "cache_dir": "/var/cache/progress",
//	  "remote_dsn": "postgres://...",
//	  "cipher": "keystream",
//	  "log_level": "info",
//	  "log_format": "json",
//	  "operation_timeout": "30s",
//	  "s3": {"bucket": "progress-backups", "region": "us-east-1"}
//	}
//
// Intervals use timex.Duration, so they can be strings like "30s" or
// integer nanoseconds.
package config
