package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/progresskeeper/internal/flagx"
	"github.com/dmitrijs2005/progresskeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape. Pointer-free string fields overwrite the
// runtime config only when non-empty.
type fileConfig struct {
	DataDir          string         `json:"data_dir" yaml:"data_dir"`
	CacheDir         string         `json:"cache_dir" yaml:"cache_dir"`
	LocalDSN         string         `json:"local_dsn" yaml:"local_dsn"`
	RemoteDSN        string         `json:"remote_dsn" yaml:"remote_dsn"`
	Cipher           string         `json:"cipher" yaml:"cipher"`
	JWTSecret        string         `json:"jwt_secret" yaml:"jwt_secret"`
	LogLevel         string         `json:"log_level" yaml:"log_level"`
	LogFormat        string         `json:"log_format" yaml:"log_format"`
	OperationTimeout timex.Duration `json:"operation_timeout" yaml:"operation_timeout"`
	S3               struct {
		Bucket       string `json:"bucket" yaml:"bucket"`
		Region       string `json:"region" yaml:"region"`
		BaseEndpoint string `json:"base_endpoint" yaml:"base_endpoint"`
		AccessKey    string `json:"access_key" yaml:"access_key"`
		SecretKey    string `json:"secret_key" yaml:"secret_key"`
	} `json:"s3" yaml:"s3"`
}

// parseFile overlays cfg with the file named by -c/-config, if any.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.CacheDir, fc.CacheDir)
	setString(&cfg.LocalDSN, fc.LocalDSN)
	setString(&cfg.RemoteDSN, fc.RemoteDSN)
	setString(&cfg.Cipher, fc.Cipher)
	setString(&cfg.JWTSecret, fc.JWTSecret)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.OperationTimeout.Duration > 0 {
		cfg.OperationTimeout = fc.OperationTimeout.Duration
	}
	setString(&cfg.S3.Bucket, fc.S3.Bucket)
	setString(&cfg.S3.Region, fc.S3.Region)
	setString(&cfg.S3.BaseEndpoint, fc.S3.BaseEndpoint)
	setString(&cfg.S3.AccessKey, fc.S3.AccessKey)
	setString(&cfg.S3.SecretKey, fc.S3.SecretKey)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
