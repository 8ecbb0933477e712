package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/recipehub/recipehub/internal/flagx"
	"github.com/recipehub/recipehub/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Durations use
// timex.Duration so "15m" and "30d" are accepted. Empty fields leave the
// current value untouched.
type FileConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPCHealth       string         `json:"endpoint_addr_grpc_health" yaml:"endpoint_addr_grpc_health"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	RedisURL                     string         `json:"redis_url" yaml:"redis_url"`
	JWTSecret                    string         `json:"jwt_secret" yaml:"jwt_secret"`
	JWTRefreshSecret             string         `json:"jwt_refresh_secret" yaml:"jwt_refresh_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	SessionTTL                   timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	StorageType                  string         `json:"storage_type" yaml:"storage_type"`
	UploadDir                    string         `json:"upload_dir" yaml:"upload_dir"`
	APIURL                       string         `json:"api_url" yaml:"api_url"`
	MaxFileSize                  int64          `json:"max_file_size" yaml:"max_file_size"`
	S3AccessKeyID                string         `json:"s3_access_key_id" yaml:"s3_access_key_id"`
	S3SecretAccessKey            string         `json:"s3_secret_access_key" yaml:"s3_secret_access_key"`
	S3Bucket                     string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	LogLevel                     string         `json:"log_level" yaml:"log_level"`
}

// parseFile loads the file named by -c/-config, if any. ".yaml" and ".yml"
// files are decoded as YAML, everything else as JSON. An unreadable or
// malformed file panics.
func parseFile(config *Config) {

	path := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPCHealth, c.EndpointAddrGRPCHealth)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.JWTRefreshSecret, c.JWTRefreshSecret)
	setString(&config.StorageType, c.StorageType)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.APIURL, c.APIURL)
	setString(&config.S3AccessKeyID, c.S3AccessKeyID)
	setString(&config.S3SecretAccessKey, c.S3SecretAccessKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.MaxFileSize > 0 {
		config.MaxFileSize = c.MaxFileSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
