package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/recipehub/recipehub/internal/timex"
)

const defaultEnvFile = ".env"

// parseEnv loads an optional .env file (ENV_FILE_PATH, default ".env") into
// the process environment without overriding variables already set, and
// then overlays recognised variables onto config.
func parseEnv(config *Config) {
	loadDotEnv()
	if err := applyEnv(config, os.LookupEnv); err != nil {
		panic(err)
	}
}

func loadDotEnv() {
	path := os.Getenv("ENV_FILE_PATH")
	if path == "" {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load %s: %w", path, err))
	}
}

// applyEnv copies every recognised key found through lookup onto config.
// The same key set is used for the process environment and for the
// Secrets Manager payload.
func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	if port, ok := lookup("PORT"); ok && port != "" {
		config.EndpointAddrHTTP = ":" + port
	}

	stringVars := map[string]*string{
		"HTTP_ADDR":             &config.EndpointAddrHTTP,
		"GRPC_HEALTH_ADDR":      &config.EndpointAddrGRPCHealth,
		"DATABASE_URL":          &config.DatabaseDSN,
		"REDIS_URL":             &config.RedisURL,
		"JWT_SECRET":            &config.JWTSecret,
		"JWT_REFRESH_SECRET":    &config.JWTRefreshSecret,
		"STORAGE_TYPE":          &config.StorageType,
		"UPLOAD_DIR":            &config.UploadDir,
		"API_URL":               &config.APIURL,
		"AWS_ACCESS_KEY_ID":     &config.S3AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": &config.S3SecretAccessKey,
		"AWS_S3_BUCKET":         &config.S3Bucket,
		"AWS_REGION":            &config.S3Region,
		"AWS_S3_ENDPOINT":       &config.S3BaseEndpoint,
		"LOG_LEVEL":             &config.LogLevel,
	}
	for key, dst := range stringVars {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"JWT_EXPIRES_IN":         &config.AccessTokenValidityDuration,
		"JWT_REFRESH_EXPIRES_IN": &config.RefreshTokenValidityDuration,
		"SESSION_TTL":            &config.SessionTTL,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("MAX_FILE_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_FILE_SIZE: %w", err)
		}
		config.MaxFileSize = n
	}

	return nil
}
