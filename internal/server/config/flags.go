package config

import (
	"flag"
	"os"
	"time"

	"github.com/recipehub/recipehub/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string          HTTP bind address (e.g. ":4000")
//	-g string          gRPC health bind address, empty disables it
//	-d string          PostgreSQL DSN
//	-redis string      Redis URL, empty selects the in-memory session store
//	-s string          access token secret
//	-rs string         refresh token secret
//	-t int             access token validity, minutes
//	-rt int            refresh token validity, minutes
//	-storage string    local or s3
//	-upload-dir string directory for local uploads
//	-api-url string    public base URL used in local upload links
//	-log-level string  debug, info, warn or error
//
// os.Args is filtered with flagx.FilterArgs first so flags owned by other
// components (the admin tool's subcommands) do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-g", "-d", "-redis", "-s", "-rs", "-t", "-rt",
		"-storage", "-upload-dir", "-api-url", "-log-level",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPCHealth, "g", config.EndpointAddrGRPCHealth, "address of the gRPC health endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis URL")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "access token secret")
	fs.StringVar(&config.JWTRefreshSecret, "rs", config.JWTRefreshSecret, "refresh token secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("rt", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.StorageType, "storage", config.StorageType, "upload storage: local or s3")
	fs.StringVar(&config.UploadDir, "upload-dir", config.UploadDir, "directory for local uploads")
	fs.StringVar(&config.APIURL, "api-url", config.APIURL, "public API base URL")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
