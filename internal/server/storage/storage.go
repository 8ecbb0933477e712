// Package storage keeps uploaded images either on the local filesystem or
// in an S3 bucket and hands back the public URL of each stored object.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"

	"github.com/google/uuid"
	"github.com/recipehub/recipehub/internal/server/config"
)

var (
	// ErrForeignURL is returned by Delete for URLs this storage did not issue.
	ErrForeignURL = errors.New("url does not belong to this storage")
	// ErrUnsupportedType is returned by Upload for content types outside
	// imageExtensions.
	ErrUnsupportedType = errors.New("unsupported content type")
)

// imageExtensions maps the accepted image types to the extension stored
// objects get. The client's filename never decides the extension, so a file
// is always served back with the type it was accepted as.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// File is an upload as received from the client. Body may also implement
// io.Seeker, which S3 needs for payload signing over plain HTTP.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Storage interface {
	Upload(ctx context.Context, f File, folder string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// New returns the storage selected by cfg.StorageType.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageType {
	case config.StorageS3:
		return NewS3Storage(ctx, S3Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3BaseEndpoint,
		})
	case config.StorageLocal, "":
		return NewLocalStorage(cfg.UploadDir, cfg.APIURL)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}

// ExtensionFor returns the stored extension for an image content type.
// Parameters such as "; charset=" are ignored.
func ExtensionFor(contentType string) (string, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	ext, ok := imageExtensions[mt]
	return ext, ok
}

// objectName is a fresh uuid with the extension of contentType.
func objectName(contentType string) (string, error) {
	ext, ok := ExtensionFor(contentType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return uuid.NewString() + ext, nil
}
