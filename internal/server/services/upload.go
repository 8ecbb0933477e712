package services

import (
	"context"
	"fmt"

	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server/config"
	"github.com/recipehub/recipehub/internal/server/storage"
)

const (
	FolderImages   = "images"
	FolderRecipes  = "recipes"
	FolderProfiles = "profiles"
)

// UploadService validates images and hands them to the configured storage.
type UploadService struct {
	storage     storage.Storage
	maxFileSize int64
	logger      logging.Logger
}

func NewUploadService(st storage.Storage, cfg *config.Config, l logging.Logger) *UploadService {
	return &UploadService{storage: st, maxFileSize: cfg.MaxFileSize, logger: l}
}

// UploadImage stores f under folder and returns its public URL.
func (s *UploadService) UploadImage(ctx context.Context, f *storage.File, folder string) (string, error) {
	if err := s.validate(f); err != nil {
		return "", err
	}
	url, err := s.storage.Upload(ctx, *f, folder)
	if err != nil {
		return "", internalError("upload image", err)
	}
	s.logger.Info(ctx, "image uploaded", "folder", folder, "size", f.Size, "url", url)
	return url, nil
}

func (s *UploadService) UploadRecipeImage(ctx context.Context, f *storage.File) (string, error) {
	return s.UploadImage(ctx, f, FolderRecipes)
}

func (s *UploadService) UploadProfileImage(ctx context.Context, f *storage.File) (string, error) {
	return s.UploadImage(ctx, f, FolderProfiles)
}

func (s *UploadService) DeleteImage(ctx context.Context, url string) error {
	if err := s.storage.Delete(ctx, url); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func (s *UploadService) validate(f *storage.File) error {
	if f == nil || f.Body == nil {
		return ErrNoFile
	}
	if _, ok := storage.ExtensionFor(f.ContentType); !ok {
		return ErrUnsupportedImage
	}
	if s.maxFileSize > 0 && f.Size > s.maxFileSize {
		return ErrFileTooLarge
	}
	return nil
}
