package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/recipehub/recipehub/internal/common"
	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server/models"
	"github.com/recipehub/recipehub/internal/server/repositories/repomanager"
	"github.com/recipehub/recipehub/internal/server/storage"
)

type profileImages interface {
	UploadProfileImage(ctx context.Context, f *storage.File) (string, error)
	DeleteImage(ctx context.Context, url string) error
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	Name         *string `json:"name"`
	ProfileImage *string `json:"profileImage"`
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      profileImages
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, images profileImages, l logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, images: images, logger: l}
}

// GetUser returns the public profile of a user.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrUserNotFound
	}
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, userLookupError("get user", err)
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
			return nil, validationError("name must be between 2 and 50 characters")
		}
		upd.Name = &name
	}
	u, err := s.repomanager.Users(s.db).UpdateProfile(ctx, id, upd.Name, upd.ProfileImage)
	if err != nil {
		return nil, userLookupError("update profile", err)
	}
	return u, nil
}

// ChangeProfileImage uploads f, points the profile at it and then removes
// the previous image. A failed removal is only logged.
func (s *UserService) ChangeProfileImage(ctx context.Context, id string, f *storage.File) (string, error) {
	repo := s.repomanager.Users(s.db)
	current, err := repo.GetByID(ctx, id)
	if err != nil {
		return "", userLookupError("change profile image", err)
	}

	url, err := s.images.UploadProfileImage(ctx, f)
	if err != nil {
		return "", err
	}

	if _, err := repo.UpdateProfile(ctx, id, nil, &url); err != nil {
		if derr := s.images.DeleteImage(ctx, url); derr != nil {
			s.logger.Warn(ctx, "orphaned profile image", "url", url, "error", derr)
		}
		return "", userLookupError("change profile image", err)
	}

	if old := current.ProfileImage; old != nil && *old != "" && *old != url {
		if err := s.images.DeleteImage(ctx, *old); err != nil {
			s.logger.Warn(ctx, "previous profile image not removed", "user_id", id, "url", *old, "error", err)
		}
	}
	return url, nil
}

func userLookupError(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrUserNotFound
	}
	return internalError(op, err)
}
