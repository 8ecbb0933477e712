package users

import (
	"context"

	"github.com/recipehub/recipehub/internal/server/models"
)

// Repository is the account directory. GetByEmail and GetByID return
// common.ErrorNotFound for unknown users; Create returns
// common.ErrorAlreadyExists when the email is taken. Delete removes an
// account and returns common.ErrorNotFound when nothing was removed.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, name, profileImage *string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
