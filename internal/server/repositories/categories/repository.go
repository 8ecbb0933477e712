package categories

import (
	"context"

	"github.com/recipehub/recipehub/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Category, error)
}
