package recipes

import (
	"context"

	"github.com/recipehub/recipehub/internal/server/models"
)

// ListFilter selects a page of recipes, newest first. ViewerID, when set,
// is used to compute IsLiked.
type ListFilter struct {
	CategoryID string
	Search     string
	ViewerID   string
	Limit      int
	Offset     int
}

// Repository persists recipes with their ingredients, steps and likes.
// GetByID and AuthorOf return common.ErrorNotFound for unknown recipes.
type Repository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id, viewerID string) (*models.Recipe, error)
	AuthorOf(ctx context.Context, id string) (string, error)
	List(ctx context.Context, f ListFilter) ([]*models.Recipe, error)
	Count(ctx context.Context, f ListFilter) (int, error)
	Ingredients(ctx context.Context, recipeID string) ([]models.Ingredient, error)
	Steps(ctx context.Context, recipeID string) ([]models.Step, error)
	ReplaceIngredients(ctx context.Context, recipeID string, ingredients []models.Ingredient) error
	ReplaceSteps(ctx context.Context, recipeID string, steps []models.Step) error
	Like(ctx context.Context, recipeID, userID string) (bool, error)
	Unlike(ctx context.Context, recipeID, userID string) error
}
