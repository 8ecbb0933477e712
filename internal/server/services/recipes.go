package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/recipehub/recipehub/internal/common"
	"github.com/recipehub/recipehub/internal/dbx"
	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server/models"
	"github.com/recipehub/recipehub/internal/server/repositories/recipes"
	"github.com/recipehub/recipehub/internal/server/repositories/repomanager"
)

const (
	defaultPage  = 1
	defaultLimit = 12
	maxLimit     = 100
)

type IngredientInput struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// StepInput.Order is optional on create; the position in the list is used
// when it is zero.
type StepInput struct {
	Order       int     `json:"order"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

// RecipeInput is used for both create and update. On update nil fields are
// left untouched, and Ingredients/Steps are replaced only when present.
type RecipeInput struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	ThumbnailURL *string            `json:"thumbnailUrl"`
	CookingTime  *int               `json:"cookingTime"`
	Servings     *int               `json:"servings"`
	Difficulty   *models.Difficulty `json:"difficulty"`
	CategoryID   *string            `json:"categoryId"`
	Ingredients  []IngredientInput  `json:"ingredients"`
	Steps        []StepInput        `json:"steps"`
}

type ListParams struct {
	Page       int
	Limit      int
	CategoryID string
	Search     string
	ViewerID   string
}

type ListMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type RecipeList struct {
	Data []*models.Recipe `json:"data"`
	Meta ListMeta         `json:"meta"`
}

type RecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *RecipeService {
	return &RecipeService{db: db, repomanager: m, logger: l}
}

// Create stores a recipe with its ingredients and steps in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID string, in RecipeInput) (*models.Recipe, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{AuthorID: authorID}
	in.applyTo(recipe)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)
		created, err := repo.Create(ctx, recipe)
		if err != nil {
			return err
		}
		if err := repo.ReplaceIngredients(ctx, created.ID, in.ingredients()); err != nil {
			return err
		}
		return repo.ReplaceSteps(ctx, created.ID, in.steps(false))
	})
	if err != nil {
		return nil, recipeLookupError("create recipe", err)
	}

	s.logger.Info(ctx, "recipe created", "recipe_id", recipe.ID, "author_id", authorID)
	return s.Get(ctx, recipe.ID, authorID)
}

// List returns a page of recipes, newest first.
func (s *RecipeService) List(ctx context.Context, p ListParams) (*RecipeList, error) {
	if p.Page < 1 {
		p.Page = defaultPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.CategoryID != "" && uuid.Validate(p.CategoryID) != nil {
		return nil, validationError("categoryId must be a uuid")
	}

	f := recipes.ListFilter{
		CategoryID: p.CategoryID,
		Search:     strings.TrimSpace(p.Search),
		ViewerID:   p.ViewerID,
		Limit:      p.Limit,
		Offset:     (p.Page - 1) * p.Limit,
	}
	repo := s.repomanager.Recipes(s.db)

	items, err := repo.List(ctx, f)
	if err != nil {
		return nil, internalError("list recipes", err)
	}
	total, err := repo.Count(ctx, f)
	if err != nil {
		return nil, internalError("count recipes", err)
	}

	return &RecipeList{
		Data: items,
		Meta: ListMeta{
			Total:      total,
			Page:       p.Page,
			Limit:      p.Limit,
			TotalPages: (total + p.Limit - 1) / p.Limit,
		},
	}, nil
}

// Get returns a recipe with ingredients and steps. viewerID may be empty.
func (s *RecipeService) Get(ctx context.Context, id, viewerID string) (*models.Recipe, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrRecipeNotFound
	}
	repo := s.repomanager.Recipes(s.db)

	recipe, err := repo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, recipeLookupError("get recipe", err)
	}
	if recipe.Ingredients, err = repo.Ingredients(ctx, id); err != nil {
		return nil, internalError("get recipe", err)
	}
	if recipe.Steps, err = repo.Steps(ctx, id); err != nil {
		return nil, internalError("get recipe", err)
	}
	return recipe, nil
}

// Update applies a partial change. Only the author may update a recipe.
func (s *RecipeService) Update(ctx context.Context, id, userID string, in RecipeInput) (*models.Recipe, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}
	if uuid.Validate(id) != nil {
		return nil, ErrRecipeNotFound
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)
		current, err := repo.GetByID(ctx, id, userID)
		if err != nil {
			return err
		}
		if current.AuthorID != userID {
			return ErrForbidden
		}

		in.applyTo(current)
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		if in.Ingredients != nil {
			if err := repo.ReplaceIngredients(ctx, id, in.ingredients()); err != nil {
				return err
			}
		}
		if in.Steps != nil {
			return repo.ReplaceSteps(ctx, id, in.steps(true))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return nil, err
		}
		return nil, recipeLookupError("update recipe", err)
	}

	return s.Get(ctx, id, userID)
}

// Delete removes a recipe. Only the author may delete it.
func (s *RecipeService) Delete(ctx context.Context, id, userID string) error {
	if uuid.Validate(id) != nil {
		return ErrRecipeNotFound
	}
	repo := s.repomanager.Recipes(s.db)

	authorID, err := repo.AuthorOf(ctx, id)
	if err != nil {
		return recipeLookupError("delete recipe", err)
	}
	if authorID != userID {
		return ErrForbidden
	}
	if err := repo.Delete(ctx, id); err != nil {
		return recipeLookupError("delete recipe", err)
	}

	s.logger.Info(ctx, "recipe deleted", "recipe_id", id, "user_id", userID)
	return nil
}

// Like marks the recipe as liked by userID and reports whether it already was.
func (s *RecipeService) Like(ctx context.Context, id, userID string) (bool, error) {
	if uuid.Validate(id) != nil {
		return false, ErrRecipeNotFound
	}
	repo := s.repomanager.Recipes(s.db)

	if _, err := repo.AuthorOf(ctx, id); err != nil {
		return false, recipeLookupError("like recipe", err)
	}
	already, err := repo.Like(ctx, id, userID)
	if err != nil {
		return false, recipeLookupError("like recipe", err)
	}
	return already, nil
}

// Unlike is idempotent.
func (s *RecipeService) Unlike(ctx context.Context, id, userID string) error {
	if uuid.Validate(id) != nil {
		return ErrRecipeNotFound
	}
	if err := s.repomanager.Recipes(s.db).Unlike(ctx, id, userID); err != nil {
		return internalError("unlike recipe", err)
	}
	return nil
}

func (s *RecipeService) Categories(ctx context.Context) ([]models.Category, error) {
	list, err := s.repomanager.Categories(s.db).List(ctx)
	if err != nil {
		return nil, internalError("list categories", err)
	}
	return list, nil
}

// recipeLookupError maps repository errors to the ones handlers report. A
// row deleted between the read and the write is not found.
func recipeLookupError(op string, err error) error {
	switch {
	case errors.Is(err, recipes.ErrUnknownCategory):
		return ErrCategoryNotFound
	case errors.Is(err, recipes.ErrUnknownUser):
		return ErrUserNotFound
	case errors.Is(err, common.ErrorNotFound):
		return ErrRecipeNotFound
	}
	return internalError(op, err)
}

func (in *RecipeInput) validate(create bool) error {
	if create {
		switch {
		case in.Title == nil:
			return validationError("title is required")
		case in.CookingTime == nil:
			return validationError("cookingTime is required")
		case in.Servings == nil:
			return validationError("servings is required")
		case in.Difficulty == nil:
			return validationError("difficulty is required")
		case in.Ingredients == nil:
			return validationError("ingredients is required")
		case in.Steps == nil:
			return validationError("steps is required")
		}
	}

	if in.Title != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(*in.Title)); n < 2 || n > 100 {
			return validationError("title must be between 2 and 100 characters")
		}
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > 1000 {
		return validationError("description must be at most 1000 characters")
	}
	if in.CookingTime != nil && (*in.CookingTime < 1 || *in.CookingTime > 1440) {
		return validationError("cookingTime must be between 1 and 1440 minutes")
	}
	if in.Servings != nil && (*in.Servings < 1 || *in.Servings > 100) {
		return validationError("servings must be between 1 and 100")
	}
	if in.Difficulty != nil && !in.Difficulty.Valid() {
		return validationError("difficulty must be one of easy, medium, hard")
	}
	if in.CategoryID != nil && *in.CategoryID != "" && uuid.Validate(*in.CategoryID) != nil {
		return validationError("categoryId must be a uuid")
	}
	for i, ing := range in.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return validationError("ingredients[%d].name is required", i)
		}
	}
	for i, st := range in.Steps {
		if strings.TrimSpace(st.Description) == "" {
			return validationError("steps[%d].description is required", i)
		}
		if st.Order < 0 {
			return validationError("steps[%d].order must be positive", i)
		}
	}
	return nil
}

func (in *RecipeInput) applyTo(r *models.Recipe) {
	if in.Title != nil {
		r.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.ThumbnailURL != nil {
		r.ThumbnailURL = emptyToNil(*in.ThumbnailURL)
	}
	if in.CookingTime != nil {
		r.CookingTime = *in.CookingTime
	}
	if in.Servings != nil {
		r.Servings = *in.Servings
	}
	if in.Difficulty != nil {
		r.Difficulty = *in.Difficulty
	}
	if in.CategoryID != nil {
		r.CategoryID = emptyToNil(*in.CategoryID)
	}
}

func (in *RecipeInput) ingredients() []models.Ingredient {
	out := make([]models.Ingredient, len(in.Ingredients))
	for i, ing := range in.Ingredients {
		out[i] = models.Ingredient{Name: strings.TrimSpace(ing.Name), Amount: ing.Amount, Unit: ing.Unit}
	}
	return out
}

// steps numbers the steps from 1 when renumber is set or no order was given.
func (in *RecipeInput) steps(renumber bool) []models.Step {
	out := make([]models.Step, len(in.Steps))
	for i, st := range in.Steps {
		order := st.Order
		if renumber || order == 0 {
			order = i + 1
		}
		out[i] = models.Step{Order: order, Description: st.Description, ImageURL: st.ImageURL}
	}
	return out
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
