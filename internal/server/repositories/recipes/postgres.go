package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/recipehub/recipehub/internal/common"
	"github.com/recipehub/recipehub/internal/dbx"
	"github.com/recipehub/recipehub/internal/server/models"
)

const foreignKeyViolation = "23503"

var (
	ErrUnknownCategory = common.NewError(common.ErrorValidation, "category not found")
	ErrUnknownUser     = common.NewError(common.ErrorNotFound, "user not found")
)

// selectRecipe expects the viewer id as $1.
const selectRecipe = `SELECT r.id, r.title, r.description, r.thumbnail_url, r.cooking_time, r.servings,
		r.difficulty, r.category_id, r.author_id, r.created_at, r.updated_at,
		u.name, u.profile_image, c.name, c.slug,
		(SELECT COUNT(*) FROM likes l WHERE l.recipe_id = r.id) AS likes_count,
		EXISTS (SELECT 1 FROM likes l WHERE l.recipe_id = r.id AND l.user_id = $1) AS is_liked
	FROM recipes r
	JOIN users u ON u.id = r.author_id
	LEFT JOIN categories c ON c.id = r.category_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	query :=
		`INSERT INTO recipes (title, description, thumbnail_url, cooking_time, servings, difficulty, category_id, author_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		recipe.Title, recipe.Description, recipe.ThumbnailURL, recipe.CookingTime, recipe.Servings,
		string(recipe.Difficulty), recipe.CategoryID, recipe.AuthorID,
	).Scan(&recipe.ID, &recipe.CreatedAt, &recipe.UpdatedAt)
	if err != nil {
		return nil, writeError(err)
	}

	return recipe, nil
}

func (r *PostgresRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	query :=
		`UPDATE recipes
		 SET title = $2, description = $3, thumbnail_url = $4, cooking_time = $5,
		     servings = $6, difficulty = $7, category_id = $8, updated_at = NOW()
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		recipe.ID, recipe.Title, recipe.Description, recipe.ThumbnailURL, recipe.CookingTime,
		recipe.Servings, string(recipe.Difficulty), recipe.CategoryID,
	)
	if err != nil {
		return writeError(err)
	}

	return expectAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id, viewerID string) (*models.Recipe, error) {
	query := selectRecipe + ` WHERE r.id = $2`

	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, nullable(viewerID), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return recipe, nil
}

func (r *PostgresRepository) AuthorOf(ctx context.Context, id string) (string, error) {
	var authorID string
	err := r.db.QueryRowContext(ctx, `SELECT author_id FROM recipes WHERE id = $1`, id).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return authorID, nil
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*models.Recipe, error) {
	where, args := buildWhere(f, 2)
	args = append([]any{nullable(f.ViewerID)}, args...)
	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf("%s%s ORDER BY r.created_at DESC, r.id LIMIT $%d OFFSET $%d",
		selectRecipe, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Recipe, 0, f.Limit)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := buildWhere(f, 1)

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) Ingredients(ctx context.Context, recipeID string) ([]models.Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, unit FROM ingredients WHERE recipe_id = $1 ORDER BY position`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Ingredient{}
	for rows.Next() {
		var i models.Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.Amount, &i.Unit); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) Steps(ctx context.Context, recipeID string) ([]models.Step, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, step_order, description, image_url FROM steps WHERE recipe_id = $1 ORDER BY step_order`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Step{}
	for rows.Next() {
		var s models.Step
		var imageURL sql.NullString
		if err := rows.Scan(&s.ID, &s.Order, &s.Description, &imageURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if imageURL.Valid {
			s.ImageURL = &imageURL.String
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

// ReplaceIngredients deletes the recipe's ingredients and inserts the given
// ones in order. Run it inside a transaction.
func (r *PostgresRepository) ReplaceIngredients(ctx context.Context, recipeID string, ingredients []models.Ingredient) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	for pos, i := range ingredients {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO ingredients (recipe_id, name, amount, unit, position) VALUES ($1, $2, $3, $4, $5)`,
			recipeID, i.Name, i.Amount, i.Unit, pos)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

// ReplaceSteps deletes the recipe's steps and inserts the given ones.
// Run it inside a transaction.
func (r *PostgresRepository) ReplaceSteps(ctx context.Context, recipeID string, steps []models.Step) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM steps WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	for _, s := range steps {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO steps (recipe_id, step_order, description, image_url) VALUES ($1, $2, $3, $4)`,
			recipeID, s.Order, s.Description, s.ImageURL)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

// Like records a like and reports whether one already existed.
func (r *PostgresRepository) Like(ctx context.Context, recipeID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT (user_id, recipe_id) DO NOTHING`,
		userID, recipeID)
	if err != nil {
		return false, writeError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n == 0, nil
}

func (r *PostgresRepository) Unlike(ctx context.Context, recipeID, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (*models.Recipe, error) {
	var (
		r                                   models.Recipe
		thumbnail, categoryID, profileImage sql.NullString
		categoryName, categorySlug          sql.NullString
		difficulty                          string
	)

	err := s.Scan(&r.ID, &r.Title, &r.Description, &thumbnail, &r.CookingTime, &r.Servings,
		&difficulty, &categoryID, &r.AuthorID, &r.CreatedAt, &r.UpdatedAt,
		&r.Author.Name, &profileImage, &categoryName, &categorySlug,
		&r.LikesCount, &r.IsLiked)
	if err != nil {
		return nil, err
	}

	r.Difficulty = models.Difficulty(difficulty)
	r.Author.ID = r.AuthorID
	if thumbnail.Valid {
		r.ThumbnailURL = &thumbnail.String
	}
	if profileImage.Valid {
		r.Author.ProfileImage = &profileImage.String
	}
	if categoryID.Valid {
		r.CategoryID = &categoryID.String
		r.Category = &models.Category{ID: categoryID.String, Name: categoryName.String, Slug: categorySlug.String}
	}

	return &r, nil
}

// buildWhere renders the filter as a WHERE clause whose placeholders start
// at $first.
func buildWhere(f ListFilter, first int) (string, []any) {
	var conds []string
	var args []any

	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("r.category_id = $%d", first+len(args)-1))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := first + len(args) - 1
		conds = append(conds, fmt.Sprintf("(r.title ILIKE $%d OR r.description ILIKE $%d)", n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// writeError maps a foreign key violation to the row that went missing: an
// unknown category is a bad request, a vanished author, liker or recipe is
// not found.
func writeError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != foreignKeyViolation {
		return fmt.Errorf("db error: %w", err)
	}
	switch pgErr.ConstraintName {
	case "recipes_category_id_fkey":
		return ErrUnknownCategory
	case "recipes_author_id_fkey", "likes_user_id_fkey":
		return ErrUnknownUser
	default:
		return common.ErrorNotFound
	}
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
