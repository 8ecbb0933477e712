package recipes

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/recipehub/recipehub/internal/common"
	"github.com/recipehub/recipehub/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recipeCols = []string{
	"id", "title", "description", "thumbnail_url", "cooking_time", "servings",
	"difficulty", "category_id", "author_id", "created_at", "updated_at",
	"name", "profile_image", "name", "slug", "likes_count", "is_liked",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func strPtr(s string) *string { return &s }

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+recipes\s*\(title,\s*description,\s*thumbnail_url,\s*cooking_time,\s*servings,\s*difficulty,\s*category_id,\s*author_id\)\s*VALUES\s*\(\$1,.*\$8\)\s*RETURNING\s+id,\s*created_at,\s*updated_at$`
	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("Kimchi stew", "spicy", nil, 30, 2, "easy", "cat-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("r-1", now, now))

	got, err := repo.Create(context.Background(), &models.Recipe{
		Title: "Kimchi stew", Description: "spicy", CookingTime: 30, Servings: 2,
		Difficulty: models.DifficultyEasy, CategoryID: strPtr("cat-1"), AuthorID: "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "r-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+recipes`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Recipe{Title: "x"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreate_ForeignKeyViolation(t *testing.T) {
	cases := map[string]struct {
		constraint string
		want       error
	}{
		"unknown category": {"recipes_category_id_fkey", ErrUnknownCategory},
		"deleted author":   {"recipes_author_id_fkey", ErrUnknownUser},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(`INSERT\s+INTO\s+recipes`).
				WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: tc.constraint})

			_, err := repo.Create(context.Background(), &models.Recipe{Title: "x", CategoryID: strPtr("c-404"), AuthorID: "u-1"})
			require.ErrorIs(t, err, tc.want)
			assert.NotContains(t, err.Error(), "db error")
		})
	}
}

func TestUpdate_UnknownCategoryIsValidation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE\s+recipes`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "recipes_category_id_fkey"})

	err := repo.Update(context.Background(), &models.Recipe{ID: "r-1", Title: "x", CategoryID: strPtr("c-404")})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, "category not found", err.Error())
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+recipes\s+SET\s+title\s*=\s*\$2,.*updated_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).
		WithArgs("r-1", "New", "", nil, 10, 1, "hard", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).
		WithArgs("r-2", "New", "", nil, 10, 1, "hard", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := &models.Recipe{ID: "r-1", Title: "New", CookingTime: 10, Servings: 1, Difficulty: models.DifficultyHard}
	require.NoError(t, repo.Update(context.Background(), r))

	r.ID = "r-2"
	require.ErrorIs(t, repo.Update(context.Background(), r), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^DELETE\s+FROM\s+recipes\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("r-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("r-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs("r-1").WillReturnError(errors.New("db down"))

	require.NoError(t, repo.Delete(context.Background(), "r-1"))
	require.ErrorIs(t, repo.Delete(context.Background(), "r-1"), common.ErrorNotFound)
	require.ErrorContains(t, repo.Delete(context.Background(), "r-1"), "db error")
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+r\.id,.*FROM\s+recipes\s+r.*LEFT\s+JOIN\s+categories.*WHERE\s+r\.id\s*=\s*\$2$`).
		WithArgs("u-2", "r-1").
		WillReturnRows(sqlmock.NewRows(recipeCols).AddRow(
			"r-1", "Bibimbap", "", "http://img/t.png", 20, 1,
			"medium", "cat-1", "u-1", now, now,
			"Alice", nil, "Korean", "korean", 3, true,
		))

	got, err := repo.GetByID(context.Background(), "r-1", "u-2")
	require.NoError(t, err)
	assert.Equal(t, "Bibimbap", got.Title)
	assert.Equal(t, models.DifficultyMedium, got.Difficulty)
	assert.Equal(t, models.Author{ID: "u-1", Name: "Alice"}, got.Author)
	require.NotNil(t, got.Category)
	assert.Equal(t, "korean", got.Category.Slug)
	require.NotNil(t, got.ThumbnailURL)
	assert.Equal(t, 3, got.LikesCount)
	assert.True(t, got.IsLiked)
}

func TestGetByID_AnonymousViewerAndNoCategory(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+r\.id,.*WHERE\s+r\.id\s*=\s*\$2$`).
		WithArgs(nil, "r-1").
		WillReturnRows(sqlmock.NewRows(recipeCols).AddRow(
			"r-1", "Toast", "", nil, 5, 1,
			"easy", nil, "u-1", now, now,
			"Alice", "http://img/a.png", nil, nil, 0, false,
		))

	got, err := repo.GetByID(context.Background(), "r-1", "")
	require.NoError(t, err)
	assert.Nil(t, got.Category)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.ThumbnailURL)
	require.NotNil(t, got.Author.ProfileImage)
	assert.False(t, got.IsLiked)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+r\.id,`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "r-404", "")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthorOf(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^SELECT\s+author_id\s+FROM\s+recipes\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("r-1").WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow("u-1"))
	mock.ExpectQuery(q).WithArgs("r-2").WillReturnError(sql.ErrNoRows)

	got, err := repo.AuthorOf(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got)

	_, err = repo.AuthorOf(context.Background(), "r-2")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_WithFilters(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)^SELECT\s+r\.id,.*WHERE\s+r\.category_id\s*=\s*\$2\s+AND\s+\(r\.title\s+ILIKE\s+\$3\s+OR\s+r\.description\s+ILIKE\s+\$3\)\s+ORDER\s+BY\s+r\.created_at\s+DESC,\s*r\.id\s+LIMIT\s+\$4\s+OFFSET\s+\$5$`
	mock.ExpectQuery(q).
		WithArgs("u-1", "cat-1", `%50\%%`, 12, 12).
		WillReturnRows(sqlmock.NewRows(recipeCols).
			AddRow("r-2", "B", "", nil, 5, 1, "easy", "cat-1", "u-1", now, now, "Alice", nil, "Korean", "korean", 0, false).
			AddRow("r-1", "A", "", nil, 5, 1, "easy", "cat-1", "u-1", now, now, "Alice", nil, "Korean", "korean", 1, true))

	got, err := repo.List(context.Background(), ListFilter{CategoryID: "cat-1", Search: "50%", ViewerID: "u-1", Limit: 12, Offset: 12})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r-2", got[0].ID)
	assert.True(t, got[1].IsLiked)
}

func TestList_NoFilters(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+r\.id,.*LEFT\s+JOIN\s+categories\s+c\s+ON\s+c\.id\s*=\s*r\.category_id\s+ORDER\s+BY\s+r\.created_at\s+DESC,\s*r\.id\s+LIMIT\s+\$2\s+OFFSET\s+\$3$`
	mock.ExpectQuery(q).WithArgs(nil, 12, 0).WillReturnRows(sqlmock.NewRows(recipeCols))

	got, err := repo.List(context.Background(), ListFilter{Limit: 12})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+recipes\s+r\s+WHERE\s+\(r\.title\s+ILIKE\s+\$1\s+OR\s+r\.description\s+ILIKE\s+\$1\)$`).
		WithArgs("%soup%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	n, err := repo.Count(context.Background(), ListFilter{Search: "soup"})
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

func TestIngredientsAndSteps(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+id,\s*name,\s*amount,\s*unit\s+FROM\s+ingredients\s+WHERE\s+recipe_id\s*=\s*\$1\s+ORDER\s+BY\s+position$`).
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "amount", "unit"}).
			AddRow("i-1", "Rice", "1", "cup").
			AddRow("i-2", "Egg", "2", ""))
	mock.ExpectQuery(`^SELECT\s+id,\s*step_order,\s*description,\s*image_url\s+FROM\s+steps\s+WHERE\s+recipe_id\s*=\s*\$1\s+ORDER\s+BY\s+step_order$`).
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "step_order", "description", "image_url"}).
			AddRow("s-1", 1, "Cook rice", nil).
			AddRow("s-2", 2, "Fry egg", "http://img/s2.png"))

	ings, err := repo.Ingredients(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, []models.Ingredient{
		{ID: "i-1", Name: "Rice", Amount: "1", Unit: "cup"},
		{ID: "i-2", Name: "Egg", Amount: "2"},
	}, ings)

	steps, err := repo.Steps(context.Background(), "r-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Nil(t, steps[0].ImageURL)
	require.NotNil(t, steps[1].ImageURL)
	assert.Equal(t, 2, steps[1].Order)
}

func TestReplaceIngredients(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+ingredients\s+WHERE\s+recipe_id\s*=\s*\$1$`).WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	ins := `^INSERT\s+INTO\s+ingredients\s*\(recipe_id,\s*name,\s*amount,\s*unit,\s*position\)`
	mock.ExpectExec(ins).WithArgs("r-1", "Rice", "1", "cup", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(ins).WithArgs("r-1", "Egg", "2", "", 1).WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ReplaceIngredients(context.Background(), "r-1", []models.Ingredient{
		{Name: "Rice", Amount: "1", Unit: "cup"},
		{Name: "Egg", Amount: "2"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSteps_InsertError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+steps`).WithArgs("r-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^INSERT\s+INTO\s+steps\s*\(recipe_id,\s*step_order,\s*description,\s*image_url\)`).
		WithArgs("r-1", 1, "Boil", nil).
		WillReturnError(errors.New("db down"))

	err := repo.ReplaceSteps(context.Background(), "r-1", []models.Step{{Order: 1, Description: "Boil"}})
	require.ErrorContains(t, err, "db error: db down")
}

func TestLikeUnlike(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	like := `^INSERT\s+INTO\s+likes\s*\(user_id,\s*recipe_id\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(user_id,\s*recipe_id\)\s*DO\s+NOTHING$`
	mock.ExpectExec(like).WithArgs("u-1", "r-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(like).WithArgs("u-1", "r-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^DELETE\s+FROM\s+likes\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+recipe_id\s*=\s*\$2$`).
		WithArgs("u-1", "r-1").WillReturnResult(sqlmock.NewResult(0, 1))

	already, err := repo.Like(context.Background(), "r-1", "u-1")
	require.NoError(t, err)
	assert.False(t, already)

	already, err = repo.Like(context.Background(), "r-1", "u-1")
	require.NoError(t, err)
	assert.True(t, already)

	require.NoError(t, repo.Unlike(context.Background(), "r-1", "u-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLike_ForeignKeyViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^INSERT\s+INTO\s+likes`).WithArgs("u-gone", "r-1").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "likes_user_id_fkey"})
	mock.ExpectExec(`^INSERT\s+INTO\s+likes`).WithArgs("u-1", "r-gone").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "likes_recipe_id_fkey"})
	mock.ExpectExec(`^INSERT\s+INTO\s+likes`).WithArgs("u-1", "r-1").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Like(context.Background(), "r-1", "u-gone")
	require.ErrorIs(t, err, ErrUnknownUser)

	_, err = repo.Like(context.Background(), "r-gone", "u-1")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, ErrUnknownUser)

	_, err = repo.Like(context.Background(), "r-1", "u-1")
	require.ErrorContains(t, err, "db error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_done\\`, escapeLike(`100%_done\`))
}
