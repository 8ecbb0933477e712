package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/recipehub/recipehub/internal/common"
	"github.com/recipehub/recipehub/internal/dbx"
	"github.com/recipehub/recipehub/internal/server/models"
	"github.com/recipehub/recipehub/internal/server/repositories/categories"
	"github.com/recipehub/recipehub/internal/server/repositories/recipes"
	"github.com/recipehub/recipehub/internal/server/repositories/users"
	"github.com/recipehub/recipehub/internal/server/storage"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- users ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	nextID  int
	creates int
	deletes int

	getErr    error
	createErr error
	updateErr error
	deleteErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.byID[cp.ID] = &cp
	return &cp
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.nextID++
	cp := *u
	cp.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", f.nextID)
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdateProfile(_ context.Context, id string, name, profileImage *string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if profileImage != nil {
		img := *profileImage
		u.ProfileImage = &img
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

// --- recipes ---

type fakeRecipesRepo struct {
	recipes     map[string]*models.Recipe
	ingredients map[string][]models.Ingredient
	steps       map[string][]models.Step
	likes       map[string]map[string]bool

	lastFilter recipes.ListFilter
	listOut    []*models.Recipe
	countOut   int

	createErr  error
	updateErr  error
	likeErr    error
	replaceErr error
	deleted    []string
}

func newFakeRecipesRepo() *fakeRecipesRepo {
	return &fakeRecipesRepo{
		recipes:     map[string]*models.Recipe{},
		ingredients: map[string][]models.Ingredient{},
		steps:       map[string][]models.Step{},
		likes:       map[string]map[string]bool{},
	}
}

func (f *fakeRecipesRepo) Create(_ context.Context, r *models.Recipe) (*models.Recipe, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	r.ID = fmt.Sprintf("10000000-0000-0000-0000-%012d", len(f.recipes)+1)
	cp := *r
	f.recipes[r.ID] = &cp
	return r, nil
}

func (f *fakeRecipesRepo) Update(_ context.Context, r *models.Recipe) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.recipes[r.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *r
	f.recipes[r.ID] = &cp
	return nil
}

func (f *fakeRecipesRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.recipes[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.recipes, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRecipesRepo) GetByID(_ context.Context, id, viewerID string) (*models.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	cp.LikesCount = len(f.likes[id])
	cp.IsLiked = viewerID != "" && f.likes[id][viewerID]
	return &cp, nil
}

func (f *fakeRecipesRepo) AuthorOf(_ context.Context, id string) (string, error) {
	r, ok := f.recipes[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	return r.AuthorID, nil
}

func (f *fakeRecipesRepo) List(_ context.Context, lf recipes.ListFilter) ([]*models.Recipe, error) {
	f.lastFilter = lf
	return f.listOut, nil
}

func (f *fakeRecipesRepo) Count(context.Context, recipes.ListFilter) (int, error) {
	return f.countOut, nil
}

func (f *fakeRecipesRepo) Ingredients(_ context.Context, id string) ([]models.Ingredient, error) {
	return append([]models.Ingredient{}, f.ingredients[id]...), nil
}

func (f *fakeRecipesRepo) Steps(_ context.Context, id string) ([]models.Step, error) {
	return append([]models.Step{}, f.steps[id]...), nil
}

func (f *fakeRecipesRepo) ReplaceIngredients(_ context.Context, id string, in []models.Ingredient) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.ingredients[id] = in
	return nil
}

func (f *fakeRecipesRepo) ReplaceSteps(_ context.Context, id string, in []models.Step) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.steps[id] = in
	return nil
}

func (f *fakeRecipesRepo) Like(_ context.Context, id, userID string) (bool, error) {
	if f.likeErr != nil {
		return false, f.likeErr
	}
	if f.likes[id] == nil {
		f.likes[id] = map[string]bool{}
	}
	already := f.likes[id][userID]
	f.likes[id][userID] = true
	return already, nil
}

func (f *fakeRecipesRepo) Unlike(_ context.Context, id, userID string) error {
	delete(f.likes[id], userID)
	return nil
}

// --- categories ---

type fakeCategoriesRepo struct {
	out []models.Category
	err error
}

func (f *fakeCategoriesRepo) List(context.Context) ([]models.Category, error) {
	return f.out, f.err
}

// --- repo manager ---

type fakeRepoManager struct {
	users      *fakeUsersRepo
	recipes    *fakeRecipesRepo
	categories *fakeCategoriesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:      newFakeUsersRepo(),
		recipes:    newFakeRecipesRepo(),
		categories: &fakeCategoriesRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) (int64, error) { return 0, nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository           { return m.users }
func (m *fakeRepoManager) Recipes(dbx.DBTX) recipes.Repository       { return m.recipes }
func (m *fakeRepoManager) Categories(dbx.DBTX) categories.Repository { return m.categories }

// --- sessions ---

type failingStore struct {
	err     error
	deletes int
}

func (s *failingStore) Put(context.Context, string, string, time.Duration) error { return s.err }
func (s *failingStore) Get(context.Context, string) (string, error)              { return "", s.err }
func (s *failingStore) Delete(context.Context, string) error {
	s.deletes++
	return s.err
}
func (s *failingStore) Ping(context.Context) error { return s.err }

// --- storage ---

type fakeStorage struct {
	uploaded  []string
	deleted   []string
	uploadErr error
	deleteErr error
}

func (s *fakeStorage) Upload(_ context.Context, f storage.File, folder string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	if _, err := io.ReadAll(f.Body); err != nil {
		return "", err
	}
	url := fmt.Sprintf("http://files.test/uploads/%s/%d-%s", folder, len(s.uploaded)+1, f.Name)
	s.uploaded = append(s.uploaded, url)
	return url, nil
}

func (s *fakeStorage) Delete(_ context.Context, url string) error {
	s.deleted = append(s.deleted, url)
	return s.deleteErr
}
