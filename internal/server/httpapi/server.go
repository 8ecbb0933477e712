// Package httpapi exposes the RecipeHub services over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server/auth"
	"github.com/recipehub/recipehub/internal/server/health"
	"github.com/recipehub/recipehub/internal/server/models"
	"github.com/recipehub/recipehub/internal/server/services"
	"github.com/recipehub/recipehub/internal/server/storage"
)

type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string)
	Me(ctx context.Context, userID string) (*services.UserSummary, error)
}

type UserService interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ChangeProfileImage(ctx context.Context, id string, f *storage.File) (string, error)
}

type RecipeService interface {
	List(ctx context.Context, p services.ListParams) (*services.RecipeList, error)
	Get(ctx context.Context, id, viewerID string) (*models.Recipe, error)
	Create(ctx context.Context, authorID string, in services.RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, id, userID string, in services.RecipeInput) (*models.Recipe, error)
	Delete(ctx context.Context, id, userID string) error
	Like(ctx context.Context, id, userID string) (bool, error)
	Unlike(ctx context.Context, id, userID string) error
	Categories(ctx context.Context) ([]models.Category, error)
}

type UploadService interface {
	UploadImage(ctx context.Context, f *storage.File, folder string) (string, error)
}

type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Deps are the collaborators of the HTTP server. UploadDir, when set, is
// served under /uploads/.
type Deps struct {
	Auth        AuthService
	Users       UserService
	Recipes     RecipeService
	Uploads     UploadService
	Tokens      TokenVerifier
	Health      HealthChecker
	UploadDir   string
	MaxFileSize int64
}

type Server struct {
	address     string
	uploadDir   string
	maxFileSize int64
	auth        AuthService
	users       UserService
	recipes     RecipeService
	uploads     UploadService
	tokens      TokenVerifier
	health      HealthChecker
	logger      logging.Logger
	metrics     *metrics
	handler     http.Handler
}

func NewServer(a string, l logging.Logger, d Deps) *Server {
	s := &Server{
		address:     a,
		uploadDir:   d.UploadDir,
		maxFileSize: d.MaxFileSize,
		auth:        d.Auth,
		users:       d.Users,
		recipes:     d.Recipes,
		uploads:     d.Uploads,
		tokens:      d.Tokens,
		health:      d.Health,
		logger:      l.With("module", "http_server"),
		metrics:     newMetrics(),
	}

	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = chain(mux,
		withRequestID,
		s.withRecover,
		s.withAccessLog,
		s.metrics.instrument,
	)
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/recipes", s.optionalAuth(s.handleListRecipes))
	mux.HandleFunc("GET /api/recipes/{id}", s.optionalAuth(s.handleGetRecipe))
	mux.HandleFunc("POST /api/recipes", s.requireAuth(s.handleCreateRecipe))
	mux.HandleFunc("PATCH /api/recipes/{id}", s.requireAuth(s.handleUpdateRecipe))
	mux.HandleFunc("DELETE /api/recipes/{id}", s.requireAuth(s.handleDeleteRecipe))
	mux.HandleFunc("POST /api/recipes/{id}/like", s.requireAuth(s.handleLike))
	mux.HandleFunc("DELETE /api/recipes/{id}/like", s.requireAuth(s.handleUnlike))

	mux.HandleFunc("POST /api/upload/image", s.requireAuth(s.handleUploadImage))
	mux.HandleFunc("POST /api/upload/profile", s.requireAuth(s.handleUploadProfile))

	if s.uploadDir != "" {
		mux.Handle("GET /uploads/", withNoSniff(http.StripPrefix("/uploads/", http.FileServer(noDirFS{http.Dir(s.uploadDir)}))))
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/live", s.handleLive)
	mux.HandleFunc("GET /health/ready", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.handler())
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// noDirFS hides directory listings under /uploads.
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
