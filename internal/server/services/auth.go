// Package services contains server-side business logic. This file implements
// AuthService, which registers users, checks credentials and issues, rotates
// and revokes token pairs backed by the session store.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/recipehub/recipehub/internal/common"
	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server/auth"
	"github.com/recipehub/recipehub/internal/server/config"
	"github.com/recipehub/recipehub/internal/server/models"
	"github.com/recipehub/recipehub/internal/server/repositories/users"
	"github.com/recipehub/recipehub/internal/server/sessions"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type TokenIssuer interface {
	IssueAccessToken(subjectID, email string) (string, error)
	IssueRefreshToken(subjectID, email string) (string, error)
	VerifyRefreshToken(token string) (*auth.Claims, error)
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserSummary is the public view of an account. It never carries the
// password hash.
type UserSummary struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

type AuthResult struct {
	User UserSummary `json:"user"`
	TokenPair
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// AuthService coordinates the account directory, the password hasher, the
// token issuer and the session store.
//
// Every successful Register, Login and Refresh overwrites the subject's
// session record, so only the most recently issued refresh token is
// accepted. Concurrent calls for one subject are not serialized: the last
// write to the store wins.
type AuthService struct {
	users      users.Repository
	hasher     PasswordHasher
	tokens     TokenIssuer
	sessions   sessions.Store
	sessionTTL time.Duration
	logger     logging.Logger
}

func NewAuthService(u users.Repository, h PasswordHasher, t TokenIssuer, s sessions.Store, cfg *config.Config, l logging.Logger) *AuthService {
	return &AuthService{
		users:      u,
		hasher:     h,
		tokens:     t,
		sessions:   s,
		sessionTTL: cfg.SessionTTL,
		logger:     l,
	}
}

// Register creates an account and signs it in. An email already on file
// yields ErrDuplicateEmail before any hashing takes place.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internalError("register", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internalError("register", err)
	}

	u, err := s.users.Create(ctx, &models.User{Email: in.Email, Name: in.Name, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, internalError("register", err)
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		// No session means no registration; drop the row so the email stays free.
		if derr := s.users.Delete(context.WithoutCancel(ctx), u.ID); derr != nil {
			s.logger.Error(ctx, "register rollback failed", "user_id", u.ID, "error", derr)
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return &AuthResult{
		User:      UserSummary{ID: u.ID, Email: u.Email, Name: u.Name},
		TokenPair: *pair,
	}, nil
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, internalError("login", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", u.ID)
	return &AuthResult{User: summaryOf(u), TokenPair: *pair}, nil
}

// Refresh rotates a refresh token. Every failure, including store and
// signing errors, is reported as ErrInvalidRefreshToken; the cause is only
// logged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	if err != nil {
		s.logger.Warn(ctx, "refresh rejected", "error", err)
		return nil, ErrInvalidRefreshToken
	}
	return pair, nil
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	stored, err := s.sessions.Get(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return nil, errors.New("refresh token superseded")
	}

	return s.issue(ctx, &models.User{ID: claims.Subject, Email: claims.Email})
}

// Logout drops the subject's session. It is idempotent and never fails;
// store errors are logged.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		s.logger.Error(ctx, "session delete failed", "user_id", userID, "error", err)
	}
}

// Me returns the summary of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*UserSummary, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalError("me", err)
	}
	sum := summaryOf(u)
	return &sum, nil
}

// issue mints both tokens before touching the store, so a signing failure
// leaves the previous session intact.
func (s *AuthService) issue(ctx context.Context, u *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, internalError("issue access token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(u.ID, u.Email)
	if err != nil {
		return nil, internalError("issue refresh token", err)
	}
	if err := s.sessions.Put(ctx, u.ID, refresh, s.sessionTTL); err != nil {
		return nil, internalError("store session", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func summaryOf(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name, ProfileImage: u.ProfileImage}
}
