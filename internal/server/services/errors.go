package services

import (
	"fmt"

	"github.com/recipehub/recipehub/internal/common"
)

var (
	ErrDuplicateEmail      = common.NewError(common.ErrorAlreadyExists, "email already in use")
	ErrInvalidCredentials  = common.NewError(common.ErrorUnauthorized, "email or password incorrect")
	ErrInvalidRefreshToken = common.NewError(common.ErrorUnauthorized, "invalid refresh token")
	ErrUserNotFound        = common.NewError(common.ErrorNotFound, "user not found")
	ErrRecipeNotFound      = common.NewError(common.ErrorNotFound, "recipe not found")
	ErrCategoryNotFound    = common.NewError(common.ErrorValidation, "category not found")
	ErrForbidden           = common.NewError(common.ErrorForbidden, "only the author can modify this recipe")
	ErrNoFile              = common.NewError(common.ErrorValidation, "no file uploaded")
	ErrUnsupportedImage    = common.NewError(common.ErrorValidation, "unsupported image type (jpeg, png, gif and webp only)")
	ErrFileTooLarge        = common.NewError(common.ErrorValidation, "file is too large")
)

func validationError(format string, args ...any) error {
	return common.NewError(common.ErrorValidation, fmt.Sprintf(format, args...))
}

// internalError keeps the cause for logs while letting callers match
// common.ErrorInternal.
func internalError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrorInternal, err)
}
