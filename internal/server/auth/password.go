package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/recipehub/recipehub/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for stored passwords.
const DefaultCost = 10

// Hasher produces and checks bcrypt password hashes. The hash string embeds
// salt and cost, so hashing the same password twice gives different output.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a
// mismatch.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

const specialChars = `!@#$%^&*(),.?":{}|<>`

// PasswordPolicy describes what a new password must contain.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
}

var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:      8,
	MaxLength:      50,
	RequireUpper:   true,
	RequireLower:   true,
	RequireNumber:  true,
	RequireSpecial: true,
}

// ValidatePassword checks p against DefaultPasswordPolicy.
func ValidatePassword(p string) error {
	return DefaultPasswordPolicy.Validate(p)
}

// Validate returns a common.ErrorValidation error naming the first rule p
// breaks.
func (pp PasswordPolicy) Validate(p string) error {
	n := utf8.RuneCountInString(p)
	if n < pp.MinLength || n > pp.MaxLength {
		return common.NewError(common.ErrorValidation,
			fmt.Sprintf("password must be between %d and %d characters", pp.MinLength, pp.MaxLength))
	}

	var upper, lower, number, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			number = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}

	switch {
	case pp.RequireUpper && !upper:
		return common.NewError(common.ErrorValidation, "password must contain an uppercase letter")
	case pp.RequireLower && !lower:
		return common.NewError(common.ErrorValidation, "password must contain a lowercase letter")
	case pp.RequireNumber && !number:
		return common.NewError(common.ErrorValidation, "password must contain a number")
	case pp.RequireSpecial && !special:
		return common.NewError(common.ErrorValidation, "password must contain a special character")
	}

	return nil
}
