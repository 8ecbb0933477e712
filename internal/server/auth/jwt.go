package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/recipehub/recipehub/internal/common"
)

// Claims carries the subject (user id) in RegisteredClaims.Subject and the
// user's email. RegisteredClaims.ID is a random token id, so two tokens
// minted in the same second for the same subject still differ.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenConfig holds signing material and lifetimes. Access and refresh
// tokens are signed with different secrets, so one kind is never accepted
// as the other.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer mints and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

func (i *TokenIssuer) IssueAccessToken(subjectID, email string) (string, error) {
	return i.generate(subjectID, email, i.cfg.AccessSecret, i.cfg.AccessTTL)
}

func (i *TokenIssuer) IssueRefreshToken(subjectID, email string) (string, error) {
	return i.generate(subjectID, email, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
}

func (i *TokenIssuer) VerifyAccessToken(token string) (*Claims, error) {
	return i.parse(token, i.cfg.AccessSecret)
}

func (i *TokenIssuer) VerifyRefreshToken(token string) (*Claims, error) {
	return i.parse(token, i.cfg.RefreshSecret)
}

func (i *TokenIssuer) generate(subjectID, email string, secret []byte, ttl time.Duration) (string, error) {
	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	})

	return token.SignedString(secret)
}

// parse accepts only HMAC-SHA256 tokens signed with secret that carry an
// expiry and a subject. Expired tokens yield common.ErrTokenExpired, every
// other failure common.ErrInvalidToken.
func (i *TokenIssuer) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
