package auth

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingUID    = errors.New("uid is missing from payload")
	ErrTokenExpired  = errors.New("token has expired")
)

// Claims is the payload of chat bearer tokens: {"uid": 2, "expiration": 1700000000}.
type Claims struct {
	UID        *int64 `json:"uid"`
	Expiration *int64 `json:"expiration,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret []byte
	// RequireExpiration rejects tokens without an expiration claim.
	RequireExpiration bool
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (c *JWTConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// ValidateToken verifies an HS256 bearer token and returns the uid it carries.
func ValidateToken(cfg *JWTConfig, tokenString string) (int64, error) {
	if cfg == nil || len(cfg.Secret) == 0 {
		return 0, ErrMissingSecret
	}
	tokenString = strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer ")

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(cfg.now),
	)
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return cfg.Secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	if claims.UID == nil {
		return 0, ErrMissingUID
	}
	uid := *claims.UID
	if uid < 0 || uid > math.MaxInt32 {
		return 0, fmt.Errorf("%w: uid %d out of range", ErrInvalidToken, uid)
	}

	switch {
	case claims.Expiration != nil:
		if *claims.Expiration <= cfg.now().Unix() {
			return 0, ErrTokenExpired
		}
	case cfg.RequireExpiration:
		return 0, fmt.Errorf("%w: expiration is missing", ErrInvalidToken)
	}

	return uid, nil
}
