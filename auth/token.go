// Package auth issues and verifies identity assertions and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/config"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the identity assertion carried by bearer tokens.
type Claims struct {
	Phone   string          `json:"phone"`
	Name    string          `json:"name"`
	Role    models.UserRole `json:"role"`
	Email   string          `json:"email,omitempty"`
	RiderID string          `json:"riderId,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewIssuer(cfg config.JWTConfig) *Issuer {
	return &Issuer{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// Issue creates a signed token for user.
func (i *Issuer) Issue(user *models.User) (string, error) {
	now := i.now()
	claims := Claims{
		Phone: user.Phone,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Phone,
			Issuer:    i.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if user.Email != nil {
		claims.Email = *user.Email
	}
	if user.RiderID != nil {
		claims.RiderID = *user.RiderID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify parses and validates a token string.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
