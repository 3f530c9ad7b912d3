package handlers

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chepyr/go-task-board/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrTokenRevoked = errors.New("token revoked")

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens and keeps the ids of
// signed-out tokens until they would have expired anyway.
type TokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	mutex   sync.Mutex
	revoked map[string]time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}
}

func (ti *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ti.ttl)
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing token: %w", err)
	}
	return signed, expiresAt, nil
}

func (ti *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	if ti.isRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (ti *TokenIssuer) Revoke(claims *Claims) {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	ti.mutex.Lock()
	defer ti.mutex.Unlock()

	now := time.Now()
	for id, exp := range ti.revoked {
		if now.After(exp) {
			delete(ti.revoked, id)
		}
	}
	ti.revoked[claims.ID] = claims.ExpiresAt.Time
}

func (ti *TokenIssuer) isRevoked(id string) bool {
	if id == "" {
		return false
	}
	ti.mutex.Lock()
	defer ti.mutex.Unlock()
	_, ok := ti.revoked[id]
	return ok
}
