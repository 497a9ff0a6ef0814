package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified identity attached to a request.
type Claims struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     entity.Role
}

type tokenClaims struct {
	TenantID string `json:"tid"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) Issue(user *entity.User) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		TenantID: user.TenantID.String(),
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (m *TokenManager) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(tc.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	tenantID, err := uuid.Parse(tc.TenantID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	role := entity.Role(tc.Role)
	if !role.Valid() {
		return nil, ErrInvalidToken
	}

	return &Claims{UserID: userID, TenantID: tenantID, Role: role}, nil
}
