package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quizhub-service/internal/domain"
)

// Claims is the JWT payload of both token kinds. Refresh tokens carry no role.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access and refresh tokens with
// separate secrets.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenManager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("jwt secrets must be set")
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (m *TokenManager) IssueAccessToken(userID string, role domain.Role) (string, time.Time, error) {
	return m.sign(m.accessSecret, userID, string(role), m.accessTTL)
}

func (m *TokenManager) IssueRefreshToken(userID string) (string, time.Time, error) {
	return m.sign(m.refreshSecret, userID, "", m.refreshTTL)
}

// VerifyAccessToken maps an expired token to domain.ErrTokenExpired and any
// other failure to domain.ErrNotAuthorized.
func (m *TokenManager) VerifyAccessToken(token string) (domain.TokenClaims, error) {
	return m.verify(m.accessSecret, token)
}

func (m *TokenManager) VerifyRefreshToken(token string) (domain.TokenClaims, error) {
	return m.verify(m.refreshSecret, token)
}

func (m *TokenManager) sign(secret []byte, userID, role string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) verify(secret []byte, tokenStr string) (domain.TokenClaims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.TokenClaims{}, domain.ErrTokenExpired
		}
		return domain.TokenClaims{}, domain.ErrNotAuthorized
	}
	if !token.Valid || claims.UserID == "" {
		return domain.TokenClaims{}, domain.ErrNotAuthorized
	}

	return domain.TokenClaims{
		UserID:    claims.UserID,
		Role:      domain.Role(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
