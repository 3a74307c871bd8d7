package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager. Tokens live as long as the session they carry.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// TTL returns the token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Claims describes JWT payload.
type Claims struct {
	UserID    int64           `json:"uid"`
	Role      domain.UserRole `json:"role"`
	SessionID string          `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT bound to a registry session.
func (tm *TokenManager) GenerateToken(user *domain.User, sessionID string, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID <= 0 || claims.SessionID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
