package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User    *domain.User
	Session domain.Session
}

// AuthMiddleware validates bearer tokens against the session registry and loads the user.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions repository.SessionRegistry
	users    repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions repository.SessionRegistry, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ctx := c.UserContext()
	raw, err := m.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return apperrors.NewUnauthorized("session expired or revoked")
		}
		return apperrors.MapError(err)
	}
	session, err := repository.DecodeSession(*raw)
	if err != nil || session.UserID != claims.UserID {
		return apperrors.NewUnauthorized("invalid session")
	}

	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.Active {
		return apperrors.NewUnauthorized("account is disabled")
	}

	c.Locals(principalKey, &Principal{User: user, Session: session})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
