package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// RequireStaff ensures the caller is IT staff or an admin.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.IsStaff() {
			return apperrors.NewForbidden("staff role required")
		}
		return c.Next()
	}
}
