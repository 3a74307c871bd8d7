package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/it-helpdesk/internal/api/dto"
	"github.com/spec-kit/it-helpdesk/internal/service"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /v1/me/profile.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.Get(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// Update handles PUT /v1/me/profile.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	profile, err := h.profiles.Update(c.UserContext(), user.ID, service.ProfileInput{
		EmployeeName: req.EmployeeName,
		Department:   req.Department,
		PhoneNumber:  req.PhoneNumber,
		LaptopModel:  req.LaptopModel,
		LaptopSerial: req.LaptopSerial,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}
