package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/it-helpdesk/internal/api/dto"
	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/service"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// IncidentsHandler manages reporter-facing incident endpoints.
type IncidentsHandler struct {
	incidents *service.IncidentService
	comments  *service.CommentService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(incidents *service.IncidentService, comments *service.CommentService) *IncidentsHandler {
	return &IncidentsHandler{incidents: incidents, comments: comments}
}

// Create handles POST /v1/incidents.
func (h *IncidentsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	input := service.CreateIncidentInput{
		ReporterID:  user.ID,
		Title:       req.Title,
		Description: req.Description,
		SelfFixed:   req.SelfFixed,
		Channel:     domain.ChannelWeb,
	}
	if req.Attachment != nil {
		input.Attachment = &service.AttachmentInput{
			FileName: req.Attachment.FileName,
			FileURL:  req.Attachment.FileURL,
			FileHash: req.Attachment.FileHash,
		}
	}
	incident, err := h.incidents.CreateIncident(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": incidentResponse(incident)})
}

// List handles GET /v1/incidents, newest first with unread counts.
func (h *IncidentsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)
	summaries, err := h.incidents.ListForReporter(c.UserContext(), user, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.IncidentListItem, 0, len(summaries))
	for i := range summaries {
		items = append(items, dto.IncidentListItem{
			IncidentResponse: incidentResponse(&summaries[i].Incident),
			UnreadComments:   summaries[i].UnreadComments,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// OpenCount handles GET /v1/incidents/open-count.
func (h *IncidentsHandler) OpenCount(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	count, err := h.incidents.OpenCount(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"open": count}})
}

// Get handles GET /v1/incidents/:id and marks the thread read.
func (h *IncidentsHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := incidentIDParam(c)
	if err != nil {
		return err
	}
	detail, err := h.incidents.GetDetail(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detailResponse(detail.Incident, detail.Reporter, detail.Comments, detail.Attachments)})
}

// AddComment handles POST /v1/incidents/:id/comments.
func (h *IncidentsHandler) AddComment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := incidentIDParam(c)
	if err != nil {
		return err
	}
	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	comment, err := h.comments.AddComment(c.UserContext(), user, id, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}
