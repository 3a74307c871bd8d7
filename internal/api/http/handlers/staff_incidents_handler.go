package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/it-helpdesk/internal/api/dto"
	"github.com/spec-kit/it-helpdesk/internal/service"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// StaffIncidentsHandler exposes triage endpoints for IT staff.
type StaffIncidentsHandler struct {
	incidents *service.IncidentService
	acks      *service.AcknowledgmentService
	dashboard *service.DashboardService
}

// NewStaffIncidentsHandler constructs handler.
func NewStaffIncidentsHandler(incidents *service.IncidentService, acks *service.AcknowledgmentService, dashboard *service.DashboardService) *StaffIncidentsHandler {
	return &StaffIncidentsHandler{incidents: incidents, acks: acks, dashboard: dashboard}
}

// Dashboard handles GET /v1/staff/dashboard.
func (h *StaffIncidentsHandler) Dashboard(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	result, err := h.dashboard.Query(c.UserContext(), user, parseDashboardQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"incidents": incidentResponses(result.Incidents),
		"counts":    result.Counts,
		"filters":   result.Applied,
	}})
}

// Get handles GET /v1/staff/incidents/:id.
func (h *StaffIncidentsHandler) Get(c *fiber.Ctx) error {
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

// Update handles PATCH /v1/staff/incidents/:id.
func (h *StaffIncidentsHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := incidentIDParam(c)
	if err != nil {
		return err
	}
	var req dto.StaffUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.incidents.UpdateByStaff(c.UserContext(), user, id, service.StaffUpdateInput{
		Status:        req.Status,
		AdminResponse: req.AdminResponse,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incidentResponse(incident)})
}

// Acknowledge handles POST /v1/staff/incidents/:id/acknowledge.
func (h *StaffIncidentsHandler) Acknowledge(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := incidentIDParam(c)
	if err != nil {
		return err
	}
	result, err := h.acks.Acknowledge(c.UserContext(), service.UserActor(user), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"incident":             incidentResponse(result.Incident),
		"already_acknowledged": result.AlreadyAcknowledged,
	}})
}

// StatusMessage handles POST /v1/staff/incidents/:id/status-message.
func (h *StaffIncidentsHandler) StatusMessage(c *fiber.Ctx) error {
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
	result, err := h.acks.LeaveStatusMessage(c.UserContext(), service.UserActor(user), id, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"incident": incidentResponse(result.Incident),
		"line":     result.Line,
	}})
}

// History handles GET /v1/staff/incidents/:id/history.
func (h *StaffIncidentsHandler) History(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := incidentIDParam(c)
	if err != nil {
		return err
	}
	entries, err := h.incidents.History(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	items := make([]dto.HistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, historyResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseDashboardQuery(c *fiber.Ctx) service.DashboardQuery {
	return service.DashboardQuery{
		Status:      c.Query("status"),
		Period:      c.Query("period"),
		DateFrom:    c.Query("date_from"),
		DateTo:      c.Query("date_to"),
		Department:  c.Query("department"),
		LaptopModel: c.Query("laptop_model"),
		Serial:      c.Query("serial"),
		Username:    c.Query("username"),
		FullHistory: parseBoolQuery(c, "full_history", false),
		Limit:       parseIntQuery(c, "limit", 50),
		Offset:      parseIntQuery(c, "offset", 0),
	}
}
