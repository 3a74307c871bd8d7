package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/api/dto"
	"github.com/spec-kit/it-helpdesk/internal/classifier"
	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/service"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// AutomationHandler serves the webhook endpoints called by the scanner and chat automation.
// Every response carries {success, status, message}.
type AutomationHandler struct {
	incidents  *service.IncidentService
	acks       *service.AcknowledgmentService
	quarantine *service.QuarantineService
	classifier classifier.Classifier
	logger     *zap.Logger
}

// AutomationDependencies bundles collaborators for the automation handler.
type AutomationDependencies struct {
	Incidents  *service.IncidentService
	Acks       *service.AcknowledgmentService
	Quarantine *service.QuarantineService
	Classifier classifier.Classifier
	Logger     *zap.Logger
}

// NewAutomationHandler constructs handler.
func NewAutomationHandler(deps AutomationDependencies) *AutomationHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutomationHandler{
		incidents:  deps.Incidents,
		acks:       deps.Acks,
		quarantine: deps.Quarantine,
		classifier: deps.Classifier,
		logger:     logger,
	}
}

// CreateIncident handles POST /api/incidents.
func (h *AutomationHandler) CreateIncident(c *fiber.Ctx) error {
	var req dto.ExternalIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperrors.NewValidationError("invalid JSON payload", nil))
	}
	if err := dto.Validate(req); err != nil {
		return h.fail(c, err)
	}

	ctx := c.UserContext()
	var reporterID int64
	if raw := looseValue(req.UserID); raw != nil {
		id, err := service.ParseUserID(raw)
		if err != nil {
			return h.fail(c, err)
		}
		reporterID = id
	} else {
		id, err := h.incidents.ReporterIDByUsername(ctx, req.Username)
		if err != nil {
			return h.fail(c, err)
		}
		reporterID = id
	}

	input := service.CreateIncidentInput{
		ReporterID:  reporterID,
		Title:       req.Title,
		Description: req.Description,
		SelfFixed:   req.SelfFixed,
		Channel:     domain.ChannelExternal,
	}
	if req.FileHash != "" || req.FileURL != "" {
		input.Attachment = &service.AttachmentInput{FileName: req.FileName, FileURL: req.FileURL, FileHash: req.FileHash}
	}
	incident, err := h.incidents.CreateIncident(ctx, input)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusCreated, fmt.Sprintf("Incident #%d created", incident.ID), fiber.Map{
		"ticket_id":     incident.ID,
		"ticket_status": incident.Status,
		"category":      incident.Category,
	})
}

// AcknowledgeTicket handles POST /api/acknowledge-ticket.
func (h *AutomationHandler) AcknowledgeTicket(c *fiber.Ctx) error {
	var req dto.AcknowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperrors.NewValidationError("invalid JSON payload", nil))
	}
	if err := dto.Validate(req); err != nil {
		return h.fail(c, err)
	}

	ctx := c.UserContext()
	actor, err := h.acks.ResolveAutomationActor(ctx, req.AcknowledgedBy)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := h.acks.Acknowledge(ctx, actor, req.TicketID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, ackMessage(result), ackFields(result))
}

// LeaveStatusMessage handles POST /api/leave-status-message.
func (h *AutomationHandler) LeaveStatusMessage(c *fiber.Ctx) error {
	var req dto.StatusMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperrors.NewValidationError("invalid JSON payload", nil))
	}
	if err := dto.Validate(req); err != nil {
		return h.fail(c, err)
	}

	ctx := c.UserContext()
	actor, err := h.acks.ResolveAutomationActor(ctx, req.Author)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := h.acks.LeaveStatusMessage(ctx, actor, req.TicketID, req.Message)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "Status message recorded", fiber.Map{
		"ticket_id":     result.Incident.ID,
		"ticket_status": result.Incident.Status,
		"line":          result.Line,
		"acknowledged":  result.Acknowledged,
	})
}

// UpdateAcknowledgment handles POST /api/update-acknowledgment. A scan result is logged as a status message.
func (h *AutomationHandler) UpdateAcknowledgment(c *fiber.Ctx) error {
	var req dto.UpdateAcknowledgmentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperrors.NewValidationError("invalid JSON payload", nil))
	}
	if err := dto.Validate(req); err != nil {
		return h.fail(c, err)
	}

	ctx := c.UserContext()
	actor, err := h.acks.ResolveAutomationActor(ctx, req.Author)
	if err != nil {
		return h.fail(c, err)
	}
	if scan := strings.TrimSpace(req.ScanResult); scan != "" {
		result, err := h.acks.LeaveStatusMessage(ctx, actor, req.TicketID, "Scan result: "+scan)
		if err != nil {
			return h.fail(c, err)
		}
		return h.ok(c, http.StatusOK, "Acknowledgment updated", fiber.Map{
			"ticket_id":     result.Incident.ID,
			"ticket_status": result.Incident.Status,
			"line":          result.Line,
		})
	}

	result, err := h.acks.Acknowledge(ctx, actor, req.TicketID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, ackMessage(result), ackFields(result))
}

// QuarantineUser handles POST /api/quarantine-user.
func (h *AutomationHandler) QuarantineUser(c *fiber.Ctx) error {
	var req dto.QuarantineRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperrors.NewValidationError("invalid JSON payload", nil))
	}
	userID, err := service.ParseUserID(looseValue(req.UserID))
	if err != nil {
		return h.fail(c, err)
	}

	result, err := h.quarantine.Quarantine(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, fmt.Sprintf("User %s quarantined", result.Username), fiber.Map{
		"user_id":                 result.UserID,
		"username":                result.Username,
		"account_was_active":      result.AccountWasActive,
		"account_now_active":      result.AccountNowActive,
		"sessions_deleted":        result.SessionsDeleted,
		"decode_warnings":         result.DecodeWarnings,
		"expired_sessions_purged": result.ExpiredSessionsPurged,
	})
}

// Classify handles POST /api/classify.
func (h *AutomationHandler) Classify(c *fiber.Ctx) error {
	var req dto.ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperrors.NewValidationError("invalid JSON payload", nil))
	}
	if h.classifier == nil {
		return h.fail(c, apperrors.NewInternalError(fmt.Errorf("classifier not configured")))
	}
	result, err := h.classifier.Classify(c.UserContext(), req.Title, req.Description)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "classified", fiber.Map{
		"category":   result.Category,
		"confidence": result.Confidence,
	})
}

func (h *AutomationHandler) ok(c *fiber.Ctx, status int, message string, fields fiber.Map) error {
	body := fiber.Map{"success": true, "status": "success", "message": message}
	for k, v := range fields {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func (h *AutomationHandler) fail(c *fiber.Ctx, err error) error {
	domainErr := apperrors.ToDomainError(err)
	if domainErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("automation request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	body := fiber.Map{"success": false, "status": "error", "message": domainErr.Message}
	if field, ok := domainErr.Details["field"]; ok {
		body["field"] = field
	}
	return c.Status(domainErr.HTTPStatus).JSON(body)
}

func ackMessage(result *service.AckResult) string {
	if result.AlreadyAcknowledged {
		return fmt.Sprintf("Ticket #%d was already acknowledged", result.Incident.ID)
	}
	return fmt.Sprintf("Ticket #%d acknowledged", result.Incident.ID)
}

func ackFields(result *service.AckResult) fiber.Map {
	return fiber.Map{
		"ticket_id":            result.Incident.ID,
		"ticket_status":        result.Incident.Status,
		"already_acknowledged": result.AlreadyAcknowledged,
		"it_acknowledged":      result.Incident.ITAcknowledged,
	}
}

// looseValue decodes a JSON scalar keeping numbers as json.Number. Absent and null yield nil.
func looseValue(raw json.RawMessage) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return string(raw)
	}
	return value
}
