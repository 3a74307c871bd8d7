package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/it-helpdesk/internal/api/dto"
	"github.com/spec-kit/it-helpdesk/internal/auth"
	"github.com/spec-kit/it-helpdesk/internal/domain"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}

func incidentIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid incident id",
			map[string]any{"field": "id", "value": c.Params("id")})
	}
	return id, nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func parseBoolQuery(c *fiber.Ctx, key string, defaultVal bool) bool {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func userResponse(user *domain.User) dto.UserResponse {
	if user == nil {
		return dto.UserResponse{}
	}
	return dto.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
		Active:   user.Active,
	}
}

func profileResponse(profile *domain.Profile) dto.ProfileResponse {
	resp := dto.ProfileResponse{
		UserID:       profile.UserID,
		EmployeeName: profile.EmployeeName,
		PhoneNumber:  profile.PhoneNumber,
		LaptopModel:  profile.LaptopModel,
		LaptopSerial: profile.LaptopSerial,
	}
	if profile.Department != nil {
		code := string(*profile.Department)
		label := profile.Department.Label()
		resp.Department = &code
		resp.DepartmentLabel = &label
	}
	return resp
}

func incidentResponse(incident *domain.Incident) dto.IncidentResponse {
	return dto.IncidentResponse{
		ID:                 incident.ID,
		ReporterID:         incident.UserID,
		Title:              incident.Title,
		Description:        incident.Description,
		Status:             string(incident.Status),
		Category:           incident.Category,
		CategoryConfidence: incident.CategoryConfidence,
		CreatedAt:          incident.CreatedAt,
		UpdatedAt:          incident.UpdatedAt,
		ResolvedAt:         incident.ResolvedAt,
		ResolvedBy:         incident.ResolvedBy,
		AdminResponse:      incident.AdminResponse,
		LaptopModel:        incident.LaptopModel,
		LaptopSerial:       incident.LaptopSerial,
		Department:         incident.Department,
		ITAcknowledged:     incident.ITAcknowledged,
		ITAcknowledgedAt:   incident.ITAcknowledgedAt,
		ITAcknowledgedBy:   incident.ITAcknowledgedBy,
		ITStatusMessage:    incident.ITStatusMessage,
	}
}

func incidentResponses(incidents []domain.Incident) []dto.IncidentResponse {
	items := make([]dto.IncidentResponse, 0, len(incidents))
	for i := range incidents {
		items = append(items, incidentResponse(&incidents[i]))
	}
	return items
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		IncidentID: comment.IncidentID,
		AuthorID:   comment.AuthorID,
		AuthorName: comment.AuthorName,
		Message:    comment.Message,
		CreatedAt:  comment.CreatedAt,
	}
}

func detailResponse(incident *domain.Incident, reporter *domain.User, comments []domain.Comment, attachments []domain.Attachment) dto.IncidentDetailResponse {
	resp := dto.IncidentDetailResponse{
		Incident:    incidentResponse(incident),
		Reporter:    userResponse(reporter),
		Comments:    make([]dto.CommentResponse, 0, len(comments)),
		Attachments: make([]dto.AttachmentResponse, 0, len(attachments)),
	}
	for i := range comments {
		resp.Comments = append(resp.Comments, commentResponse(&comments[i]))
	}
	for _, att := range attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			FileURL:   att.FileURL,
			FileHash:  att.FileHash,
			CreatedAt: att.CreatedAt,
		})
	}
	return resp
}

func historyResponse(entry *domain.IncidentHistory) dto.HistoryResponse {
	return dto.HistoryResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorLabel: entry.ActorLabel,
		ChangeType: string(entry.ChangeType),
		OldValue:   entry.OldValue,
		NewValue:   entry.NewValue,
		CreatedAt:  entry.CreatedAt,
	}
}
