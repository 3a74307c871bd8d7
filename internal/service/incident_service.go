package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/classifier"
	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/events"
	"github.com/spec-kit/it-helpdesk/internal/observability"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

const (
	defaultWebDescription      = "No description provided."
	defaultExternalDescription = "Reported via automation."
)

// IncidentService coordinates incident intake, staff updates and reporter views.
type IncidentService struct {
	incidents   repository.IncidentRepository
	users       repository.UserRepository
	profiles    repository.ProfileRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	history     repository.IncidentHistoryRepository
	classifier  classifier.Classifier
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         Clock
}

// IncidentDependencies bundles collaborators for the incident service.
type IncidentDependencies struct {
	IncidentRepo   repository.IncidentRepository
	UserRepo       repository.UserRepository
	ProfileRepo    repository.ProfileRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	HistoryRepo    repository.IncidentHistoryRepository
	Classifier     classifier.Classifier
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Clock          Clock
}

// NewIncidentService constructs the service.
func NewIncidentService(deps IncidentDependencies) *IncidentService {
	return &IncidentService{
		incidents:   deps.IncidentRepo,
		users:       deps.UserRepo,
		profiles:    deps.ProfileRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		history:     deps.HistoryRepo,
		classifier:  deps.Classifier,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      loggerOrNop(deps.Logger),
		now:         clockOrNow(deps.Clock),
	}
}

// AttachmentInput is metadata of a file stored elsewhere.
type AttachmentInput struct {
	FileName string
	FileURL  string
	FileHash string
}

// CreateIncidentInput describes a new report.
type CreateIncidentInput struct {
	ReporterID  int64
	Title       string
	Description string
	SelfFixed   bool
	Channel     domain.IncidentChannel
	Attachment  *AttachmentInput
}

// StaffUpdateInput is a staff change to status and/or admin response. An empty Status keeps the current one.
type StaffUpdateInput struct {
	Status        string
	AdminResponse *string
}

// IncidentDetail is an incident with its thread and attachments.
type IncidentDetail struct {
	Incident    *domain.Incident
	Reporter    *domain.User
	Comments    []domain.Comment
	Attachments []domain.Attachment
}

// IncidentSummary is a list row with the viewer's unread comment count.
type IncidentSummary struct {
	domain.Incident
	UnreadComments int
}

// CreateIncident validates and stores a report, then notifies subscribers.
func (s *IncidentService) CreateIncident(ctx context.Context, input CreateIncidentInput) (*domain.Incident, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewFieldError("title", "title is required")
	}
	if domain.CountWords(title) > domain.MaxTitleWords {
		return nil, apperrors.NewFieldError("title", fmt.Sprintf("title must be at most %d words", domain.MaxTitleWords))
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return nil, apperrors.NewFieldError("title", fmt.Sprintf("title must be at most %d characters", domain.MaxTitleLength))
	}

	reporter, err := s.users.GetByID(ctx, input.ReporterID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": input.ReporterID})
		}
		return nil, err
	}

	channel := input.Channel
	if channel == "" {
		channel = domain.ChannelWeb
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = defaultWebDescription
		if channel == domain.ChannelExternal {
			description = defaultExternalDescription
		}
	}

	profile, err := s.profiles.GetByUserID(ctx, reporter.ID)
	if err != nil {
		if !apperrors.IsNoRows(err) {
			return nil, err
		}
		profile = nil
	}
	snapshot := profile.Snapshot()

	now := s.now()
	incident := &domain.Incident{
		UserID:       reporter.ID,
		Title:        title,
		Description:  description,
		Status:       domain.StatusOpen,
		CreatedAt:    now,
		Department:   snapshot.Department,
		LaptopModel:  snapshot.LaptopModel,
		LaptopSerial: snapshot.LaptopSerial,
	}
	if input.SelfFixed {
		incident.Status = domain.StatusResolved
		resolvedAt := now
		incident.ResolvedAt = &resolvedAt
	}
	s.classify(ctx, incident)

	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, err
	}
	s.metrics.RecordIncidentCreated(string(channel))

	payload := events.IncidentCreatedPayload{
		Title:        incident.Title,
		Channel:      channel,
		Department:   incident.Department,
		LaptopSerial: incident.LaptopSerial,
		ReporterID:   reporter.ID,
		ReporterName: reporter.Username,
	}
	if input.Attachment != nil {
		attachment := &domain.Attachment{
			IncidentID: incident.ID,
			FileName:   input.Attachment.FileName,
			FileURL:    input.Attachment.FileURL,
			FileHash:   input.Attachment.FileHash,
		}
		if err := s.attachments.Create(ctx, attachment); err != nil {
			s.logger.Warn("failed to store attachment metadata",
				zap.Int64("incident_id", incident.ID), zap.Error(err))
		} else {
			payload.AttachmentHash = &attachment.FileHash
			payload.AttachmentURL = &attachment.FileURL
		}
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:       events.EventIncidentCreated,
		IncidentID: incident.ID,
		Actor:      UserActor(reporter).event(),
		Timestamp:  now,
		Payload:    payload,
	})
	return incident, nil
}

func (s *IncidentService) classify(ctx context.Context, incident *domain.Incident) {
	if s.classifier == nil {
		return
	}
	result, err := s.classifier.Classify(ctx, incident.Title, incident.Description)
	if err != nil {
		s.logger.Warn("classification failed", zap.Error(err))
		return
	}
	category := result.Category
	confidence := result.Confidence
	incident.Category = &category
	incident.CategoryConfidence = &confidence
}

// UpdateByStaff applies a staff status/admin-response update inside a row-level transaction.
func (s *IncidentService) UpdateByStaff(ctx context.Context, actor *domain.User, incidentID int64, input StaffUpdateInput) (*domain.Incident, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}

	var target domain.IncidentStatus
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid status %q", raw),
				map[string]any{"field": "status", "value": raw})
		}
		target = status
	}

	var oldStatus domain.IncidentStatus
	var changed bool
	now := s.now()
	updated, err := s.incidents.Mutate(ctx, incidentID, func(incident *domain.Incident) error {
		oldStatus = incident.Status
		next := target
		if next == "" {
			next = incident.Status
		}
		var err error
		changed, err = incident.ApplyStatus(domain.StatusUpdate{
			Status:        next,
			AdminResponse: input.AdminResponse,
			ActorID:       actor.ID,
		}, now)
		return err
	})
	switch {
	case errors.Is(err, domain.ErrIncidentClosed):
		return nil, apperrors.NewFieldError("status", "incident is closed")
	case errors.Is(err, domain.ErrInvalidTransition):
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot change status from %s to %s", oldStatus, target),
			map[string]any{"field": "status", "value": string(target)})
	case apperrors.IsNoRows(err):
		return nil, apperrors.NewNotFound("incident", map[string]any{"id": incidentID})
	case err != nil:
		return nil, err
	}

	if changed {
		s.recordHistory(ctx, &domain.IncidentHistory{
			IncidentID: incidentID,
			ActorID:    &actor.ID,
			ActorLabel: actor.Username,
			ChangeType: domain.ChangeTypeStatus,
			OldValue:   map[string]any{"status": oldStatus},
			NewValue:   map[string]any{"status": updated.Status},
		})
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:       events.EventIncidentStatusChanged,
			IncidentID: incidentID,
			Actor:      UserActor(actor).event(),
			Timestamp:  now,
			Payload:    events.IncidentStatusChangedPayload{OldStatus: oldStatus, NewStatus: updated.Status},
		})
	}
	return updated, nil
}

// GetDetail returns an incident for its reporter or staff and marks the thread read for the viewer.
func (s *IncidentService) GetDetail(ctx context.Context, viewer *domain.User, incidentID int64) (*IncidentDetail, error) {
	incident, err := s.loadVisible(ctx, viewer, incidentID)
	if err != nil {
		return nil, err
	}

	reporter, err := s.users.GetByID(ctx, incident.UserID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByIncident(ctx, incident.ID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByIncident(ctx, incident.ID)
	if err != nil {
		return nil, err
	}
	if err := s.comments.MarkRead(ctx, viewer.ID, incident.ID, s.now()); err != nil {
		return nil, err
	}

	return &IncidentDetail{
		Incident:    incident,
		Reporter:    reporter,
		Comments:    comments,
		Attachments: attachments,
	}, nil
}

// ListForReporter returns the reporter's incidents, newest first, with unread counts.
func (s *IncidentService) ListForReporter(ctx context.Context, reporter *domain.User, limit, offset int) ([]IncidentSummary, error) {
	incidents, err := s.incidents.List(ctx, repository.IncidentFilter{
		UserID: &reporter.ID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(incidents))
	for i, incident := range incidents {
		ids[i] = incident.ID
	}
	unread, err := s.comments.CountUnread(ctx, reporter.ID, ids)
	if err != nil {
		return nil, err
	}

	result := make([]IncidentSummary, len(incidents))
	for i, incident := range incidents {
		result[i] = IncidentSummary{Incident: incident, UnreadComments: unread[incident.ID]}
	}
	return result, nil
}

// OpenCount returns how many of the reporter's incidents are still Open.
func (s *IncidentService) OpenCount(ctx context.Context, reporterID int64) (int, error) {
	counts, err := s.incidents.CountByStatus(ctx, repository.IncidentFilter{
		UserID:   &reporterID,
		Statuses: []domain.IncidentStatus{domain.StatusOpen},
	})
	if err != nil {
		return 0, err
	}
	return counts[domain.StatusOpen], nil
}

// History returns the audit trail of an incident for staff.
func (s *IncidentService) History(ctx context.Context, viewer *domain.User, incidentID int64) ([]domain.IncidentHistory, error) {
	if !viewer.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	if _, err := s.getIncident(ctx, incidentID); err != nil {
		return nil, err
	}
	return s.history.ListByIncident(ctx, incidentID)
}

func (s *IncidentService) loadVisible(ctx context.Context, viewer *domain.User, incidentID int64) (*domain.Incident, error) {
	incident, err := s.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if incident.UserID != viewer.ID && !viewer.IsStaff() {
		return nil, apperrors.NewForbidden("access denied")
	}
	return incident, nil
}

func (s *IncidentService) getIncident(ctx context.Context, incidentID int64) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"id": incidentID})
		}
		return nil, err
	}
	return incident, nil
}

// ReporterIDByUsername resolves the reporter named by an automation caller.
func (s *IncidentService) ReporterIDByUsername(ctx context.Context, username string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, apperrors.NewFieldError("user_id", "user_id or username is required")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return 0, apperrors.NewNotFound("user", map[string]any{"username": username})
		}
		return 0, err
	}
	return user.ID, nil
}

func (s *IncidentService) recordHistory(ctx context.Context, entry *domain.IncidentHistory) {
	recordHistory(ctx, s.history, s.logger, entry)
}

func recordHistory(ctx context.Context, repo repository.IncidentHistoryRepository, logger *zap.Logger, entry *domain.IncidentHistory) {
	if repo == nil {
		return
	}
	if err := repo.Create(ctx, entry); err != nil {
		logger.Warn("failed to record incident history",
			zap.Int64("incident_id", entry.IncidentID),
			zap.String("change_type", string(entry.ChangeType)),
			zap.Error(err))
	}
}
