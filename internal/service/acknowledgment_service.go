package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/events"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

var errUnchanged = errors.New("incident unchanged")

// AcknowledgmentService records IT ownership of incidents and the IT status log.
type AcknowledgmentService struct {
	incidents  repository.IncidentRepository
	users      repository.UserRepository
	history    repository.IncidentHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// AcknowledgmentDependencies bundles collaborators for the acknowledgment service.
type AcknowledgmentDependencies struct {
	IncidentRepo repository.IncidentRepository
	UserRepo     repository.UserRepository
	HistoryRepo  repository.IncidentHistoryRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Clock        Clock
}

// NewAcknowledgmentService constructs the service.
func NewAcknowledgmentService(deps AcknowledgmentDependencies) *AcknowledgmentService {
	return &AcknowledgmentService{
		incidents:  deps.IncidentRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

// AckResult reports the incident after acknowledgment.
type AckResult struct {
	Incident            *domain.Incident
	AlreadyAcknowledged bool
	StatusChanged       bool
}

// StatusMessageResult reports the appended line and whether the message also acknowledged the incident.
type StatusMessageResult struct {
	Incident     *domain.Incident
	Line         string
	Acknowledged bool
}

// ResolveAutomationActor maps an optional username sent by automation to an actor.
// Known staff users act as themselves; anything else is the automation principal labelled with the name.
func (s *AcknowledgmentService) ResolveAutomationActor(ctx context.Context, username string) (Actor, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return AutomationActor(""), nil
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return AutomationActor(username), nil
		}
		return Actor{}, err
	}
	if !user.IsStaff() {
		return AutomationActor(username), nil
	}
	return UserActor(user), nil
}

// Acknowledge marks the incident acknowledged and escalates Open to In Progress.
// Repeated calls and calls on closed incidents succeed without changes.
func (s *AcknowledgmentService) Acknowledge(ctx context.Context, actor Actor, incidentID int64) (*AckResult, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		before  domain.Incident
		current *domain.Incident
	)
	updated, err := s.incidents.Mutate(ctx, incidentID, func(incident *domain.Incident) error {
		before = *incident
		current = incident
		if !incident.Acknowledge(actor.UserID(), now) {
			return errUnchanged
		}
		return nil
	})
	switch {
	case errors.Is(err, errUnchanged):
		updated = current
	case apperrors.IsNoRows(err):
		return nil, apperrors.NewNotFound("incident", map[string]any{"id": incidentID})
	case err != nil:
		return nil, err
	}

	result := &AckResult{
		Incident:            updated,
		AlreadyAcknowledged: before.ITAcknowledged,
		StatusChanged:       before.Status != updated.Status,
	}
	if err == nil {
		s.afterAcknowledge(ctx, actor, before, updated, nil, now)
	}
	return result, nil
}

// LeaveStatusMessage appends an attributed line to the IT status log and acknowledges if needed.
func (s *AcknowledgmentService) LeaveStatusMessage(ctx context.Context, actor Actor, incidentID int64, message string) (*StatusMessageResult, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewFieldError("message", "message is required")
	}

	now := s.now()
	var (
		before domain.Incident
		line   string
	)
	updated, err := s.incidents.Mutate(ctx, incidentID, func(incident *domain.Incident) error {
		before = *incident
		line = incident.AppendStatusMessage(actor.Label, message, now)
		incident.Acknowledge(actor.UserID(), now)
		return nil
	})
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"id": incidentID})
		}
		return nil, err
	}

	recordHistory(ctx, s.history, s.logger, &domain.IncidentHistory{
		IncidentID: incidentID,
		ActorID:    actor.UserID(),
		ActorLabel: actor.Label,
		ChangeType: domain.ChangeTypeStatusMessage,
		NewValue:   map[string]any{"line": line},
	})
	s.afterAcknowledge(ctx, actor, before, updated, &line, now)

	return &StatusMessageResult{
		Incident:     updated,
		Line:         line,
		Acknowledged: !before.ITAcknowledged && updated.ITAcknowledged,
	}, nil
}

// afterAcknowledge records history and notifies subscribers for whatever the mutation changed.
func (s *AcknowledgmentService) afterAcknowledge(ctx context.Context, actor Actor, before domain.Incident, after *domain.Incident, line *string, now time.Time) {
	newlyAcknowledged := !before.ITAcknowledged && after.ITAcknowledged
	statusChanged := before.Status != after.Status

	switch {
	case newlyAcknowledged:
		recordHistory(ctx, s.history, s.logger, &domain.IncidentHistory{
			IncidentID: after.ID,
			ActorID:    actor.UserID(),
			ActorLabel: actor.Label,
			ChangeType: domain.ChangeTypeAcknowledged,
			OldValue:   map[string]any{"it_acknowledged": false, "status": before.Status},
			NewValue:   map[string]any{"it_acknowledged": true, "status": after.Status},
		})
	case statusChanged:
		recordHistory(ctx, s.history, s.logger, &domain.IncidentHistory{
			IncidentID: after.ID,
			ActorID:    actor.UserID(),
			ActorLabel: actor.Label,
			ChangeType: domain.ChangeTypeStatus,
			OldValue:   map[string]any{"status": before.Status},
			NewValue:   map[string]any{"status": after.Status},
		})
	}

	if statusChanged {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:       events.EventIncidentStatusChanged,
			IncidentID: after.ID,
			Actor:      actor.event(),
			Timestamp:  now,
			Payload:    events.IncidentStatusChangedPayload{OldStatus: before.Status, NewStatus: after.Status},
		})
	}
	if newlyAcknowledged || line != nil {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:       events.EventIncidentAcknowledged,
			IncidentID: after.ID,
			Actor:      actor.event(),
			Timestamp:  now,
			Payload:    events.IncidentAcknowledgedPayload{Title: after.Title, StatusMessage: line},
		})
	}
}

func checkActor(actor Actor) error {
	if actor.IsAutomation() || actor.User.IsStaff() {
		return nil
	}
	return apperrors.NewForbidden("staff role required")
}
