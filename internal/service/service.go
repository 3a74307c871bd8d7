package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/events"
)

// AutomationLabel attributes changes made by the trusted automation principal.
const AutomationLabel = "IT Automation"

// Clock returns the current time.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// Actor is the identity performing an operation. A nil User is the trusted automation principal.
type Actor struct {
	User  *domain.User
	Label string
}

// UserActor wraps an authenticated in-app user.
func UserActor(user *domain.User) Actor {
	return Actor{User: user, Label: user.Username}
}

// AutomationActor represents a webhook caller, optionally labelled with a display name.
func AutomationActor(label string) Actor {
	if label == "" {
		label = AutomationLabel
	}
	return Actor{Label: label}
}

// IsAutomation reports whether the actor is the automation principal.
func (a Actor) IsAutomation() bool {
	return a.User == nil
}

// UserID returns the acting user id, nil for automation.
func (a Actor) UserID() *int64 {
	if a.User == nil {
		return nil
	}
	id := a.User.ID
	return &id
}

func (a Actor) event() events.Actor {
	return events.Actor{UserID: a.UserID(), Label: a.Label}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("incident_id", event.IncidentID),
			zap.Error(err))
	}
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
