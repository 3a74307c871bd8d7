package events

import (
	"time"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentCreated       EventType = "incident_created"
	EventIncidentStatusChanged EventType = "incident_status_changed"
	EventIncidentAcknowledged  EventType = "incident_acknowledged"
	EventUserQuarantined       EventType = "user_quarantined"
)

// Actor identifies who triggered an event. A nil UserID means the automation principal.
type Actor struct {
	UserID *int64 `json:"user_id,omitempty"`
	Label  string `json:"label"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	IncidentID int64     `json:"incident_id,omitempty"`
	Actor      Actor     `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload"`
}

// IncidentCreatedPayload carries the data forwarded to the automation endpoint.
type IncidentCreatedPayload struct {
	Title          string                 `json:"title"`
	Channel        domain.IncidentChannel `json:"channel"`
	Department     *string                `json:"department,omitempty"`
	LaptopSerial   *string                `json:"laptop_serial,omitempty"`
	ReporterID     int64                  `json:"reporter_id"`
	ReporterName   string                 `json:"reporter_name"`
	AttachmentHash *string                `json:"file_hash,omitempty"`
	AttachmentURL  *string                `json:"file_url,omitempty"`
}

// IncidentStatusChangedPayload payload.
type IncidentStatusChangedPayload struct {
	OldStatus domain.IncidentStatus `json:"old_status"`
	NewStatus domain.IncidentStatus `json:"new_status"`
}

// IncidentAcknowledgedPayload payload.
type IncidentAcknowledgedPayload struct {
	Title         string  `json:"title"`
	StatusMessage *string `json:"status_message,omitempty"`
}

// UserQuarantinedPayload payload.
type UserQuarantinedPayload struct {
	UserID          int64  `json:"user_id"`
	Username        string `json:"username"`
	SessionsDeleted int    `json:"sessions_deleted"`
}
