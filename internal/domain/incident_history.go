package domain

import "time"

// IncidentChangeType captures what changed in a history entry.
type IncidentChangeType string

const (
	ChangeTypeStatus        IncidentChangeType = "STATUS_CHANGE"
	ChangeTypeAcknowledged  IncidentChangeType = "ACKNOWLEDGED"
	ChangeTypeStatusMessage IncidentChangeType = "STATUS_MESSAGE"
)

// IncidentHistory is an immutable audit trail entry.
type IncidentHistory struct {
	ID         int64
	IncidentID int64
	ActorID    *int64
	ActorLabel string
	ChangeType IncidentChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
