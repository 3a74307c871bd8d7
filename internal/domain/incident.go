package domain

import (
	"errors"
	"strings"
	"time"
)

// IncidentStatus enumerates lifecycle states for incidents.
type IncidentStatus string

const (
	StatusOpen       IncidentStatus = "Open"
	StatusInProgress IncidentStatus = "In Progress"
	StatusResolved   IncidentStatus = "Resolved"
	StatusClosed     IncidentStatus = "Closed"
)

// AllStatuses lists the canonical enumeration in lifecycle order.
var AllStatuses = []IncidentStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// IncidentChannel identifies where a report came from.
type IncidentChannel string

const (
	ChannelWeb      IncidentChannel = "WEB"
	ChannelExternal IncidentChannel = "EXTERNAL"
)

// MaxTitleWords caps the number of words accepted in a reported title.
const MaxTitleWords = 10

// MaxTitleLength is the title column width in characters.
const MaxTitleLength = 200

var (
	ErrIncidentClosed    = errors.New("incident is closed")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Incident is the aggregate for reported IT issues.
type Incident struct {
	ID                 int64
	UserID             int64
	Title              string
	Description        string
	Status             IncidentStatus
	Category           *string
	CategoryConfidence *float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ResolvedAt         *time.Time
	ResolvedBy         *int64
	AdminResponse      *string

	// Snapshot of the reporter's profile, frozen at creation.
	LaptopModel  *string
	LaptopSerial *string
	Department   *string

	ITAcknowledged   bool
	ITAcknowledgedAt *time.Time
	ITAcknowledgedBy *int64
	ITStatusMessage  string
}

// ParseStatus normalizes input to the canonical enumeration. Legacy self-fix spellings map to Resolved.
func ParseStatus(raw string) (IncidentStatus, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), " "))
	switch normalized {
	case "open":
		return StatusOpen, true
	case "in progress", "in-progress":
		return StatusInProgress, true
	case "resolved", "self-fixed", "self fixed", "selffixed":
		return StatusResolved, true
	case "closed":
		return StatusClosed, true
	}
	return "", false
}

// IsTerminal reports whether no further status changes are accepted.
func (s IncidentStatus) IsTerminal() bool {
	return s == StatusClosed
}

var allowedTransitions = map[IncidentStatus][]IncidentStatus{
	StatusOpen:       {StatusOpen, StatusInProgress, StatusResolved, StatusClosed},
	StatusInProgress: {StatusOpen, StatusInProgress, StatusResolved, StatusClosed},
	StatusResolved:   {StatusInProgress, StatusResolved, StatusClosed},
	StatusClosed:     {},
}

// CanTransition reports whether current may move to next. Same-state moves are allowed for non-terminal states.
func CanTransition(current, next IncidentStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// StatusUpdate is a staff-driven change to status and/or admin response.
type StatusUpdate struct {
	Status        IncidentStatus
	AdminResponse *string
	ActorID       int64
}

// ApplyStatus mutates the incident for a staff update. It returns whether the status changed.
func (i *Incident) ApplyStatus(update StatusUpdate, now time.Time) (bool, error) {
	if i.Status.IsTerminal() {
		return false, ErrIncidentClosed
	}
	if !CanTransition(i.Status, update.Status) {
		return false, ErrInvalidTransition
	}

	changed := i.Status != update.Status
	i.Status = update.Status

	if update.Status == StatusResolved || update.Status == StatusClosed {
		i.markResolved(now)
	}
	if update.AdminResponse != nil {
		response := strings.TrimSpace(*update.AdminResponse)
		i.AdminResponse = &response
		if update.Status == StatusClosed && response != "" {
			actor := update.ActorID
			i.ResolvedBy = &actor
		}
	}
	return changed, nil
}

// markResolved sets ResolvedAt once; an existing timestamp is never overwritten.
func (i *Incident) markResolved(now time.Time) {
	if i.ResolvedAt != nil {
		return
	}
	ts := now
	i.ResolvedAt = &ts
}

// Acknowledge marks IT ownership and escalates Open incidents to In Progress.
// It returns whether anything changed; closed incidents are left untouched.
func (i *Incident) Acknowledge(actorID *int64, now time.Time) bool {
	if i.Status.IsTerminal() {
		return false
	}
	changed := false
	if !i.ITAcknowledged {
		ts := now
		i.ITAcknowledged = true
		i.ITAcknowledgedAt = &ts
		i.ITAcknowledgedBy = actorID
		changed = true
	}
	if i.Status == StatusOpen {
		i.Status = StatusInProgress
		changed = true
	}
	return changed
}

// AppendStatusMessage adds a timestamped, attributed line to the IT status log.
func (i *Incident) AppendStatusMessage(author, message string, now time.Time) string {
	line := "[" + now.Format("2006-01-02 15:04") + "] " + author + ": " + strings.TrimSpace(message)
	if i.ITStatusMessage == "" {
		i.ITStatusMessage = line
	} else {
		i.ITStatusMessage = i.ITStatusMessage + "\n" + line
	}
	return line
}

// IsOpenLike reports statuses counted under the "Open" filter.
func (s IncidentStatus) IsOpenLike() bool {
	return s == StatusOpen || s == StatusInProgress
}

// CountWords splits on whitespace the way title validation does.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
