package dto

import "time"

// AttachmentRequest is metadata of an already stored file.
type AttachmentRequest struct {
	FileName string `json:"file_name" validate:"max=255"`
	FileURL  string `json:"file_url" validate:"omitempty,url"`
	FileHash string `json:"file_hash" validate:"max=128"`
}

// CreateIncidentRequest payload for reporting an incident.
type CreateIncidentRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	SelfFixed   bool               `json:"self_fixed"`
	Attachment  *AttachmentRequest `json:"attachment" validate:"omitempty"`
}

// StaffUpdateRequest changes status and/or the admin response.
type StaffUpdateRequest struct {
	Status        string  `json:"status"`
	AdminResponse *string `json:"admin_response"`
}

// MessageRequest carries a comment or status message body.
type MessageRequest struct {
	Message string `json:"message" validate:"notblank"`
}

// IncidentResponse is the API view of an incident.
type IncidentResponse struct {
	ID                 int64      `json:"id"`
	ReporterID         int64      `json:"reporter_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	Category           *string    `json:"category"`
	CategoryConfidence *float64   `json:"category_confidence"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ResolvedAt         *time.Time `json:"resolved_at"`
	ResolvedBy         *int64     `json:"resolved_by"`
	AdminResponse      *string    `json:"admin_response"`
	LaptopModel        *string    `json:"laptop_model"`
	LaptopSerial       *string    `json:"laptop_serial"`
	Department         *string    `json:"department"`
	ITAcknowledged     bool       `json:"it_acknowledged"`
	ITAcknowledgedAt   *time.Time `json:"it_acknowledged_at"`
	ITAcknowledgedBy   *int64     `json:"it_acknowledged_by"`
	ITStatusMessage    string     `json:"it_status_message"`
}

// IncidentListItem is a reporter history row.
type IncidentListItem struct {
	IncidentResponse
	UnreadComments int `json:"unread_comments"`
}

// CommentResponse is one message of an incident thread.
type CommentResponse struct {
	ID         int64     `json:"id"`
	IncidentID int64     `json:"incident_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttachmentResponse is stored attachment metadata.
type AttachmentResponse struct {
	ID        int64     `json:"id"`
	FileName  string    `json:"file_name"`
	FileURL   string    `json:"file_url"`
	FileHash  string    `json:"file_hash"`
	CreatedAt time.Time `json:"created_at"`
}

// IncidentDetailResponse bundles an incident with its thread.
type IncidentDetailResponse struct {
	Incident    IncidentResponse     `json:"incident"`
	Reporter    UserResponse         `json:"reporter"`
	Comments    []CommentResponse    `json:"comments"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         int64          `json:"id"`
	ActorID    *int64         `json:"actor_id"`
	ActorLabel string         `json:"actor_label"`
	ChangeType string         `json:"change_type"`
	OldValue   map[string]any `json:"old_value,omitempty"`
	NewValue   map[string]any `json:"new_value,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
