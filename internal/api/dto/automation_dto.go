package dto

import "encoding/json"

// ExternalIncidentRequest creates an incident on behalf of a user from automation.
// The reporter is identified by user_id or, failing that, username.
type ExternalIncidentRequest struct {
	UserID      json.RawMessage `json:"user_id"`
	Username    string          `json:"username"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	SelfFixed   bool            `json:"self_fixed"`
	FileName    string          `json:"file_name" validate:"max=255"`
	FileURL     string          `json:"file_url" validate:"omitempty,url"`
	FileHash    string          `json:"file_hash" validate:"max=128"`
}

// AcknowledgeRequest marks a ticket acknowledged.
type AcknowledgeRequest struct {
	TicketID       int64  `json:"ticket_id" validate:"gt=0"`
	AcknowledgedBy string `json:"acknowledged_by"`
}

// StatusMessageRequest appends to a ticket's IT status log.
type StatusMessageRequest struct {
	TicketID int64  `json:"ticket_id" validate:"gt=0"`
	Message  string `json:"message" validate:"notblank"`
	Author   string `json:"author"`
}

// UpdateAcknowledgmentRequest is sent by the scanner when it picks up or finishes a ticket.
type UpdateAcknowledgmentRequest struct {
	TicketID   int64  `json:"ticket_id" validate:"gt=0"`
	ScanResult string `json:"scan_result"`
	Author     string `json:"author"`
}

// QuarantineRequest names the account to quarantine. user_id may be a number or a numeric string.
type QuarantineRequest struct {
	UserID json.RawMessage `json:"user_id"`
}

// ClassifyRequest asks for a category suggestion.
type ClassifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
