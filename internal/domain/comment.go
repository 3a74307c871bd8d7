package domain

import "time"

// Comment is a message in an incident's discussion thread.
type Comment struct {
	ID         int64
	IncidentID int64
	AuthorID   int64
	AuthorName string
	Message    string
	CreatedAt  time.Time
}

// CommentRead is the per-user last-read watermark of an incident thread.
type CommentRead struct {
	UserID     int64
	IncidentID int64
	LastReadAt time.Time
}

// Attachment stores metadata of a scanned file; the bytes live elsewhere.
type Attachment struct {
	ID         int64
	IncidentID int64
	FileName   string
	FileURL    string
	FileHash   string
	CreatedAt  time.Time
}
