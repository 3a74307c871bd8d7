// Package memory provides process-local repositories used when no database is
// configured and by tests. Semantics mirror the Postgres implementations.
package memory

import (
	"sync"
	"time"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// Store is the shared state behind every in-memory repository.
type Store struct {
	mu sync.RWMutex

	now func() time.Time

	users       map[int64]*domain.User
	profiles    map[int64]*domain.Profile
	incidents   map[int64]*domain.Incident
	comments    []domain.Comment
	reads       map[readKey]time.Time
	attachments []domain.Attachment
	history     []domain.IncidentHistory

	nextUserID     int64
	nextIncidentID int64
	nextCommentID  int64
	nextAttachID   int64
	nextHistoryID  int64
}

type readKey struct {
	userID     int64
	incidentID int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		users:     make(map[int64]*domain.User),
		profiles:  make(map[int64]*domain.Profile),
		incidents: make(map[int64]*domain.Incident),
		reads:     make(map[readKey]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Users returns the user repository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Profiles returns the profile repository view.
func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{s: s} }

// Incidents returns the incident repository view.
func (s *Store) Incidents() *IncidentRepository { return &IncidentRepository{s: s} }

// Comments returns the comment repository view.
func (s *Store) Comments() *CommentRepository { return &CommentRepository{s: s} }

// Attachments returns the attachment repository view.
func (s *Store) Attachments() *AttachmentRepository { return &AttachmentRepository{s: s} }

// History returns the incident history repository view.
func (s *Store) History() *HistoryRepository { return &HistoryRepository{s: s} }

func copyIncident(in *domain.Incident) *domain.Incident {
	out := *in
	return &out
}
