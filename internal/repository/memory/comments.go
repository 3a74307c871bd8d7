package memory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
)

// CommentRepository implements repository.CommentRepository.
type CommentRepository struct {
	s *Store
}

var _ repository.CommentRepository = (*CommentRepository)(nil)

func (r *CommentRepository) Create(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.incidents[comment.IncidentID]; !ok {
		return pgx.ErrNoRows
	}
	author, ok := r.s.users[comment.AuthorID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.s.nextCommentID++
	comment.ID = r.s.nextCommentID
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = r.s.now()
	}
	comment.AuthorName = author.Username
	r.s.comments = append(r.s.comments, *comment)
	return nil
}

func (r *CommentRepository) ListByIncident(_ context.Context, incidentID int64) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.Comment
	for _, comment := range r.s.comments {
		if comment.IncidentID != incidentID {
			continue
		}
		if author, ok := r.s.users[comment.AuthorID]; ok {
			comment.AuthorName = author.Username
		}
		result = append(result, comment)
	}
	return result, nil
}

func (r *CommentRepository) CountUnread(_ context.Context, userID int64, incidentIDs []int64) (map[int64]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(incidentIDs))
	for _, id := range incidentIDs {
		wanted[id] = struct{}{}
	}

	counts := make(map[int64]int, len(incidentIDs))
	for _, comment := range r.s.comments {
		if _, ok := wanted[comment.IncidentID]; !ok {
			continue
		}
		lastRead, seen := r.s.reads[readKey{userID: userID, incidentID: comment.IncidentID}]
		if !seen || comment.CreatedAt.After(lastRead) {
			counts[comment.IncidentID]++
		}
	}
	return counts, nil
}

func (r *CommentRepository) MarkRead(_ context.Context, userID, incidentID int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.reads[readKey{userID: userID, incidentID: incidentID}] = at
	return nil
}

func (r *CommentRepository) GetRead(_ context.Context, userID, incidentID int64) (*domain.CommentRead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	at, ok := r.s.reads[readKey{userID: userID, incidentID: incidentID}]
	if !ok {
		return nil, nil
	}
	return &domain.CommentRead{UserID: userID, IncidentID: incidentID, LastReadAt: at}, nil
}

// AttachmentRepository implements repository.AttachmentRepository.
type AttachmentRepository struct {
	s *Store
}

var _ repository.AttachmentRepository = (*AttachmentRepository)(nil)

func (r *AttachmentRepository) Create(_ context.Context, attachment *domain.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.incidents[attachment.IncidentID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.nextAttachID++
	attachment.ID = r.s.nextAttachID
	attachment.CreatedAt = r.s.now()
	r.s.attachments = append(r.s.attachments, *attachment)
	return nil
}

func (r *AttachmentRepository) ListByIncident(_ context.Context, incidentID int64) ([]domain.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.Attachment
	for _, attachment := range r.s.attachments {
		if attachment.IncidentID == incidentID {
			result = append(result, attachment)
		}
	}
	return result, nil
}

// HistoryRepository implements repository.IncidentHistoryRepository.
type HistoryRepository struct {
	s *Store
}

var _ repository.IncidentHistoryRepository = (*HistoryRepository)(nil)

func (r *HistoryRepository) Create(_ context.Context, entry *domain.IncidentHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextHistoryID++
	entry.ID = r.s.nextHistoryID
	entry.CreatedAt = r.s.now()
	r.s.history = append(r.s.history, *entry)
	return nil
}

func (r *HistoryRepository) ListByIncident(_ context.Context, incidentID int64) ([]domain.IncidentHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.IncidentHistory
	for _, entry := range r.s.history {
		if entry.IncidentID == incidentID {
			result = append(result, entry)
		}
	}
	return result, nil
}
