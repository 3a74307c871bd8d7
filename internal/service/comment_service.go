package service

import (
	"context"
	"strings"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// CommentService manages incident threads and per-user read watermarks.
type CommentService struct {
	incidents repository.IncidentRepository
	comments  repository.CommentRepository
	now       Clock
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	IncidentRepo repository.IncidentRepository
	CommentRepo  repository.CommentRepository
	Clock        Clock
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		incidents: deps.IncidentRepo,
		comments:  deps.CommentRepo,
		now:       clockOrNow(deps.Clock),
	}
}

// AddComment posts a message as the reporter or staff; the author's own watermark moves to now.
func (s *CommentService) AddComment(ctx context.Context, actor *domain.User, incidentID int64, message string) (*domain.Comment, error) {
	if _, err := s.authorize(ctx, actor, incidentID); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewFieldError("message", "message is required")
	}

	comment := &domain.Comment{
		IncidentID: incidentID,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		Message:    message,
		CreatedAt:  s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.comments.MarkRead(ctx, actor.ID, incidentID, comment.CreatedAt); err != nil {
		return nil, err
	}
	return comment, nil
}

// UnreadCount returns comments newer than the viewer's watermark, or all comments if the viewer never read the thread.
func (s *CommentService) UnreadCount(ctx context.Context, viewer *domain.User, incidentID int64) (int, error) {
	counts, err := s.comments.CountUnread(ctx, viewer.ID, []int64{incidentID})
	if err != nil {
		return 0, err
	}
	return counts[incidentID], nil
}

// UnreadCounts is the batch form used by list views.
func (s *CommentService) UnreadCounts(ctx context.Context, viewer *domain.User, incidentIDs []int64) (map[int64]int, error) {
	return s.comments.CountUnread(ctx, viewer.ID, incidentIDs)
}

// MarkRead moves the viewer's watermark to now.
func (s *CommentService) MarkRead(ctx context.Context, viewer *domain.User, incidentID int64) error {
	if _, err := s.authorize(ctx, viewer, incidentID); err != nil {
		return err
	}
	return s.comments.MarkRead(ctx, viewer.ID, incidentID, s.now())
}

func (s *CommentService) authorize(ctx context.Context, actor *domain.User, incidentID int64) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"id": incidentID})
		}
		return nil, err
	}
	if incident.UserID != actor.ID && !actor.IsStaff() {
		return nil, apperrors.NewForbidden("only the reporter or IT staff may comment")
	}
	return incident, nil
}
