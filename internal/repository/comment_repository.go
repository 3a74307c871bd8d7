package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// CommentRepository manages incident discussion threads and read watermarks.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByIncident(ctx context.Context, incidentID int64) ([]domain.Comment, error)
	// CountUnread returns, per incident, comments newer than the user's watermark
	// (every comment when the user has no watermark). Incidents without unread comments are omitted.
	CountUnread(ctx context.Context, userID int64, incidentIDs []int64) (map[int64]int, error)
	MarkRead(ctx context.Context, userID, incidentID int64, at time.Time) error
	GetRead(ctx context.Context, userID, incidentID int64) (*domain.CommentRead, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

// Create stores a comment. A set CreatedAt is kept so it compares against read watermarks from the same clock.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO incident_comments (incident_id, author_id, message, created_at)
        VALUES ($1,$2,$3,COALESCE($4, NOW()))
        RETURNING id, created_at`
	var createdAt *time.Time
	if !comment.CreatedAt.IsZero() {
		createdAt = &comment.CreatedAt
	}
	return r.pool.QueryRow(ctx, query,
		comment.IncidentID,
		comment.AuthorID,
		comment.Message,
		createdAt,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByIncident(ctx context.Context, incidentID int64) ([]domain.Comment, error) {
	const query = `
        SELECT c.id, c.incident_id, c.author_id, u.username, c.message, c.created_at
        FROM incident_comments c JOIN users u ON u.id = c.author_id
        WHERE c.incident_id=$1 ORDER BY c.created_at ASC, c.id ASC`
	rows, err := r.pool.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.IncidentID,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.Message,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) CountUnread(ctx context.Context, userID int64, incidentIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(incidentIDs))
	if len(incidentIDs) == 0 {
		return counts, nil
	}
	const query = `
        SELECT c.incident_id, COUNT(*)
        FROM incident_comments c
        LEFT JOIN comment_reads r ON r.incident_id = c.incident_id AND r.user_id = $1
        WHERE c.incident_id = ANY($2)
          AND (r.last_read_at IS NULL OR c.created_at > r.last_read_at)
        GROUP BY c.incident_id`
	rows, err := r.pool.Query(ctx, query, userID, incidentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			incidentID int64
			count      int
		)
		if err := rows.Scan(&incidentID, &count); err != nil {
			return nil, err
		}
		counts[incidentID] = count
	}
	return counts, rows.Err()
}

func (r *commentRepository) MarkRead(ctx context.Context, userID, incidentID int64, at time.Time) error {
	const query = `
        INSERT INTO comment_reads (user_id, incident_id, last_read_at)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id, incident_id) DO UPDATE SET last_read_at=EXCLUDED.last_read_at`
	_, err := r.pool.Exec(ctx, query, userID, incidentID, at)
	return err
}

func (r *commentRepository) GetRead(ctx context.Context, userID, incidentID int64) (*domain.CommentRead, error) {
	const query = `SELECT user_id, incident_id, last_read_at FROM comment_reads WHERE user_id=$1 AND incident_id=$2`
	var read domain.CommentRead
	err := r.pool.QueryRow(ctx, query, userID, incidentID).Scan(&read.UserID, &read.IncidentID, &read.LastReadAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &read, nil
}
