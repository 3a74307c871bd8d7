package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByIncident(ctx context.Context, incidentID int64) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO incident_attachments (incident_id, file_name, file_url, file_hash)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.IncidentID,
		attachment.FileName,
		attachment.FileURL,
		attachment.FileHash,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByIncident(ctx context.Context, incidentID int64) ([]domain.Attachment, error) {
	const query = `
        SELECT id, incident_id, file_name, file_url, file_hash, created_at
        FROM incident_attachments WHERE incident_id=$1 ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.IncidentID,
			&attachment.FileName,
			&attachment.FileURL,
			&attachment.FileHash,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
