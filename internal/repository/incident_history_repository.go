package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// IncidentHistoryRepository stores audit entries.
type IncidentHistoryRepository interface {
	Create(ctx context.Context, history *domain.IncidentHistory) error
	ListByIncident(ctx context.Context, incidentID int64) ([]domain.IncidentHistory, error)
}

type incidentHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentHistoryRepository builds repository.
func NewIncidentHistoryRepository(pool *pgxpool.Pool) IncidentHistoryRepository {
	return &incidentHistoryRepository{pool: pool}
}

func (r *incidentHistoryRepository) Create(ctx context.Context, history *domain.IncidentHistory) error {
	const query = `
        INSERT INTO incident_history (incident_id, actor_id, actor_label, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.IncidentID,
		history.ActorID,
		history.ActorLabel,
		string(history.ChangeType),
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *incidentHistoryRepository) ListByIncident(ctx context.Context, incidentID int64) ([]domain.IncidentHistory, error) {
	const query = `
        SELECT id, incident_id, actor_id, actor_label, change_type, old_value, new_value, created_at
        FROM incident_history WHERE incident_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IncidentHistory
	for rows.Next() {
		var (
			history    domain.IncidentHistory
			changeType string
		)
		if err := rows.Scan(
			&history.ID,
			&history.IncidentID,
			&history.ActorID,
			&history.ActorLabel,
			&changeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.ChangeType = domain.IncidentChangeType(changeType)
		result = append(result, history)
	}
	return result, rows.Err()
}
