package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// IncidentMutation edits a locked incident in place. Returning an error aborts the write.
type IncidentMutation func(incident *domain.Incident) error

// IncidentRepository encapsulates incident persistence.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id int64) (*domain.Incident, error)
	// Mutate loads the row under a row-level lock, applies fn and writes every mutable field back.
	Mutate(ctx context.Context, id int64, fn IncidentMutation) (*domain.Incident, error)
	List(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error)
	CountByStatus(ctx context.Context, filter IncidentFilter) (map[domain.IncidentStatus]int, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository instantiates repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

const incidentColumns = `i.id, i.user_id, i.title, i.description, i.status, i.category, i.category_confidence,
               i.created_at, i.updated_at, i.resolved_at, i.resolved_by, i.admin_response,
               i.laptop_model, i.laptop_serial, i.department,
               i.it_acknowledged, i.it_acknowledged_at, i.it_acknowledged_by, i.it_status_message`

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO incidents (user_id, title, description, status, category, category_confidence,
            created_at, resolved_at, laptop_model, laptop_serial, department)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, updated_at`
	return r.pool.QueryRow(ctx, query,
		incident.UserID,
		incident.Title,
		incident.Description,
		string(incident.Status),
		incident.Category,
		incident.CategoryConfidence,
		incident.CreatedAt,
		incident.ResolvedAt,
		incident.LaptopModel,
		incident.LaptopSerial,
		incident.Department,
	).Scan(&incident.ID, &incident.UpdatedAt)
}

func (r *incidentRepository) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+incidentColumns+` FROM incidents i WHERE i.id=$1`, id)
	return scanIncident(row)
}

func (r *incidentRepository) Mutate(ctx context.Context, id int64, fn IncidentMutation) (*domain.Incident, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	incident, err := scanIncident(tx.QueryRow(ctx, `SELECT `+incidentColumns+` FROM incidents i WHERE i.id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(incident); err != nil {
		return nil, err
	}

	const update = `
        UPDATE incidents SET status=$1, resolved_at=$2, resolved_by=$3, admin_response=$4,
            it_acknowledged=$5, it_acknowledged_at=$6, it_acknowledged_by=$7, it_status_message=$8,
            updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, update,
		string(incident.Status),
		incident.ResolvedAt,
		incident.ResolvedBy,
		incident.AdminResponse,
		incident.ITAcknowledged,
		incident.ITAcknowledgedAt,
		incident.ITAcknowledgedBy,
		incident.ITStatusMessage,
		incident.ID,
	).Scan(&incident.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return incident, nil
}

func (r *incidentRepository) List(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error) {
	where, args := buildIncidentWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY i.created_at DESC, i.id DESC LIMIT %d OFFSET %d`,
		incidentColumns, incidentFromClause, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *incident)
	}
	return result, rows.Err()
}

func (r *incidentRepository) CountByStatus(ctx context.Context, filter IncidentFilter) (map[domain.IncidentStatus]int, error) {
	where, args := buildIncidentWhere(filter)
	query := fmt.Sprintf(`SELECT i.status, COUNT(*) %s WHERE %s GROUP BY i.status`, incidentFromClause, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.IncidentStatus]int, len(domain.AllStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.IncidentStatus(status)] = count
	}
	return counts, rows.Err()
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var (
		incident domain.Incident
		status   string
	)
	if err := row.Scan(
		&incident.ID,
		&incident.UserID,
		&incident.Title,
		&incident.Description,
		&status,
		&incident.Category,
		&incident.CategoryConfidence,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ResolvedAt,
		&incident.ResolvedBy,
		&incident.AdminResponse,
		&incident.LaptopModel,
		&incident.LaptopSerial,
		&incident.Department,
		&incident.ITAcknowledged,
		&incident.ITAcknowledgedAt,
		&incident.ITAcknowledgedBy,
		&incident.ITStatusMessage,
	); err != nil {
		return nil, err
	}
	incident.Status = domain.IncidentStatus(status)
	return &incident, nil
}
