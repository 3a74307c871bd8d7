package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// IncidentFilter captures dashboard and listing parameters. All set fields are AND-combined.
type IncidentFilter struct {
	UserID        *int64
	Statuses      []domain.IncidentStatus
	CreatedFrom   *time.Time // inclusive
	CreatedBefore *time.Time // exclusive
	Department    *string    // reporter's current profile department
	LaptopModel   *string    // substring of the snapshot
	LaptopSerial  *string    // substring of the snapshot
	Username      *string    // substring of the reporter's username
	Limit         int
	Offset        int
}

// WithoutStatus returns a copy with the status filter removed, used for badge counts.
func (f IncidentFilter) WithoutStatus() IncidentFilter {
	f.Statuses = nil
	return f
}

const incidentFromClause = `
        FROM incidents i
        JOIN users u ON u.id = i.user_id
        LEFT JOIN profiles p ON p.user_id = i.user_id`

// buildIncidentWhere renders the WHERE clause and positional args for a filter.
func buildIncidentWhere(filter IncidentFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("i.user_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("i.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("i.created_at >= $%d", len(args)))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		clauses = append(clauses, fmt.Sprintf("i.created_at < $%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("p.department=$%d", len(args)))
	}
	if term := trimmed(filter.LaptopModel); term != "" {
		args = append(args, likePattern(term))
		clauses = append(clauses, fmt.Sprintf("i.laptop_model ILIKE $%d", len(args)))
	}
	if term := trimmed(filter.LaptopSerial); term != "" {
		args = append(args, likePattern(term))
		clauses = append(clauses, fmt.Sprintf("i.laptop_serial ILIKE $%d", len(args)))
	}
	if term := trimmed(filter.Username); term != "" {
		args = append(args, likePattern(term))
		clauses = append(clauses, fmt.Sprintf("u.username ILIKE $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
