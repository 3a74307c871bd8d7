package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
)

// IncidentRepository implements repository.IncidentRepository.
type IncidentRepository struct {
	s *Store
}

var _ repository.IncidentRepository = (*IncidentRepository)(nil)

func (r *IncidentRepository) Create(_ context.Context, incident *domain.Incident) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[incident.UserID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.nextIncidentID++
	incident.ID = r.s.nextIncidentID
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = r.s.now()
	}
	incident.UpdatedAt = r.s.now()
	r.s.incidents[incident.ID] = copyIncident(incident)
	return nil
}

func (r *IncidentRepository) GetByID(_ context.Context, id int64) (*domain.Incident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	incident, ok := r.s.incidents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyIncident(incident), nil
}

func (r *IncidentRepository) Mutate(_ context.Context, id int64, fn repository.IncidentMutation) (*domain.Incident, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.incidents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	working := copyIncident(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = r.s.now()
	r.s.incidents[id] = copyIncident(working)
	return working, nil
}

func (r *IncidentRepository) List(_ context.Context, filter repository.IncidentFilter) ([]domain.Incident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.s.matchIncidents(filter)
	sort.Slice(matched, func(a, b int) bool {
		if matched[a].CreatedAt.Equal(matched[b].CreatedAt) {
			return matched[a].ID > matched[b].ID
		}
		return matched[a].CreatedAt.After(matched[b].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *IncidentRepository) CountByStatus(_ context.Context, filter repository.IncidentFilter) (map[domain.IncidentStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[domain.IncidentStatus]int, len(domain.AllStatuses))
	for _, incident := range r.s.matchIncidents(filter) {
		counts[incident.Status]++
	}
	return counts, nil
}

// matchIncidents must be called with the lock held.
func (s *Store) matchIncidents(filter repository.IncidentFilter) []domain.Incident {
	var result []domain.Incident
	for _, incident := range s.incidents {
		if s.incidentMatches(incident, filter) {
			result = append(result, *copyIncident(incident))
		}
	}
	return result
}

func (s *Store) incidentMatches(incident *domain.Incident, filter repository.IncidentFilter) bool {
	if filter.UserID != nil && incident.UserID != *filter.UserID {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, incident.Status) {
		return false
	}
	if filter.CreatedFrom != nil && incident.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedBefore != nil && !incident.CreatedAt.Before(*filter.CreatedBefore) {
		return false
	}
	if filter.Department != nil {
		profile, ok := s.profiles[incident.UserID]
		if !ok || profile.Department == nil || string(*profile.Department) != *filter.Department {
			return false
		}
	}
	if !containsFold(incident.LaptopModel, filter.LaptopModel) {
		return false
	}
	if !containsFold(incident.LaptopSerial, filter.LaptopSerial) {
		return false
	}
	if term := trimmed(filter.Username); term != "" {
		user, ok := s.users[incident.UserID]
		if !ok || !strings.Contains(strings.ToLower(user.Username), strings.ToLower(term)) {
			return false
		}
	}
	return true
}

func containsStatus(statuses []domain.IncidentStatus, status domain.IncidentStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// containsFold mirrors ILIKE '%term%': a blank term matches everything, a NULL column matches nothing.
func containsFold(value, term *string) bool {
	needle := trimmed(term)
	if needle == "" {
		return true
	}
	if value == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*value), strings.ToLower(needle))
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
