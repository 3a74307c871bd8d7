package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// Dashboard periods.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

var dateLayouts = []string{"02/01/2006", "2006-01-02"}

// DashboardQuery is the raw staff dashboard input. Invalid values are ignored rather than rejected.
type DashboardQuery struct {
	Status      string
	Period      string
	DateFrom    string
	DateTo      string
	Department  string
	LaptopModel string
	Serial      string
	Username    string
	FullHistory bool
	Limit       int
	Offset      int
}

// DashboardCounts are status badges computed under every filter except status.
type DashboardCounts struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

// AppliedFilters echoes how the query was interpreted.
type AppliedFilters struct {
	Status      *domain.IncidentStatus `json:"status,omitempty"`
	Period      string                 `json:"period"`
	From        *time.Time             `json:"from,omitempty"`
	Before      *time.Time             `json:"before,omitempty"`
	Department  *domain.Department     `json:"department,omitempty"`
	FullHistory bool                   `json:"full_history"`
}

// DashboardResult is the incident list and its badge counts.
type DashboardResult struct {
	Incidents []domain.Incident
	Counts    DashboardCounts
	Applied   AppliedFilters
}

// DashboardService answers staff dashboard queries.
type DashboardService struct {
	incidents repository.IncidentRepository
	now       Clock
	location  *time.Location
}

// DashboardDependencies bundles collaborators for the dashboard service.
type DashboardDependencies struct {
	IncidentRepo repository.IncidentRepository
	Clock        Clock
	Location     *time.Location
}

// NewDashboardService constructs the service. Calendar periods use Location, defaulting to the server zone.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{
		incidents: deps.IncidentRepo,
		now:       clockOrNow(deps.Clock),
		location:  loc,
	}
}

// Query fetches the filtered list and the status-independent counts concurrently.
func (s *DashboardService) Query(ctx context.Context, viewer *domain.User, q DashboardQuery) (*DashboardResult, error) {
	if !viewer.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}

	filter, applied := s.BuildFilter(q)

	var (
		list   []domain.Incident
		counts map[domain.IncidentStatus]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.incidents.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.incidents.CountByStatus(gctx, filter.WithoutStatus())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &DashboardResult{
		Incidents: list,
		Counts:    summarize(counts),
		Applied:   applied,
	}, nil
}

// BuildFilter translates dashboard input to a repository filter.
func (s *DashboardService) BuildFilter(q DashboardQuery) (repository.IncidentFilter, AppliedFilters) {
	filter := repository.IncidentFilter{Limit: q.Limit, Offset: q.Offset}
	applied := AppliedFilters{Period: PeriodAll}

	if status, ok := domain.ParseStatus(q.Status); ok {
		applied.Status = &status
		if status == domain.StatusOpen {
			filter.Statuses = []domain.IncidentStatus{domain.StatusOpen, domain.StatusInProgress}
		} else {
			filter.Statuses = []domain.IncidentStatus{status}
		}
	}

	if dept, ok := domain.ParseDepartment(q.Department); ok {
		code := string(dept)
		filter.Department = &code
		applied.Department = &dept
	}
	filter.LaptopModel = nonBlank(q.LaptopModel)
	filter.LaptopSerial = nonBlank(q.Serial)
	filter.Username = nonBlank(q.Username)

	applied.FullHistory = q.FullHistory && (filter.LaptopSerial != nil || filter.Username != nil)
	if applied.FullHistory {
		return filter, applied
	}

	from, fromOK := s.parseDate(q.DateFrom)
	to, toOK := s.parseDate(q.DateTo)
	if fromOK || toOK {
		applied.Period = ""
		if fromOK {
			filter.CreatedFrom = &from
		}
		if toOK {
			before := to.AddDate(0, 0, 1)
			filter.CreatedBefore = &before
		}
	} else if start, end, period, ok := s.periodBounds(q.Period); ok {
		applied.Period = period
		filter.CreatedFrom = &start
		filter.CreatedBefore = &end
	}
	applied.From = filter.CreatedFrom
	applied.Before = filter.CreatedBefore
	return filter, applied
}

// periodBounds returns [start, end) for a calendar period in the service location.
func (s *DashboardService) periodBounds(period string) (time.Time, time.Time, string, bool) {
	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)

	switch strings.ToLower(strings.TrimSpace(period)) {
	case PeriodToday:
		return today, today.AddDate(0, 0, 1), PeriodToday, true
	case PeriodWeek, "this-week", "this_week":
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), PeriodWeek, true
	case PeriodMonth, "this-month", "this_month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)
		return start, start.AddDate(0, 1, 0), PeriodMonth, true
	}
	return time.Time{}, time.Time{}, "", false
}

func (s *DashboardService) parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, s.location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func summarize(counts map[domain.IncidentStatus]int) DashboardCounts {
	result := DashboardCounts{
		InProgress: counts[domain.StatusInProgress],
		Resolved:   counts[domain.StatusResolved],
		Closed:     counts[domain.StatusClosed],
	}
	result.Open = counts[domain.StatusOpen] + result.InProgress
	for _, n := range counts {
		result.Total += n
	}
	return result
}

func nonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
