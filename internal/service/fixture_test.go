package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/it-helpdesk/internal/auth"
	"github.com/spec-kit/it-helpdesk/internal/classifier"
	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/events"
	"github.com/spec-kit/it-helpdesk/internal/repository/memory"
)

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) Subscribe(events.EventType, events.EventHandler) {}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	t        *testing.T
	now      time.Time
	store    *memory.Store
	sessions *memory.SessionRegistry
	events   *recorder

	incidents *IncidentService
	comments  *CommentService
	acks      *AcknowledgmentService
	dashboard *DashboardService
	quarant   *QuarantineService
	auth      *AuthService
	profiles  *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		now:    time.Date(2024, 6, 12, 10, 30, 0, 0, time.UTC), // a Wednesday
		events: &recorder{},
	}
	clock := func() time.Time { return f.now }
	f.store = memory.New(memory.WithClock(clock))
	f.sessions = memory.NewSessionRegistry(clock)

	f.incidents = NewIncidentService(IncidentDependencies{
		IncidentRepo:   f.store.Incidents(),
		UserRepo:       f.store.Users(),
		ProfileRepo:    f.store.Profiles(),
		CommentRepo:    f.store.Comments(),
		AttachmentRepo: f.store.Attachments(),
		HistoryRepo:    f.store.History(),
		Classifier:     classifier.NewDefault(),
		Dispatcher:     f.events,
		Clock:          clock,
	})
	f.comments = NewCommentService(CommentDependencies{
		IncidentRepo: f.store.Incidents(),
		CommentRepo:  f.store.Comments(),
		Clock:        clock,
	})
	f.acks = NewAcknowledgmentService(AcknowledgmentDependencies{
		IncidentRepo: f.store.Incidents(),
		UserRepo:     f.store.Users(),
		HistoryRepo:  f.store.History(),
		Dispatcher:   f.events,
		Clock:        clock,
	})
	f.dashboard = NewDashboardService(DashboardDependencies{
		IncidentRepo: f.store.Incidents(),
		Clock:        clock,
		Location:     time.UTC,
	})
	f.quarant = NewQuarantineService(QuarantineDependencies{
		UserRepo:   f.store.Users(),
		Sessions:   f.sessions,
		Dispatcher: f.events,
	})
	f.auth = NewAuthService(AuthDependencies{
		UserRepo:     f.store.Users(),
		ProfileRepo:  f.store.Profiles(),
		Sessions:     f.sessions,
		TokenManager: auth.NewTokenManager("test-secret", time.Hour),
		BcryptCost:   bcrypt.MinCost,
		Clock:        clock,
	})
	f.profiles = NewProfileService(f.store.Profiles())
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) user(username string, role domain.UserRole) *domain.User {
	f.t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", Role: role, Active: true}
	require.NoError(f.t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) employee(username string, dept domain.Department, model, serial string) *domain.User {
	f.t.Helper()
	u := f.user(username, domain.RoleEmployee)
	require.NoError(f.t, f.store.Profiles().Upsert(context.Background(), &domain.Profile{
		UserID:       u.ID,
		Department:   &dept,
		LaptopModel:  &model,
		LaptopSerial: &serial,
	}))
	return u
}

func (f *fixture) incident(reporter *domain.User, title string) *domain.Incident {
	f.t.Helper()
	inc, err := f.incidents.CreateIncident(context.Background(), CreateIncidentInput{
		ReporterID: reporter.ID,
		Title:      title,
		Channel:    domain.ChannelWeb,
	})
	require.NoError(f.t, err)
	return inc
}
