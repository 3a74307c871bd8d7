package memory

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
)

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, store *Store, username string, dept domain.Department) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Role: domain.RoleEmployee, Active: true}
	require.NoError(t, store.Users().Create(context.Background(), user))
	require.NoError(t, store.Profiles().Upsert(context.Background(), &domain.Profile{UserID: user.ID, Department: &dept}))
	return user
}

func TestIncidentFilterMatchesSQLSemantics(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	store := New()
	repo := store.Incidents()

	alice := seedUser(t, store, "Alice", domain.DepartmentFinance)
	bob := seedUser(t, store, "bob", domain.DepartmentHR)

	require.NoError(t, repo.Create(ctx, &domain.Incident{UserID: alice.ID, Title: "a", Status: domain.StatusOpen,
		CreatedAt: base, LaptopModel: strPtr("ThinkPad X1"), LaptopSerial: strPtr("SN-001")}))
	require.NoError(t, repo.Create(ctx, &domain.Incident{UserID: alice.ID, Title: "b", Status: domain.StatusClosed,
		CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &domain.Incident{UserID: bob.ID, Title: "c", Status: domain.StatusInProgress,
		CreatedAt: base.Add(48 * time.Hour), LaptopModel: strPtr("MacBook")}))

	all, err := repo.List(ctx, repository.IncidentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Title)

	fin := "FIN"
	byDept, err := repo.List(ctx, repository.IncidentFilter{Department: &fin})
	require.NoError(t, err)
	assert.Len(t, byDept, 2)

	byModel, err := repo.List(ctx, repository.IncidentFilter{LaptopModel: strPtr("thinkpad")})
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, "a", byModel[0].Title)

	byUser, err := repo.List(ctx, repository.IncidentFilter{Username: strPtr("ALI")})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	before := base.Add(24 * time.Hour)
	window, err := repo.List(ctx, repository.IncidentFilter{CreatedFrom: &base, CreatedBefore: &before})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	counts, err := repo.CountByStatus(ctx, repository.IncidentFilter{
		Statuses: []domain.IncidentStatus{domain.StatusOpen},
	}.WithoutStatus())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.StatusOpen])
	assert.Equal(t, 1, counts[domain.StatusClosed])
	assert.Equal(t, 1, counts[domain.StatusInProgress])
}

func TestMutateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	store := New()
	user := seedUser(t, store, "carol", domain.DepartmentOps)
	incident := &domain.Incident{UserID: user.ID, Title: "x", Status: domain.StatusClosed}
	require.NoError(t, store.Incidents().Create(ctx, incident))

	_, err := store.Incidents().Mutate(ctx, incident.ID, func(i *domain.Incident) error {
		i.Title = "changed"
		return domain.ErrIncidentClosed
	})
	assert.ErrorIs(t, err, domain.ErrIncidentClosed)

	got, err := store.Incidents().GetByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)

	_, err = store.Incidents().GetByID(ctx, 999)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestUnreadCountsFollowWatermark(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := New(WithClock(func() time.Time { return now }))
	user := seedUser(t, store, "dave", domain.DepartmentIT)
	incident := &domain.Incident{UserID: user.ID, Title: "x", Status: domain.StatusOpen}
	require.NoError(t, store.Incidents().Create(ctx, incident))

	require.NoError(t, store.Comments().Create(ctx, &domain.Comment{IncidentID: incident.ID, AuthorID: user.ID, Message: "one"}))
	counts, err := store.Comments().CountUnread(ctx, user.ID, []int64{incident.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[incident.ID])

	require.NoError(t, store.Comments().MarkRead(ctx, user.ID, incident.ID, now))
	now = now.Add(time.Minute)
	require.NoError(t, store.Comments().Create(ctx, &domain.Comment{IncidentID: incident.ID, AuthorID: user.ID, Message: "two"}))

	counts, err = store.Comments().CountUnread(ctx, user.ID, []int64{incident.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[incident.ID])

	comments, err := store.Comments().ListByIncident(ctx, incident.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "dave", comments[0].AuthorName)
}

func TestSessionRegistryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := NewSessionRegistry(func() time.Time { return now })

	require.NoError(t, reg.Put(ctx, repository.RawSession{Key: "a", Payload: []byte(`{"user_id":1}`), ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, reg.Put(ctx, repository.RawSession{Key: "b", Payload: []byte(`{"user_id":2}`), ExpiresAt: now.Add(-time.Second)}))

	active, err := reg.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].Key)

	_, err = reg.Get(ctx, "b")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	purged, err := reg.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
}
