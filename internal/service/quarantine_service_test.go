package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/events"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

func (f *fixture) putSession(key string, userID int64, expiresAt time.Time) {
	f.t.Helper()
	raw, err := repository.EncodeSession(domain.Session{Key: key, UserID: userID, IssuedAt: f.now, ExpiresAt: expiresAt})
	require.NoError(f.t, err)
	require.NoError(f.t, f.sessions.Put(context.Background(), raw))
}

func TestQuarantineRevokesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	victim := f.user("victim", domain.RoleEmployee)
	bystander := f.user("bystander", domain.RoleEmployee)

	f.putSession("a", victim.ID, f.now.Add(time.Hour))
	f.putSession("b", victim.ID, f.now.Add(2*time.Hour))
	f.putSession("c", bystander.ID, f.now.Add(time.Hour))
	f.putSession("old", bystander.ID, f.now.Add(-time.Minute))
	require.NoError(t, f.sessions.Put(ctx, repository.RawSession{
		Key: "garbled", Payload: []byte("not-json"), ExpiresAt: f.now.Add(time.Hour),
	}))

	res, err := f.quarant.Quarantine(ctx, victim.ID)
	require.NoError(t, err)
	assert.Equal(t, "victim", res.Username)
	assert.True(t, res.AccountWasActive)
	assert.False(t, res.AccountNowActive)
	assert.Equal(t, 2, res.SessionsDeleted)
	assert.Equal(t, 1, res.DecodeWarnings)
	assert.Equal(t, 1, res.ExpiredSessionsPurged)

	_, err = f.sessions.Get(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	_, err = f.sessions.Get(ctx, "c")
	assert.NoError(t, err)

	got, err := f.store.Users().GetByID(ctx, victim.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	quarantined := f.events.ofType(events.EventUserQuarantined)
	require.Len(t, quarantined, 1)
	assert.Equal(t, 2, quarantined[0].Payload.(events.UserQuarantinedPayload).SessionsDeleted)
}

func TestQuarantineIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	victim := f.user("victim", domain.RoleEmployee)

	_, err := f.quarant.Quarantine(ctx, victim.ID)
	require.NoError(t, err)
	again, err := f.quarant.Quarantine(ctx, victim.ID)
	require.NoError(t, err)
	assert.False(t, again.AccountWasActive)
	assert.False(t, again.AccountNowActive)
	assert.Zero(t, again.SessionsDeleted)

	_, err = f.quarant.Quarantine(ctx, 999999)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestQuarantineBlocksLoginAndUnfreezeRestores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, _, err := f.auth.Register(ctx, RegisterInput{Username: "dana", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = f.quarant.Quarantine(ctx, user.ID)
	require.NoError(t, err)
	_, _, err = f.auth.Login(ctx, "dana", "correct-horse")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	restored, err := f.quarant.Unfreeze(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, restored.Active)
	_, _, err = f.auth.Login(ctx, "dana", "correct-horse")
	assert.NoError(t, err)
}

func TestParseUserID(t *testing.T) {
	valid := map[string]any{
		"int":         42,
		"float":       float64(42),
		"string":      " 42 ",
		"json number": json.Number("42"),
	}
	for name, raw := range valid {
		t.Run(name, func(t *testing.T) {
			id, err := ParseUserID(raw)
			require.NoError(t, err)
			assert.Equal(t, int64(42), id)
		})
	}

	for _, raw := range []any{nil, 0, -3, 1.5, "abc", "", true} {
		_, err := ParseUserID(raw)
		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
		assert.Equal(t, "user_id", domainErr.Details["field"])
	}
}
