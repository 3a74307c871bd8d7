package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

func TestRegisterLoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, session, err := f.auth.Register(ctx, RegisterInput{Username: "maria", Email: "maria@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, user.Role)
	assert.NotEmpty(t, session.Token)

	profile, err := f.store.Profiles().GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, profile.Department)

	_, _, err = f.auth.Register(ctx, RegisterInput{Username: "MARIA", Password: "another-pass"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, _, err = f.auth.Login(ctx, "maria", "wrong-pass")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
	_, _, err = f.auth.Login(ctx, "nobody", "s3cret-pass")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, second, err := f.auth.Login(ctx, "maria", "s3cret-pass")
	require.NoError(t, err)
	raw, err := f.sessions.Get(ctx, second.SessionKey)
	require.NoError(t, err)
	decoded, err := repository.DecodeSession(*raw)
	require.NoError(t, err)
	assert.Equal(t, user.ID, decoded.UserID)

	require.NoError(t, f.auth.Logout(ctx, second.SessionKey))
	_, err = f.sessions.Get(ctx, second.SessionKey)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.auth.Register(context.Background(), RegisterInput{Username: "short", Password: "abc"})
	require.Error(t, err)
	assert.Equal(t, "password", apperrors.ToDomainError(err).Details["field"])
}

func TestRegisterEnforcesPasswordPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, password := range []string{"12345678", "password", "80417352", "alice123"} {
		_, _, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: password})
		require.Error(t, err, password)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, apperrors.CodeValidation, domainErr.Code, password)
		assert.Equal(t, "password", domainErr.Details["field"], password)
	}

	_, err := f.store.Users().GetByUsername(ctx, "alice")
	assert.True(t, apperrors.IsNoRows(err))
}

func TestChangePasswordRejectsPasswordLikeUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, _, err := f.auth.Register(ctx, RegisterInput{Username: "bob", Email: "robert@example.com", Password: "first-pass"})
	require.NoError(t, err)

	err = f.auth.ChangePassword(ctx, user.ID, "first-pass", "robert12")
	assert.Equal(t, "password", apperrors.ToDomainError(err).Details["field"])

	_, _, err = f.auth.CreateAdmin(ctx, "bob", "robert@example.com", "robert12")
	assert.Equal(t, "password", apperrors.ToDomainError(err).Details["field"])
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, _, err := f.auth.Register(ctx, RegisterInput{Username: "li", Password: "first-pass"})
	require.NoError(t, err)

	err = f.auth.ChangePassword(ctx, user.ID, "not-it", "second-pass")
	assert.Equal(t, "current_password", apperrors.ToDomainError(err).Details["field"])

	require.NoError(t, f.auth.ChangePassword(ctx, user.ID, "first-pass", "second-pass"))
	_, _, err = f.auth.Login(ctx, "li", "second-pass")
	assert.NoError(t, err)
}

func TestCreateAdminCreatesOrPromotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, created, err := f.auth.CreateAdmin(ctx, "root", "root@example.com", "admin-pass")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	existing := f.user("sam", domain.RoleEmployee)
	require.NoError(t, f.store.Users().SetActive(ctx, existing.ID, false))

	promoted, created, err := f.auth.CreateAdmin(ctx, "sam", "", "admin-pass")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, promoted.ID)
	assert.True(t, promoted.Active)
	assert.Equal(t, "sam@example.com", promoted.Email)

	_, _, err = f.auth.Login(ctx, "sam", "admin-pass")
	assert.NoError(t, err)
}
