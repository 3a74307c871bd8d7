package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/it-helpdesk/internal/app"
	"github.com/spec-kit/it-helpdesk/internal/config"
	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository/memory"
	"github.com/spec-kit/it-helpdesk/internal/service"
)

func newContainer(t *testing.T) *app.Container {
	t.Helper()
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "cli-secret", BcryptCost: bcrypt.MinCost}}
	return app.Wire(cfg, zap.NewNop(), app.MemoryRepositories(memory.New()), memory.NewSessionRegistry(nil))
}

func run(t *testing.T, c *app.Container, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	open := func(context.Context, *config.Config, *zap.Logger) (*app.Container, error) { return c, nil }
	err := New("test", &out, open).Run(context.Background(), append([]string{"helpdeskctl", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestCreateAdminThenPromote(t *testing.T) {
	c := newContainer(t)

	out, err := run(t, c, "create-admin", "--username", "root", "--password", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, "created admin root (id 1)\n", out)

	out, err = run(t, c, "create-admin", "--username", "ROOT", "--password", "another-secret")
	require.NoError(t, err)
	assert.Equal(t, "promoted root (id 1) to admin\n", out)

	user, err := c.Repos.Users.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestCreateAdminRejectsShortPassword(t *testing.T) {
	_, err := run(t, newContainer(t), "create-admin", "--username", "root", "--password", "short")
	assert.Error(t, err)
}

func TestQuarantineAndUnfreeze(t *testing.T) {
	c := newContainer(t)
	ctx := context.Background()
	user, _, err := c.Auth.Register(ctx, service.RegisterInput{Username: "mallory", Email: "m@example.com", Password: "password-123"})
	require.NoError(t, err)

	out, err := run(t, c, "quarantine", "--user-id", "1")
	require.NoError(t, err)
	var result service.QuarantineResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, user.ID, result.UserID)
	assert.True(t, result.AccountWasActive)
	assert.False(t, result.AccountNowActive)
	assert.Equal(t, 1, result.SessionsDeleted)

	out, err = run(t, c, "unfreeze", "--user-id", "1")
	require.NoError(t, err)
	assert.Equal(t, "user mallory (id 1) is active\n", out)
}

func TestQuarantineUnknownUser(t *testing.T) {
	_, err := run(t, newContainer(t), "quarantine", "--user-id", "42")
	assert.Error(t, err)
}

func TestMigrateRequiresPostgres(t *testing.T) {
	_, err := run(t, newContainer(t), "migrate")
	assert.EqualError(t, err, "migrate requires POSTGRES_DSN")
}

func TestClassify(t *testing.T) {
	out, err := run(t, newContainer(t), "classify", "--title", "forgot password", "--description", "account locked")
	require.NoError(t, err)
	assert.Contains(t, out, "Account\t")
}
