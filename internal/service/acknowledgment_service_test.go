package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/events"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

func TestAcknowledgeEscalatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.user("emp", domain.RoleEmployee)
	staff := f.user("it", domain.RoleITStaff)
	inc := f.incident(emp, "laptop overheating")

	res, err := f.acks.Acknowledge(ctx, UserActor(staff), inc.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyAcknowledged)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, domain.StatusInProgress, res.Incident.Status)
	assert.True(t, res.Incident.ITAcknowledged)
	assert.Equal(t, staff.ID, *res.Incident.ITAcknowledgedBy)
	assert.Equal(t, f.now, *res.Incident.ITAcknowledgedAt)

	f.advance(time.Hour)
	again, err := f.acks.Acknowledge(ctx, AutomationActor(""), inc.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyAcknowledged)
	assert.False(t, again.StatusChanged)
	assert.Equal(t, staff.ID, *again.Incident.ITAcknowledgedBy)

	assert.Len(t, f.events.ofType(events.EventIncidentAcknowledged), 1)
	history, err := f.store.History().ListByIncident(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChangeTypeAcknowledged, history[0].ChangeType)
}

func TestAcknowledgeClosedIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.user("emp", domain.RoleEmployee)
	staff := f.user("it", domain.RoleITStaff)
	inc := f.incident(emp, "old issue")
	_, err := f.incidents.UpdateByStaff(ctx, staff, inc.ID, StaffUpdateInput{Status: "Closed"})
	require.NoError(t, err)

	res, err := f.acks.Acknowledge(ctx, AutomationActor(""), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, res.Incident.Status)
	assert.False(t, res.Incident.ITAcknowledged)
}

func TestAcknowledgeRejectsEmployeesAndUnknownIncidents(t *testing.T) {
	f := newFixture(t)
	emp := f.user("emp", domain.RoleEmployee)
	inc := f.incident(emp, "mouse broken")

	_, err := f.acks.Acknowledge(context.Background(), UserActor(emp), inc.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = f.acks.Acknowledge(context.Background(), AutomationActor(""), 4242)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestLeaveStatusMessageAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.user("emp", domain.RoleEmployee)
	inc := f.incident(emp, "vpn failing")

	res, err := f.acks.LeaveStatusMessage(ctx, AutomationActor("ScanBot"), inc.ID, " scan started ")
	require.NoError(t, err)
	assert.Equal(t, "[2024-06-12 10:30] ScanBot: scan started", res.Line)
	assert.True(t, res.Acknowledged)
	assert.Nil(t, res.Incident.ITAcknowledgedBy)
	assert.Equal(t, domain.StatusInProgress, res.Incident.Status)

	f.advance(5 * time.Minute)
	res, err = f.acks.LeaveStatusMessage(ctx, AutomationActor(""), inc.ID, "clean")
	require.NoError(t, err)
	assert.False(t, res.Acknowledged)
	assert.Equal(t,
		"[2024-06-12 10:30] ScanBot: scan started\n[2024-06-12 10:35] IT Automation: clean",
		res.Incident.ITStatusMessage)

	_, err = f.acks.LeaveStatusMessage(ctx, AutomationActor(""), inc.ID, "  ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestResolveAutomationActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.user("helpdesk", domain.RoleITStaff)
	f.user("plain", domain.RoleEmployee)

	actor, err := f.acks.ResolveAutomationActor(ctx, "HelpDesk")
	require.NoError(t, err)
	assert.Equal(t, staff.ID, *actor.UserID())

	actor, err = f.acks.ResolveAutomationActor(ctx, "plain")
	require.NoError(t, err)
	assert.True(t, actor.IsAutomation())
	assert.Equal(t, "plain", actor.Label)

	actor, err = f.acks.ResolveAutomationActor(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, AutomationLabel, actor.Label)
}
