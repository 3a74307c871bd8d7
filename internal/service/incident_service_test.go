package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/events"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

func TestCreateIncidentDefaultsAndSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.employee("ana", domain.DepartmentFinance, "ThinkPad T14", "SN-42")

	inc, err := f.incidents.CreateIncident(ctx, CreateIncidentInput{
		ReporterID: emp.ID,
		Title:      "  wifi slow ",
		Channel:    domain.ChannelWeb,
		Attachment: &AttachmentInput{FileName: "log.txt", FileURL: "https://files/log.txt", FileHash: "abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "wifi slow", inc.Title)
	assert.Equal(t, domain.StatusOpen, inc.Status)
	assert.Equal(t, "No description provided.", inc.Description)
	assert.Equal(t, "FIN", *inc.Department)
	assert.Equal(t, "SN-42", *inc.LaptopSerial)
	require.NotNil(t, inc.Category)
	assert.Equal(t, "Network", *inc.Category)
	assert.Nil(t, inc.ResolvedAt)

	created := f.events.ofType(events.EventIncidentCreated)
	require.Len(t, created, 1)
	payload := created[0].Payload.(events.IncidentCreatedPayload)
	assert.Equal(t, "ana", payload.ReporterName)
	assert.Equal(t, "abc", *payload.AttachmentHash)

	// later profile edits never reach the incident
	_, err = f.profiles.Update(ctx, emp.ID, ProfileInput{Department: "HR", LaptopSerial: "SN-99"})
	require.NoError(t, err)
	got, err := f.store.Incidents().GetByID(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, "FIN", *got.Department)
	assert.Equal(t, "SN-42", *got.LaptopSerial)
}

func TestCreateIncidentExternalDescriptionAndSelfFix(t *testing.T) {
	f := newFixture(t)
	emp := f.user("noprofile", domain.RoleEmployee)

	inc, err := f.incidents.CreateIncident(context.Background(), CreateIncidentInput{
		ReporterID: emp.ID,
		Title:      "printer jam",
		Channel:    domain.ChannelExternal,
		SelfFixed:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Reported via automation.", inc.Description)
	assert.Equal(t, domain.StatusResolved, inc.Status)
	require.NotNil(t, inc.ResolvedAt)
	assert.Equal(t, inc.CreatedAt, *inc.ResolvedAt)
	assert.Nil(t, inc.Department)
}

func TestCreateIncidentTitleValidation(t *testing.T) {
	f := newFixture(t)
	emp := f.user("bob", domain.RoleEmployee)

	longTitle := "printer " + strings.Repeat("x", domain.MaxTitleLength)
	for _, title := range []string{"   ", strings.Repeat("word ", 11), longTitle} {
		_, err := f.incidents.CreateIncident(context.Background(), CreateIncidentInput{ReporterID: emp.ID, Title: title})
		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
		assert.Equal(t, "title", domainErr.Details["field"])
	}

	list, err := f.store.Incidents().List(context.Background(), repository.IncidentFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.incidents.CreateIncident(context.Background(), CreateIncidentInput{ReporterID: 999, Title: "x"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	atLimit := strings.Repeat("é", domain.MaxTitleLength)
	incident, err := f.incidents.CreateIncident(context.Background(), CreateIncidentInput{ReporterID: emp.ID, Title: atLimit})
	require.NoError(t, err)
	assert.Equal(t, atLimit, incident.Title)
}

func TestUpdateByStaffLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.user("emp", domain.RoleEmployee)
	staff := f.user("it", domain.RoleITStaff)
	inc := f.incident(emp, "monitor flickers")

	_, err := f.incidents.UpdateByStaff(ctx, emp, inc.ID, StaffUpdateInput{Status: "Resolved"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = f.incidents.UpdateByStaff(ctx, staff, inc.ID, StaffUpdateInput{Status: "Pending"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pending")

	resolved, err := f.incidents.UpdateByStaff(ctx, staff, inc.ID, StaffUpdateInput{Status: "Self-Fixed"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, resolved.Status)
	firstResolved := *resolved.ResolvedAt

	f.advance(time.Hour)
	response := "replaced cable"
	closed, err := f.incidents.UpdateByStaff(ctx, staff, inc.ID, StaffUpdateInput{Status: "Closed", AdminResponse: &response})
	require.NoError(t, err)
	assert.Equal(t, firstResolved, *closed.ResolvedAt)
	assert.Equal(t, staff.ID, *closed.ResolvedBy)

	_, err = f.incidents.UpdateByStaff(ctx, staff, inc.ID, StaffUpdateInput{Status: "Open"})
	require.Error(t, err)
	assert.Equal(t, "incident is closed", apperrors.ToDomainError(err).Message)

	history, err := f.incidents.History(ctx, staff, inc.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Len(t, f.events.ofType(events.EventIncidentStatusChanged), 2)

	_, err = f.incidents.UpdateByStaff(ctx, staff, 12345, StaffUpdateInput{Status: "Open"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestAdminResponseWithoutStatusChange(t *testing.T) {
	f := newFixture(t)
	emp := f.user("emp", domain.RoleEmployee)
	staff := f.user("it", domain.RoleAdmin)
	inc := f.incident(emp, "slow laptop")

	response := "looking into it"
	updated, err := f.incidents.UpdateByStaff(context.Background(), staff, inc.ID, StaffUpdateInput{AdminResponse: &response})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, updated.Status)
	assert.Equal(t, "looking into it", *updated.AdminResponse)
	assert.Empty(t, f.events.ofType(events.EventIncidentStatusChanged))
}

func TestReporterViewsAndUnreadCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.user("emp", domain.RoleEmployee)
	other := f.user("other", domain.RoleEmployee)
	staff := f.user("it", domain.RoleITStaff)

	first := f.incident(emp, "first")
	f.advance(time.Minute)
	second := f.incident(emp, "second")

	f.advance(time.Minute)
	_, err := f.comments.AddComment(ctx, staff, first.ID, "on it")
	require.NoError(t, err)

	list, err := f.incidents.ListForReporter(ctx, emp, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 1, list[1].UnreadComments)

	open, err := f.incidents.OpenCount(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, open)

	_, err = f.incidents.GetDetail(ctx, other, first.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	f.advance(time.Minute)
	detail, err := f.incidents.GetDetail(ctx, emp, first.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Comments, 1)
	assert.Equal(t, "emp", detail.Reporter.Username)

	unread, err := f.comments.UnreadCount(ctx, emp, first.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	_, err = f.incidents.History(ctx, emp, first.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}
