package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

func TestUnreadWatermark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.user("emp", domain.RoleEmployee)
	staff := f.user("it", domain.RoleITStaff)
	inc := f.incident(emp, "keyboard keys stuck")

	_, err := f.comments.AddComment(ctx, staff, inc.ID, "first")
	require.NoError(t, err)
	f.advance(time.Second)
	_, err = f.comments.AddComment(ctx, staff, inc.ID, "second")
	require.NoError(t, err)

	unread, err := f.comments.UnreadCount(ctx, emp, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	own, err := f.comments.UnreadCount(ctx, staff, inc.ID)
	require.NoError(t, err)
	assert.Zero(t, own)

	f.advance(time.Second)
	require.NoError(t, f.comments.MarkRead(ctx, emp, inc.ID))
	unread, err = f.comments.UnreadCount(ctx, emp, inc.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	f.advance(time.Second)
	_, err = f.comments.AddComment(ctx, staff, inc.ID, "third")
	require.NoError(t, err)
	counts, err := f.comments.UnreadCounts(ctx, emp, []int64{inc.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[inc.ID])
}

func TestAddCommentPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.user("emp", domain.RoleEmployee)
	stranger := f.user("stranger", domain.RoleEmployee)
	inc := f.incident(emp, "screen cracked")

	_, err := f.comments.AddComment(ctx, stranger, inc.ID, "me too")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = f.comments.AddComment(ctx, emp, inc.ID, "   ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	comments, err := f.store.Comments().ListByIncident(ctx, inc.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	c, err := f.comments.AddComment(ctx, emp, inc.ID, " any update? ")
	require.NoError(t, err)
	assert.Equal(t, "any update?", c.Message)
	assert.Equal(t, "emp", c.AuthorName)

	_, err = f.comments.AddComment(ctx, emp, 777, "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestCommentTimestampsFollowServiceClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.user("emp", domain.RoleEmployee)
	staff := f.user("it", domain.RoleITStaff)
	inc := f.incident(emp, "docking station offline")

	// the service clock runs behind the store's
	lagging := NewCommentService(CommentDependencies{
		IncidentRepo: f.store.Incidents(),
		CommentRepo:  f.store.Comments(),
		Clock:        func() time.Time { return f.now.Add(-5 * time.Second) },
	})

	c, err := lagging.AddComment(ctx, staff, inc.ID, "replacing the dock today")
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(-5*time.Second), c.CreatedAt)

	unread, err := lagging.UnreadCount(ctx, emp, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, lagging.MarkRead(ctx, emp, inc.ID))
	unread, err = lagging.UnreadCount(ctx, emp, inc.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	own, err := lagging.UnreadCount(ctx, staff, inc.ID)
	require.NoError(t, err)
	assert.Zero(t, own)
}
