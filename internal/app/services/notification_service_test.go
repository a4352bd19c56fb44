package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/app/notifier"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/queue"
)

func TestEmitStoresUnknownTypeAsOther(t *testing.T) {
	env := newTestEnv(t)

	n, err := env.notifications.Emit(context.Background(), EmitInput{
		RecipientKey: studentS,
		Title:        "Profile",
		Type:         "profile_update",
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationOther, n.Type)
	assert.False(t, n.Read)
	assert.Nil(t, n.RelatedID)
	assert.Nil(t, n.BadgeColor)

	_, err = env.notifications.Emit(context.Background(), EmitInput{Title: "no recipient"})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestEmitBatchChunksLargeFanOut(t *testing.T) {
	env := newTestEnv(t)

	inputs := make([]EmitInput, 0, 2500)
	for i := 0; i < 2500; i++ {
		inputs = append(inputs, EmitInput{RecipientKey: fmt.Sprintf("stu-%d", i), Title: "x", Type: models.NotificationAnnouncement})
	}
	inputs = append(inputs, EmitInput{RecipientKey: "  "})

	written, err := env.notifications.EmitBatch(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, 2500, written)
	assert.Equal(t, 3, env.notifRepo.batches)
}

func TestEmitBatchSkipsKnownDedupKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inputs := []EmitInput{
		{RecipientKey: studentS, Title: "New Announcement", Type: models.NotificationAnnouncement, DedupKey: "evt-1|stu-1"},
		{RecipientKey: studentS, Title: "New Announcement", Type: models.NotificationAnnouncement, DedupKey: "evt-1|stu-1"},
		{RecipientKey: studentT, Title: "New Announcement", Type: models.NotificationAnnouncement, DedupKey: "evt-1|stu-2"},
	}

	written, err := env.notifications.EmitBatch(ctx, inputs)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	written, err = env.notifications.EmitBatch(ctx, inputs)
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Len(t, env.notifRepo.forRecipient(studentS), 1)
	assert.Len(t, env.notifRepo.forRecipient(studentT), 1)
}

func TestAnnouncementFanOutRetryWritesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 3; i <= 702; i++ {
		env.participants.users = append(env.participants.users, &models.User{
			ID: fmt.Sprintf("stu-%d", i), Email: fmt.Sprintf("s%d@school.edu", i), FirstName: "S", LastName: "T", Role: models.RoleUser,
		})
	}
	require.NoError(t, env.announceRepo.CreateBatch(ctx, []*models.Announcement{
		{ID: "ann-1", Title: "Enrollment", Content: "Opens Monday"},
		{ID: "ann-2", Title: "Library", Content: "Closed Friday"},
	}))

	// 1404 rows: the second multi-row insert fails after the first committed
	env.notifRepo.failBatch = 2
	env.notifRepo.failBatchErr = apperrors.NewUnavailableError("database unavailable", errors.New("dial tcp"))

	payload, err := json.Marshal(notifier.Event{ID: "evt-1", Kind: notifier.KindAnnouncementCreated, AnnouncementIDs: []string{"ann-1", "ann-2"}})
	require.NoError(t, err)
	task := queue.Task{Type: notifier.TaskType, Payload: payload}
	handle := notifier.TaskHandler(env.dispatcher.handler, zerolog.Nop())

	assert.Error(t, handle(ctx, task), "unavailable store is handed back for retry")
	require.NoError(t, handle(ctx, task))

	for _, student := range []string{studentS, studentT, "stu-702"} {
		assert.Len(t, env.notifRepo.forRecipient(student), 2, student)
	}
	assert.Len(t, env.notifRepo.items, 1404)
}

func TestListNewestFirstAcrossAliases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, key := range []string{studentS, emailS, studentNo, studentT} {
		_, err := env.notifications.Emit(ctx, EmitInput{RecipientKey: key, Title: "to " + key, Type: models.NotificationMessage})
		require.NoError(t, err)
	}

	list, err := env.notifications.List(ctx, emailS)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 3)
	assert.Equal(t, 3, list.UnreadCount)
	assert.Equal(t, "to "+studentNo, list.Notifications[0].Title)
	assert.Equal(t, "to "+studentS, list.Notifications[2].Title)
	for _, n := range list.Notifications {
		assert.True(t, n.IsNew)
	}

	_, err = env.notifications.List(ctx, "")
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestMarkNotificationsRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := env.notifications.Emit(ctx, EmitInput{RecipientKey: studentS, Title: "n", Type: models.NotificationMessage})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	_, err := env.notifications.MarkRead(ctx, studentS, nil, false)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	updated, err := env.notifications.MarkRead(ctx, studentS, ids[:1], false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	updated, err = env.notifications.MarkRead(ctx, studentNo, nil, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	updated, err = env.notifications.MarkRead(ctx, studentS, nil, true)
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated)

	list, err := env.notifications.List(ctx, studentS)
	require.NoError(t, err)
	assert.Equal(t, 0, list.UnreadCount)
	for _, n := range list.Notifications {
		assert.NotNil(t, n.ReadAt)
		assert.False(t, n.IsNew)
	}
}

func TestDeleteAllAndPurgeRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	old, err := env.notifications.Emit(ctx, EmitInput{RecipientKey: studentT, Title: "old", Type: models.NotificationMessage})
	require.NoError(t, err)
	_, err = env.notifications.Emit(ctx, EmitInput{RecipientKey: studentT, Title: "unread", Type: models.NotificationMessage})
	require.NoError(t, err)
	_, err = env.notifications.MarkRead(ctx, studentT, []string{old.ID}, false)
	require.NoError(t, err)

	purged, err := env.notifications.PurgeRead(ctx, env.clock.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = env.notifications.Emit(ctx, EmitInput{RecipientKey: studentS, Title: "keep", Type: models.NotificationMessage})
	require.NoError(t, err)

	deleted, err := env.notifications.DeleteAll(ctx, studentT)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	assert.Len(t, env.notifRepo.items, 1)
}

func TestAnnouncementFanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.announcements.Create(ctx, createAnnouncements{
		{Title: "Enrollment", Content: "Opens Monday", IsImportant: true},
		{Title: "Library", Content: "Closed Friday"},
	}.request())
	require.NoError(t, err)
	require.Len(t, created, 2)

	for _, student := range []string{studentS, studentT} {
		inbox := env.notifRepo.forRecipient(student)
		require.Len(t, inbox, 2, student)
		byRelated := map[string]*models.Notification{}
		for _, n := range inbox {
			assert.Equal(t, "New Announcement", n.Title)
			assert.Equal(t, models.NotificationAnnouncement, n.Type)
			byRelated[*n.RelatedID] = n
		}
		assert.Equal(t, "🔔 Important: Enrollment", byRelated[created[0].ID].Description)
		assert.Equal(t, models.BadgeImportant, *byRelated[created[0].ID].BadgeColor)
		assert.Equal(t, "Library", byRelated[created[1].ID].Description)
		assert.Equal(t, models.BadgeAnnouncement, *byRelated[created[1].ID].BadgeColor)
	}
	assert.Empty(t, env.notifRepo.forRecipient(adminID))
}

func TestHandlerRejectsUnknownEvent(t *testing.T) {
	env := newTestEnv(t)
	err := env.dispatcher.handler.Handle(context.Background(), notifier.Event{Kind: "message.pinned"})
	assert.Error(t, err)
}

func TestHandlerReplyToMissingMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	missing := "gone"
	msg := &models.Message{ID: "m1", SenderID: adminID, ReceiverID: studentS, SenderName: "Admin", Text: "hi", RepliedTo: &missing}
	require.NoError(t, env.messagesRepo.Create(ctx, msg))

	require.NoError(t, env.dispatcher.handler.Handle(ctx, notifier.Event{Kind: notifier.KindMessageSent, MessageID: "m1"}))
	assert.Equal(t, []string{"New Message"}, titles(env.notifRepo.forRecipient(studentS)))
}
