package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/pkg/apperrors"
)

func TestGetThreadRedactsAndEnriches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	studentPicture := "https://cdn.example/ana.png"
	env.participants.users[0].ProfilePicture = &studentPicture

	hello := send(t, env, studentS, "admin", "Hello")
	reply := send(t, env, "admin", studentS, "Hi Ana")
	require.NoError(t, env.messages.SoftDelete(ctx, hello.ID, &dto.DeleteMessageRequest{DeletedBy: studentS, DeletedByName: "Ana Cruz"}))

	thread, err := env.conversations.GetThread(ctx, &dto.ConversationQuery{UserID: studentS})
	require.NoError(t, err)
	require.Len(t, thread, 2)

	assert.Equal(t, hello.ID, thread[0].ID)
	assert.True(t, thread[0].IsOutgoing, "user perspective is the default")
	assert.True(t, thread[0].Deleted)
	assert.Empty(t, thread[0].Text)
	assert.Empty(t, thread[0].Attachments)
	require.NotNil(t, thread[0].DeletedByName)
	assert.Equal(t, "Ana Cruz", *thread[0].DeletedByName)
	require.NotNil(t, thread[0].SenderProfilePicture)
	assert.Equal(t, studentPicture, *thread[0].SenderProfilePicture)

	assert.Equal(t, reply.ID, thread[1].ID)
	assert.False(t, thread[1].IsOutgoing)
	assert.Equal(t, "Hi Ana", thread[1].Text)
	require.NotNil(t, thread[1].SenderProfilePicture)
	assert.Equal(t, "https://cdn.example/admin.png", *thread[1].SenderProfilePicture)

	stored, err := env.messagesRepo.GetByID(ctx, hello.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", stored.Text)
}

func TestGetThreadAdminPerspective(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	send(t, env, studentS, "admin", "Hello")

	thread, err := env.conversations.GetThread(ctx, &dto.ConversationQuery{UserID: emailS, AdminID: adminID, Perspective: "admin"})
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.False(t, thread[0].IsOutgoing)
}

func TestGetThreadValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.conversations.GetThread(ctx, &dto.ConversationQuery{})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	_, err = env.conversations.GetThread(ctx, &dto.ConversationQuery{UserID: studentS, Perspective: "guest"})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestGetThreadPictureLookupMissIsLocal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	picture := "https://cdn.example/ana.png"
	env.participants.users[0].ProfilePicture = &picture

	// a legacy row stored under the student number has no record by id
	legacy := &models.Message{ID: "legacy", SenderID: studentNo, ReceiverID: "admin", Text: "old", CreatedAt: env.clock.Now()}
	require.NoError(t, env.messagesRepo.Create(ctx, legacy))
	send(t, env, studentS, "admin", "new")

	thread, err := env.conversations.GetThread(ctx, &dto.ConversationQuery{UserID: studentS})
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Nil(t, thread[0].SenderProfilePicture)
	require.NotNil(t, thread[1].SenderProfilePicture)
	assert.Equal(t, picture, *thread[1].SenderProfilePicture)
}

func TestTouchAndListChatUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.participants.users = append(env.participants.users,
		&models.User{ID: "stu-3", Email: "aaron@school.edu", FirstName: "Ana", LastName: "Abad", Role: models.RoleUser})

	require.NoError(t, env.presence.Touch(ctx, studentNo))

	err := env.presence.Touch(ctx, "ghost")
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
	err = env.presence.Touch(ctx, "")
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	users, err := env.presence.ListChatUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"stu-3", studentS, studentT}, []string{users[0].ID, users[1].ID, users[2].ID})
	assert.False(t, users[0].IsOnline)
	assert.True(t, users[1].IsOnline)
	assert.NotNil(t, users[1].LastActive)
	assert.False(t, users[2].IsOnline)
}

func TestChatUserGoesOfflineAfterThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale := env.clock.Now().Add(-models.OnlineThreshold - time.Minute)
	env.participants.users[0].LastActive = &stale

	users, err := env.presence.ListChatUsers(ctx)
	require.NoError(t, err)
	for _, u := range users {
		assert.False(t, u.IsOnline, u.ID)
	}
}
