package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/notifier"
	"github.com/yigit/handbook/internal/pkg/apperrors"
)

type createAnnouncements []dto.AnnouncementInput

func (c createAnnouncements) request() *dto.CreateAnnouncementsRequest {
	return &dto.CreateAnnouncementsRequest{Announcements: c}
}

func TestCreateAnnouncementsFiltersAndDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.announcements.Create(ctx, createAnnouncements{
		{Title: " Exams ", Content: " Week 12 "},
		{Title: "", Content: "no title"},
		{Title: "no content", Content: "  "},
	}.request())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Exams", created[0].Title)
	assert.Equal(t, "Week 12", created[0].Content)
	assert.Equal(t, DefaultAnnouncementCreator, created[0].CreatedBy)
	assert.Equal(t, DefaultAnnouncementName, created[0].CreatedByName)
	assert.Equal(t, "March 1, 2025", created[0].Date)

	require.Len(t, env.dispatcher.events, 1)
	assert.Equal(t, notifier.KindAnnouncementCreated, env.dispatcher.events[0].Kind)
	assert.Equal(t, []string{created[0].ID}, env.dispatcher.events[0].AnnouncementIDs)

	_, err = env.announcements.Create(ctx, createAnnouncements{{Title: " "}}.request())
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestListAnnouncementsSortAndLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := env.announcements.Create(ctx, createAnnouncements{{Title: title, Content: "c"}}.request())
		require.NoError(t, err)
	}

	list, err := env.announcements.List(ctx, &dto.AnnouncementListQuery{Limit: 2, Sort: "desc"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Title)

	list, err = env.announcements.List(ctx, &dto.AnnouncementListQuery{Sort: "asc"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Title)
}

func TestUpdateAndDeleteAnnouncement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.announcements.Create(ctx, createAnnouncements{{Title: "Old", Content: "c"}}.request())
	require.NoError(t, err)
	id := created[0].ID

	updated, err := env.announcements.Update(ctx, id, &dto.UpdateAnnouncementRequest{Title: "New", Content: "c2", IsImportant: true})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.True(t, updated.IsImportant)
	assert.NotNil(t, updated.UpdatedAt)

	_, err = env.announcements.Update(ctx, id, &dto.UpdateAnnouncementRequest{Title: "New"})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
	_, err = env.announcements.Update(ctx, "missing", &dto.UpdateAnnouncementRequest{Title: "a", Content: "b"})
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	require.NoError(t, env.announcements.Delete(ctx, id))
	assert.True(t, errors.Is(env.announcements.Delete(ctx, id), apperrors.ErrResourceNotFound))
}
