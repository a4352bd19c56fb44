package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/services"
	"github.com/yigit/handbook/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubMessageService struct {
	services.MessageService
	sent     *dto.SendMessageRequest
	sendErr  error
	deleted  string
	markRead *dto.MarkReadRequest
}

func (s *stubMessageService) Send(_ context.Context, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	s.sent = req
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &dto.MessageResponse{ID: "m-1", SenderID: req.SenderID, ReceiverID: req.ReceiverID, Text: req.Text}, nil
}

func (s *stubMessageService) SoftDelete(_ context.Context, id string, _ *dto.DeleteMessageRequest) error {
	if id == "missing" {
		return apperrors.ErrMessageNotFound
	}
	s.deleted = id
	return nil
}

func (s *stubMessageService) React(_ context.Context, _ string, req *dto.ReactRequest) (*dto.ReactionsResponse, error) {
	return &dto.ReactionsResponse{Reactions: []models.Reaction{{UserID: req.UserID, Emoji: req.Emoji}}}, nil
}

func (s *stubMessageService) MarkRead(_ context.Context, req *dto.MarkReadRequest) (int64, error) {
	s.markRead = req
	return 3, nil
}

func (s *stubMessageService) UnreadCounts(_ context.Context, _ string) (map[string]int64, error) {
	return nil, apperrors.NewUnavailableError("Message store unavailable", errors.New("dial tcp"))
}

type stubConversationService struct {
	query *dto.ConversationQuery
}

func (s *stubConversationService) GetThread(_ context.Context, q *dto.ConversationQuery) ([]dto.MessageResponse, error) {
	s.query = q
	return []dto.MessageResponse{{ID: "m-1", Deleted: true}}, nil
}

type stubNotificationService struct {
	services.NotificationService
	markAll bool
	ids     []string
}

func (s *stubNotificationService) List(_ context.Context, ref string) (*dto.NotificationListResponse, error) {
	return &dto.NotificationListResponse{
		Notifications: []dto.NotificationResponse{{ID: "n-1", Title: "New Message", IsNew: true}},
		UnreadCount:   1,
	}, nil
}

func (s *stubNotificationService) MarkRead(_ context.Context, ref string, ids []string, markAll bool) (int64, error) {
	if len(ids) == 0 && !markAll {
		return 0, apperrors.NewValidationError("ids", "ids or markAll is required")
	}
	s.ids, s.markAll = ids, markAll
	return 2, nil
}

func (s *stubNotificationService) DeleteAll(_ context.Context, ref string) (int64, error) {
	return 5, nil
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

func perform(t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func messageRouter(msgs *stubMessageService, conv *stubConversationService) *gin.Engine {
	c := NewMessageController(msgs, conv)
	r := gin.New()
	r.POST("/messages", c.SendMessage)
	r.GET("/messages", c.GetConversation)
	r.DELETE("/messages/:id", c.DeleteMessage)
	r.POST("/messages/:id/reactions", c.ReactToMessage)
	r.PATCH("/messages/read", c.MarkConversationRead)
	r.GET("/messages/unread", c.GetUnreadCounts)
	return r
}

func TestSendMessageCreated(t *testing.T) {
	msgs := &stubMessageService{}
	r := messageRouter(msgs, &stubConversationService{})

	code, env := perform(t, r, http.MethodPost, "/messages", map[string]string{
		"senderId": "2021-00123", "receiverId": "admin", "text": "Hello",
	})
	assert.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)

	var msg dto.MessageResponse
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "m-1", msg.ID)
	assert.Equal(t, "Hello", msgs.sent.Text)
}

func TestSendMessageErrors(t *testing.T) {
	msgs := &stubMessageService{}
	r := messageRouter(msgs, &stubConversationService{})

	code, env := perform(t, r, http.MethodPost, "/messages", map[string]string{"text": "Hello"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)
	assert.Nil(t, msgs.sent, "binding failures never reach the service")

	code, _ = perform(t, r, http.MethodPost, "/messages", map[string]string{
		"senderId": "a", "receiverId": "b", "perspective": "guest",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	msgs.sendErr = apperrors.ErrForbiddenConversation
	code, env = perform(t, r, http.MethodPost, "/messages", map[string]string{"senderId": "stu-1", "receiverId": "stu-2", "text": "hi"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, dto.ErrorCodeForbiddenConversation, env.Error.Code)

	msgs.sendErr = apperrors.ErrEmptyMessage
	code, env = perform(t, r, http.MethodPost, "/messages", map[string]string{"senderId": "stu-1", "receiverId": "admin"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, dto.ErrorCodeEmptyMessage, env.Error.Code)
}

func TestGetConversationBindsQuery(t *testing.T) {
	conv := &stubConversationService{}
	r := messageRouter(&stubMessageService{}, conv)

	code, env := perform(t, r, http.MethodGet, "/messages?userId=stu-1&adminId=admin&perspective=admin", nil)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, conv.query)
	assert.Equal(t, "stu-1", conv.query.UserID)
	assert.Equal(t, "admin", conv.query.Perspective)

	var thread []dto.MessageResponse
	require.NoError(t, json.Unmarshal(env.Data, &thread))
	assert.Len(t, thread, 1)

	code, _ = perform(t, r, http.MethodGet, "/messages", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDeleteReactAndMarkRead(t *testing.T) {
	msgs := &stubMessageService{}
	r := messageRouter(msgs, &stubConversationService{})

	code, _ := perform(t, r, http.MethodDelete, "/messages/m-1", map[string]string{"deletedBy": "admin"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "m-1", msgs.deleted)

	code, env := perform(t, r, http.MethodDelete, "/messages/missing", map[string]string{"deletedBy": "admin"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, dto.ErrorCodeMessageNotFound, env.Error.Code)

	code, env = perform(t, r, http.MethodPost, "/messages/m-1/reactions", map[string]string{"userId": "stu-1", "emoji": "👍"})
	assert.Equal(t, http.StatusOK, code)
	var reactions dto.ReactionsResponse
	require.NoError(t, json.Unmarshal(env.Data, &reactions))
	require.Len(t, reactions.Reactions, 1)
	assert.Equal(t, "👍", reactions.Reactions[0].Emoji)

	code, env = perform(t, r, http.MethodPatch, "/messages/read", map[string]string{"userId": "stu-1"})
	assert.Equal(t, http.StatusOK, code)
	var count dto.CountResponse
	require.NoError(t, json.Unmarshal(env.Data, &count))
	assert.EqualValues(t, 3, count.UpdatedCount)
}

func TestStoreOutageIs503(t *testing.T) {
	r := messageRouter(&stubMessageService{}, &stubConversationService{})

	code, env := perform(t, r, http.MethodGet, "/messages/unread", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, env.Success)
	assert.Equal(t, dto.ErrorCodeServiceUnavailable, env.Error.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	svc := &stubNotificationService{}
	c := NewNotificationController(svc)
	r := gin.New()
	r.GET("/notifications", c.GetNotifications)
	r.PATCH("/notifications/read", c.MarkNotificationsRead)
	r.DELETE("/notifications", c.DeleteNotifications)

	code, env := perform(t, r, http.MethodGet, "/notifications?userId=stu-1", nil)
	assert.Equal(t, http.StatusOK, code)
	var list dto.NotificationListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.UnreadCount)

	code, _ = perform(t, r, http.MethodGet, "/notifications", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = perform(t, r, http.MethodPatch, "/notifications/read", map[string]interface{}{"userId": "stu-1", "markAll": true})
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, svc.markAll)

	code, env = perform(t, r, http.MethodPatch, "/notifications/read", map[string]interface{}{"userId": "stu-1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ids", env.Error.Field)

	code, env = perform(t, r, http.MethodDelete, "/notifications?userId=stu-1", nil)
	assert.Equal(t, http.StatusOK, code)
	var deleted dto.DeletedCountResponse
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.EqualValues(t, 5, deleted.DeletedCount)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	healthy := NewHealthController(map[string]Pinger{"database": ok, "cache": ok})
	r := gin.New()
	r.GET("/health", healthy.Health)
	r.GET("/ping", healthy.Ping)

	code, env := perform(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "pong", w.Body.String())

	degraded := NewHealthController(map[string]Pinger{"database": down})
	degraded.timeout = time.Second
	r = gin.New()
	r.GET("/health", degraded.Health)

	code, env = perform(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "connection refused", health.Services["database"])
}
