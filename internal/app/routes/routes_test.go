package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/handbook/internal/app/controllers"
	"github.com/yigit/handbook/internal/middleware"
	"github.com/yigit/handbook/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// services are never reached in these tests: every request is answered by
// the router or the auth middleware
func newRouter(authMiddleware *middleware.AuthMiddleware) *gin.Engine {
	health := controllers.NewHealthController(nil)
	r := gin.New()
	SetupOps(r, health)
	SetupRouter(r, Controllers{
		Message:      controllers.NewMessageController(nil, nil),
		Notification: controllers.NewNotificationController(nil),
		User:         controllers.NewUserController(nil),
		Announcement: controllers.NewAnnouncementController(nil),
		Health:       health,
	}, authMiddleware)
	return r
}

func serve(r *gin.Engine, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestOpsEndpoints(t *testing.T) {
	r := newRouter(nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", ""))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", ""))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/health", ""))
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/nope", ""))
}

func TestProtectedRoutes(t *testing.T) {
	jwtSvc := auth.NewJWTService(auth.JWTConfig{SecretKey: "k", AccessTokenExp: time.Hour})
	r := newRouter(middleware.NewAuthMiddleware(jwtSvc))

	student, err := jwtSvc.GenerateToken("stu-1", "ana.cruz@school.edu", auth.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/health", ""), "health stays public")
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/messages?userId=stu-1", ""))

	adminOnly := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/messages/unread"},
		{http.MethodGet, "/api/v1/messages/latest"},
		{http.MethodGet, "/api/v1/users/chat"},
		{http.MethodPost, "/api/v1/announcements"},
		{http.MethodPatch, "/api/v1/announcements/a-1"},
		{http.MethodDelete, "/api/v1/announcements/a-1"},
	}
	for _, route := range adminOnly {
		assert.Equal(t, http.StatusForbidden, serve(r, route.method, route.path, student), route.path)
	}
}
