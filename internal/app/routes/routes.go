package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/handbook/internal/app/controllers"
	"github.com/yigit/handbook/internal/middleware"
	"github.com/yigit/handbook/internal/pkg/auth"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	Message      *controllers.MessageController
	Notification *controllers.NotificationController
	User         *controllers.UserController
	Announcement *controllers.AnnouncementController
	Health       *controllers.HealthController
}

// SetupRouter configures all application routes.
// A nil authMiddleware leaves the API open, for deployments behind a trusted gateway.
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")
	v1.GET("/health", c.Health.Health)

	api := v1.Group("")
	adminOnly := func() []gin.HandlerFunc { return nil }
	if authMiddleware != nil {
		api.Use(authMiddleware.JWTAuth())
		adminOnly = func() []gin.HandlerFunc {
			return []gin.HandlerFunc{authMiddleware.RoleRequired(auth.RoleAdmin)}
		}
	}

	messages := api.Group("/messages")
	{
		messages.POST("", c.Message.SendMessage)
		messages.GET("", c.Message.GetConversation)
		messages.PATCH("/read", c.Message.MarkConversationRead)
		messages.PUT("/:id", c.Message.EditMessage)
		messages.DELETE("/:id", c.Message.DeleteMessage)
		messages.POST("/:id/reactions", c.Message.ReactToMessage)

		inbox := messages.Group("", adminOnly()...)
		inbox.GET("/unread", c.Message.GetUnreadCounts)
		inbox.GET("/latest", c.Message.GetLatestTimestamps)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", c.Notification.GetNotifications)
		notifications.PATCH("/read", c.Notification.MarkNotificationsRead)
		notifications.DELETE("", c.Notification.DeleteNotifications)
	}

	users := api.Group("/users")
	{
		users.POST("/presence", c.User.UpdatePresence)
		users.GET("/chat", append(adminOnly(), c.User.GetChatUsers)...)
	}

	announcements := api.Group("/announcements")
	{
		announcements.GET("", c.Announcement.GetAnnouncements)

		manage := announcements.Group("", adminOnly()...)
		manage.POST("", c.Announcement.CreateAnnouncements)
		manage.PATCH("/:id", c.Announcement.UpdateAnnouncement)
		manage.DELETE("/:id", c.Announcement.DeleteAnnouncement)
	}
}
