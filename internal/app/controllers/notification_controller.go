package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/services"
	"github.com/yigit/handbook/internal/middleware"
)

// NotificationController serves the per-recipient notification feed
type NotificationController struct {
	notificationService services.NotificationService
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService services.NotificationService) *NotificationController {
	return &NotificationController{notificationService: notificationService}
}

// GetNotifications godoc
// @Summary List notifications
// @Description Newest first, across every alias of the recipient
// @Tags notifications
// @Produce json
// @Param userId query string true "Recipient reference"
// @Success 200 {object} dto.APIResponse{data=dto.NotificationListResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	var query dto.NotificationQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	list, err := c.notificationService.List(ctx.Request.Context(), query.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(list))
}

// MarkNotificationsRead godoc
// @Summary Mark notifications read
// @Description Marks the listed ids, or every unread notification when markAll is set
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body dto.MarkNotificationsReadRequest true "Selection"
// @Success 200 {object} dto.APIResponse{data=dto.CountResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notifications/read [patch]
func (c *NotificationController) MarkNotificationsRead(ctx *gin.Context) {
	var req dto.MarkNotificationsReadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	updated, err := c.notificationService.MarkRead(ctx.Request.Context(), req.UserID, req.IDs, req.MarkAll)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CountResponse{UpdatedCount: updated}))
}

// DeleteNotifications godoc
// @Summary Clear notifications
// @Tags notifications
// @Produce json
// @Param userId query string true "Recipient reference"
// @Success 200 {object} dto.APIResponse{data=dto.DeletedCountResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notifications [delete]
func (c *NotificationController) DeleteNotifications(ctx *gin.Context) {
	var query dto.NotificationQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	deleted, err := c.notificationService.DeleteAll(ctx.Request.Context(), query.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DeletedCountResponse{DeletedCount: deleted}))
}
