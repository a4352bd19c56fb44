package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/services"
	"github.com/yigit/handbook/internal/middleware"
)

// MessageController handles the admin/student conversation endpoints
type MessageController struct {
	messageService      services.MessageService
	conversationService services.ConversationService
}

// NewMessageController creates a new MessageController
func NewMessageController(messageService services.MessageService, conversationService services.ConversationService) *MessageController {
	return &MessageController{
		messageService:      messageService,
		conversationService: conversationService,
	}
}

// SendMessage godoc
// @Summary Send a message
// @Description Stores a message between a student and the admin and notifies the receiver
// @Tags messages
// @Accept json
// @Produce json
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Empty message or unknown participant"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Students can only message the admin"
// @Failure 503 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /messages [post]
func (c *MessageController) SendMessage(ctx *gin.Context) {
	var req dto.SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	msg, err := c.messageService.Send(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(msg))
}

// GetConversation godoc
// @Summary Get a conversation
// @Description Returns the thread between a student and the admin, oldest first, framed for the viewer. Deleted messages are redacted.
// @Tags messages
// @Produce json
// @Param userId query string true "Student reference (id, email or student number)"
// @Param adminId query string false "Admin reference"
// @Param perspective query string false "Viewer side" Enums(user, admin) default(user)
// @Success 200 {object} dto.APIResponse{data=[]dto.MessageResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 503 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /messages [get]
func (c *MessageController) GetConversation(ctx *gin.Context) {
	var query dto.ConversationQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	thread, err := c.conversationService.GetThread(ctx.Request.Context(), &query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(thread))
}

// EditMessage godoc
// @Summary Edit a message
// @Tags messages
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Param request body dto.EditMessageRequest true "New text"
// @Success 200 {object} dto.APIResponse{data=dto.EditedMessageResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Message not found"
// @Router /messages/{id} [put]
func (c *MessageController) EditMessage(ctx *gin.Context) {
	var req dto.EditMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	edited, err := c.messageService.Edit(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(edited))
}

// DeleteMessage godoc
// @Summary Soft delete a message
// @Description Flags the message as deleted and records who deleted it. Content is kept.
// @Tags messages
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Param request body dto.DeleteMessageRequest true "Deleter"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Message not found"
// @Router /messages/{id} [delete]
func (c *MessageController) DeleteMessage(ctx *gin.Context) {
	var req dto.DeleteMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	if err := c.messageService.SoftDelete(ctx.Request.Context(), ctx.Param("id"), &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Message deleted"}))
}

// ReactToMessage godoc
// @Summary Toggle a reaction
// @Description Adds the caller to the emoji's reaction, or removes them when already present
// @Tags messages
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Param request body dto.ReactRequest true "Reaction"
// @Success 200 {object} dto.APIResponse{data=dto.ReactionsResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Message not found"
// @Router /messages/{id}/reactions [post]
func (c *MessageController) ReactToMessage(ctx *gin.Context) {
	var req dto.ReactRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	reactions, err := c.messageService.React(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(reactions))
}

// MarkConversationRead godoc
// @Summary Mark a conversation read
// @Description Marks every unread message sent to the viewer in the conversation as read
// @Tags messages
// @Accept json
// @Produce json
// @Param request body dto.MarkReadRequest true "Conversation"
// @Success 200 {object} dto.APIResponse{data=dto.CountResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /messages/read [patch]
func (c *MessageController) MarkConversationRead(ctx *gin.Context) {
	var req dto.MarkReadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	updated, err := c.messageService.MarkRead(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CountResponse{UpdatedCount: updated}))
}

// GetUnreadCounts godoc
// @Summary Unread counts per student
// @Tags messages
// @Produce json
// @Param adminId query string false "Admin reference"
// @Success 200 {object} dto.APIResponse{data=dto.UnreadCountsResponse}
// @Router /messages/unread [get]
func (c *MessageController) GetUnreadCounts(ctx *gin.Context) {
	counts, err := c.messageService.UnreadCounts(ctx.Request.Context(), ctx.Query("adminId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.UnreadCountsResponse{UnreadCounts: counts}))
}

// GetLatestTimestamps godoc
// @Summary Latest message time per student
// @Tags messages
// @Produce json
// @Param adminId query string false "Admin reference"
// @Success 200 {object} dto.APIResponse{data=dto.LatestTimestampsResponse}
// @Router /messages/latest [get]
func (c *MessageController) GetLatestTimestamps(ctx *gin.Context) {
	timestamps, err := c.messageService.LatestTimestamps(ctx.Request.Context(), ctx.Query("adminId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.LatestTimestampsResponse{Timestamps: timestamps}))
}
