package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/services"
	"github.com/yigit/handbook/internal/middleware"
)

// UserController handles presence and the chat sidebar
type UserController struct {
	presenceService services.PresenceService
}

// NewUserController creates a new UserController
func NewUserController(presenceService services.PresenceService) *UserController {
	return &UserController{presenceService: presenceService}
}

// UpdatePresence godoc
// @Summary Mark a student active
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.PresenceRequest true "Student"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "User not found"
// @Router /users/presence [post]
func (c *UserController) UpdatePresence(ctx *gin.Context) {
	var req dto.PresenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	if err := c.presenceService.Touch(ctx.Request.Context(), req.UserID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Last active updated"}))
}

// GetChatUsers godoc
// @Summary List students for the chat sidebar
// @Description Students sorted by name, with the online flag derived from last activity
// @Tags users
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.ChatUserResponse}
// @Router /users/chat [get]
func (c *UserController) GetChatUsers(ctx *gin.Context) {
	users, err := c.presenceService.ListChatUsers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}
