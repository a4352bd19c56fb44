package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/services"
	"github.com/yigit/handbook/internal/middleware"
)

// AnnouncementController handles school announcements
type AnnouncementController struct {
	announcementService services.AnnouncementService
}

// NewAnnouncementController creates a new AnnouncementController
func NewAnnouncementController(announcementService services.AnnouncementService) *AnnouncementController {
	return &AnnouncementController{announcementService: announcementService}
}

// GetAnnouncements godoc
// @Summary List announcements
// @Tags announcements
// @Produce json
// @Param limit query int false "Maximum number of announcements" default(100)
// @Param sort query string false "Order by creation time" Enums(asc, desc) default(desc)
// @Success 200 {object} dto.APIResponse{data=[]dto.AnnouncementResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /announcements [get]
func (c *AnnouncementController) GetAnnouncements(ctx *gin.Context) {
	var query dto.AnnouncementListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	items, err := c.announcementService.List(ctx.Request.Context(), &query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(items))
}

// CreateAnnouncements godoc
// @Summary Publish announcements
// @Description Stores the announcements and notifies every student in the background
// @Tags announcements
// @Accept json
// @Produce json
// @Param request body dto.CreateAnnouncementsRequest true "Announcements"
// @Success 201 {object} dto.APIResponse{data=[]dto.AnnouncementResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /announcements [post]
func (c *AnnouncementController) CreateAnnouncements(ctx *gin.Context) {
	var req dto.CreateAnnouncementsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	created, err := c.announcementService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(created))
}

// UpdateAnnouncement godoc
// @Summary Update an announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param request body dto.UpdateAnnouncementRequest true "Announcement"
// @Success 200 {object} dto.APIResponse{data=dto.AnnouncementResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /announcements/{id} [patch]
func (c *AnnouncementController) UpdateAnnouncement(ctx *gin.Context) {
	var req dto.UpdateAnnouncementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	updated, err := c.announcementService.Update(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(updated))
}

// DeleteAnnouncement godoc
// @Summary Delete an announcement
// @Tags announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /announcements/{id} [delete]
func (c *AnnouncementController) DeleteAnnouncement(ctx *gin.Context) {
	if err := c.announcementService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Announcement deleted"}))
}
