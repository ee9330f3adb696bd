package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/services"
	"github.com/yigit/alumnisphere/internal/middleware"
)

// SettingsController handles the caller's preferences
type SettingsController struct {
	settingsService *services.SettingsService
}

// NewSettingsController creates a new SettingsController
func NewSettingsController(settingsService *services.SettingsService) *SettingsController {
	return &SettingsController{settingsService: settingsService}
}

// Get returns the caller's settings
// @Summary Get settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.UserSettings}
// @Router /settings [get]
func (c *SettingsController) Get(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	settings, err := c.settingsService.Get(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(settings))
}

// Update merges the given settings
// @Summary Update settings
// @Description Only the fields present are changed
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UserSettingsPatch true "Settings to change"
// @Success 200 {object} dto.APIResponse{data=models.UserSettings}
// @Failure 400 {object} dto.ErrorResponse
// @Router /settings [put]
func (c *SettingsController) Update(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	var patch models.UserSettingsPatch
	if !middleware.BindJSON(ctx, &patch) {
		return
	}

	settings, err := c.settingsService.Update(ctx.Request.Context(), userID, patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(settings))
}

// Reset restores the default settings
// @Summary Reset settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.UserSettings}
// @Router /settings [delete]
func (c *SettingsController) Reset(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	settings, err := c.settingsService.Reset(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(settings))
}
