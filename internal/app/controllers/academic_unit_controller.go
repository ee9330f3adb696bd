package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/services"
	"github.com/yigit/alumnisphere/internal/middleware"
)

// AcademicUnitController handles academic unit endpoints
type AcademicUnitController struct {
	academicUnitService *services.AcademicUnitService
}

// NewAcademicUnitController creates a new AcademicUnitController
func NewAcademicUnitController(academicUnitService *services.AcademicUnitService) *AcademicUnitController {
	return &AcademicUnitController{academicUnitService: academicUnitService}
}

// GetAll lists academic units
// @Summary List academic units
// @Tags academic-units
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.AcademicUnit}
// @Router /academic-units [get]
func (c *AcademicUnitController) GetAll(ctx *gin.Context) {
	units, err := c.academicUnitService.GetAll(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(units))
}

// GetByID returns one academic unit
// @Summary Get academic unit
// @Tags academic-units
// @Produce json
// @Param id path int true "Academic unit ID"
// @Success 200 {object} dto.APIResponse{data=models.AcademicUnit}
// @Failure 404 {object} dto.ErrorResponse
// @Router /academic-units/{id} [get]
func (c *AcademicUnitController) GetByID(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	unit, err := c.academicUnitService.GetByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(unit))
}

// GetPrograms lists the programs of an academic unit
// @Summary List programs of an academic unit
// @Tags academic-units
// @Produce json
// @Param id path int true "Academic unit ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProgramsResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /academic-units/{id}/programs [get]
func (c *AcademicUnitController) GetPrograms(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	programs, err := c.academicUnitService.GetPrograms(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(programs))
}

// Create adds an academic unit
// @Summary Create academic unit
// @Tags academic-units
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAcademicUnitRequest true "Academic unit"
// @Success 201 {object} dto.APIResponse{data=models.AcademicUnit}
// @Failure 400 {object} dto.ErrorResponse "Validation failed or duplicate name/code"
// @Failure 403 {object} dto.ErrorResponse
// @Router /academic-units [post]
func (c *AcademicUnitController) Create(ctx *gin.Context) {
	var req dto.CreateAcademicUnitRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	unit, err := c.academicUnitService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(unit))
}

// Update changes an academic unit
// @Summary Update academic unit
// @Tags academic-units
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Academic unit ID"
// @Param request body dto.UpdateAcademicUnitRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.AcademicUnit}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /academic-units/{id} [put]
func (c *AcademicUnitController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateAcademicUnitRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	unit, err := c.academicUnitService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(unit))
}

// Delete removes an academic unit
// @Summary Delete academic unit
// @Tags academic-units
// @Produce json
// @Security BearerAuth
// @Param id path int true "Academic unit ID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /academic-units/{id} [delete]
func (c *AcademicUnitController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.academicUnitService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Academic unit deleted"}))
}
