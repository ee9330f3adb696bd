package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/services"
	"github.com/yigit/alumnisphere/internal/middleware"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/filestorage"
	"github.com/yigit/alumnisphere/internal/pkg/helpers"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk
const multipartMemory = 32 << 20

// AlumniController handles alumni record endpoints
type AlumniController struct {
	alumniService services.AlumniService
}

// NewAlumniController creates a new AlumniController
func NewAlumniController(alumniService services.AlumniService) *AlumniController {
	return &AlumniController{alumniService: alumniService}
}

// readAlumniRequest accepts either a JSON body or a multipart form whose
// nested sections are JSON strings
func readAlumniRequest(ctx *gin.Context) (*dto.AlumniRequest, map[models.AttachmentField]filestorage.Upload, bool) {
	req := &dto.AlumniRequest{}
	files := map[models.AttachmentField]filestorage.Upload{}

	if !strings.HasPrefix(ctx.ContentType(), "multipart/form-data") {
		if ctx.Request.ContentLength == 0 {
			return req, files, true
		}
		if !middleware.BindJSON(ctx, req) {
			return nil, nil, false
		}
		return req, files, true
	}

	if err := ctx.Request.ParseMultipartForm(multipartMemory); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid multipart form").WithDetails(err.Error())
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, nil, false
	}

	scalars := map[string]**string{
		"name":               &req.Name,
		"academicUnit":       &req.AcademicUnit,
		"program":            &req.Program,
		"passingYear":        &req.PassingYear,
		"registrationNumber": &req.RegistrationNumber,
	}
	for key, dst := range scalars {
		if v, ok := ctx.GetPostForm(key); ok {
			*dst = &v
		}
	}

	nested := map[string]*dto.NestedField{
		"contactDetails":  &req.ContactDetails,
		"qualifiedExams":  &req.QualifiedExams,
		"employment":      &req.Employment,
		"higherEducation": &req.HigherEducation,
	}
	for key, dst := range nested {
		if v, ok := ctx.GetPostForm(key); ok {
			*dst = dto.NestedFromString(v)
		}
	}

	for key, headers := range ctx.Request.MultipartForm.File {
		field := models.AttachmentField(key)
		if !field.IsValid() {
			middleware.HandleAPIError(ctx, apperrors.NewValidationError(key, "unexpected file field "+key))
			ctx.Abort()
			return nil, nil, false
		}
		if len(headers) > 0 {
			files[field] = filestorage.FromFileHeader(headers[0])
		}
	}

	return req, files, true
}

// ListAlumni handles listing alumni records
// @Summary List alumni
// @Description Lists alumni records, newest first, with optional filters
// @Tags alumni
// @Produce json
// @Param academicUnit query string false "Exact academic unit"
// @Param passingYear query string false "Exact passing year, e.g. 2019-20"
// @Param program query string false "Case-insensitive program substring"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.Alumni,pagination=dto.PaginationInfo}
// @Failure 500 {object} dto.ErrorResponse
// @Router /alumni [get]
func (c *AlumniController) ListAlumni(ctx *gin.Context) {
	var query dto.AlumniListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	items, pagination, err := c.alumniService.ListAlumni(ctx.Request.Context(), filterFromQuery(query), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(items, pagination))
}

// SearchAlumni handles free-text alumni search
// @Summary Search alumni
// @Description Case-insensitive search over name, registration number and program
// @Tags alumni
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Param academicUnit query string false "Exact academic unit"
// @Param passingYear query string false "Exact passing year"
// @Param program query string false "Program substring"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.Alumni,pagination=dto.PaginationInfo}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /alumni/search [get]
func (c *AlumniController) SearchAlumni(ctx *gin.Context) {
	var query dto.AlumniListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	items, pagination, err := c.alumniService.SearchAlumni(ctx.Request.Context(), query.Q, filterFromQuery(query), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(items, pagination))
}

func filterFromQuery(q dto.AlumniListQuery) models.AlumniFilter {
	return models.AlumniFilter{
		AcademicUnit: strings.TrimSpace(q.AcademicUnit),
		PassingYear:  strings.TrimSpace(q.PassingYear),
		Program:      strings.TrimSpace(q.Program),
	}
}

// GetAlumni handles fetching one alumni record
// @Summary Get alumni by ID
// @Tags alumni
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alumni ID"
// @Success 200 {object} dto.APIResponse{data=models.Alumni}
// @Failure 404 {object} dto.ErrorResponse
// @Router /alumni/{id} [get]
func (c *AlumniController) GetAlumni(ctx *gin.Context) {
	alumni, err := c.alumniService.GetAlumni(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(alumni))
}

// CreateAlumni handles creating an alumni record
// @Summary Create alumni
// @Description Accepts JSON or multipart/form-data. In forms the nested sections are JSON strings.
// @Tags alumni
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body dto.AlumniRequest false "Alumni record (JSON)"
// @Param qualificationImage formData file false "Qualifying exam certificate"
// @Param employmentDocument formData file false "Employment document"
// @Param higherEducationDocument formData file false "Higher education document"
// @Success 201 {object} dto.APIResponse{data=models.Alumni}
// @Failure 400 {object} dto.ErrorResponse "Validation failed or registration number taken"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /alumni [post]
func (c *AlumniController) CreateAlumni(ctx *gin.Context) {
	req, files, ok := readAlumniRequest(ctx)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(ctx)

	alumni, err := c.alumniService.CreateAlumni(ctx.Request.Context(), req, files, actorID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(alumni))
}

// UpdateAlumni handles partial updates of an alumni record
// @Summary Update alumni
// @Description Only the fields present are changed; nested sections merge leaf by leaf
// @Tags alumni
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alumni ID"
// @Param request body dto.AlumniRequest false "Fields to change (JSON)"
// @Param qualificationImage formData file false "Qualifying exam certificate"
// @Param employmentDocument formData file false "Employment document"
// @Param higherEducationDocument formData file false "Higher education document"
// @Success 200 {object} dto.APIResponse{data=models.Alumni}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /alumni/{id} [put]
func (c *AlumniController) UpdateAlumni(ctx *gin.Context) {
	req, files, ok := readAlumniRequest(ctx)
	if !ok {
		return
	}

	alumni, err := c.alumniService.UpdateAlumni(ctx.Request.Context(), ctx.Param("id"), req, files)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(alumni))
}

// DeleteAlumni handles deleting an alumni record
// @Summary Delete alumni
// @Tags alumni
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alumni ID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /alumni/{id} [delete]
func (c *AlumniController) DeleteAlumni(ctx *gin.Context) {
	if err := c.alumniService.DeleteAlumni(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Alumni record deleted"}))
}
