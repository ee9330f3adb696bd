package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/services"
	"github.com/yigit/alumnisphere/internal/middleware"
	"github.com/yigit/alumnisphere/internal/pkg/helpers"
)

// ContactController handles the contact form and its admin inbox
type ContactController struct {
	contactService *services.ContactService
}

// NewContactController creates a new ContactController
func NewContactController(contactService *services.ContactService) *ContactController {
	return &ContactController{contactService: contactService}
}

// Submit stores a contact form message
// @Summary Send a contact message
// @Tags contact
// @Accept json
// @Produce json
// @Param request body dto.CreateContactMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.ContactMessage}
// @Failure 400 {object} dto.ErrorResponse
// @Router /contact [post]
func (c *ContactController) Submit(ctx *gin.Context) {
	var req dto.CreateContactMessageRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	msg, err := c.contactService.Submit(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(msg))
}

// List returns the inbox
// @Summary List contact messages
// @Tags contact
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread messages"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.ContactMessage,pagination=dto.PaginationInfo}
// @Router /contact [get]
func (c *ContactController) List(ctx *gin.Context) {
	var query dto.ContactListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	items, pagination, err := c.contactService.List(ctx.Request.Context(), models.ContactMessageFilter{UnreadOnly: query.Unread}, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(items, pagination))
}

// Get returns one message
// @Summary Get contact message
// @Tags contact
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=models.ContactMessage}
// @Failure 404 {object} dto.ErrorResponse
// @Router /contact/{id} [get]
func (c *ContactController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	msg, err := c.contactService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(msg))
}

// MarkRead flags a message as read
// @Summary Mark contact message read
// @Tags contact
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /contact/{id}/read [patch]
func (c *ContactController) MarkRead(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.contactService.MarkRead(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Message marked as read"}))
}

// Delete removes a message
// @Summary Delete contact message
// @Tags contact
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /contact/{id} [delete]
func (c *ContactController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.contactService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Message deleted"}))
}
