package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/services"
	"github.com/yigit/alumnisphere/internal/middleware"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/filestorage"
	"github.com/yigit/alumnisphere/internal/pkg/helpers"
)

// UserController handles profile and user administration endpoints
type UserController struct {
	userService *services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService *services.UserService) *UserController {
	return &UserController{userService: userService}
}

// GetProfile returns the caller's account
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	user, err := c.userService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewUserResponse(user)))
}

// UpdateProfile changes name and/or email
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /users/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateProfile(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewUserResponse(user)))
}

// ChangePassword changes the caller's password
// @Summary Change own password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 401 {object} dto.ErrorResponse "Current password is wrong"
// @Router /users/me/password [put]
func (c *UserController) ChangePassword(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.userService.ChangePassword(ctx.Request.Context(), userID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Password changed"}))
}

// UploadProfilePhoto replaces the caller's profile photo
// @Summary Upload profile photo
// @Tags users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param photo formData file true "Image file"
// @Success 200 {object} dto.APIResponse{data=dto.ProfilePhotoResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Router /users/me/photo [post]
func (c *UserController) UploadProfilePhoto(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	fh, err := ctx.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			middleware.HandleAPIError(ctx, apperrors.NewValidationError("photo", "photo is required"))
			return
		}
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("photo", "invalid multipart form"))
		return
	}

	url, err := c.userService.UpdateProfilePhoto(ctx.Request.Context(), userID, filestorage.FromFileHeader(fh))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ProfilePhotoResponse{ProfilePhotoURL: url}))
}

// ListUsers lists accounts for administrators
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email substring"
// @Param role query string false "Role filter (user, staff, admin)"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=[]dto.UserResponse,pagination=dto.PaginationInfo}
// @Failure 403 {object} dto.ErrorResponse
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	var query dto.UserListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	users, pagination, err := c.userService.ListUsers(ctx.Request.Context(), models.UserFilter{
		Search: query.Search,
		Role:   models.RoleType(query.Role),
	}, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.NewUserResponse(u))
	}
	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(items, pagination))
}

// UpdateRole changes a user's role
// @Summary Change user role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id}/role [put]
func (c *UserController) UpdateRole(ctx *gin.Context) {
	actorID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.userService.UpdateRole(ctx.Request.Context(), actorID, userID, models.RoleType(req.Role)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Role updated"}))
}

// DeleteUser removes an account
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	actorID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.DeleteUser(ctx.Request.Context(), actorID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "User deleted"}))
}
