package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/app/services"
	"github.com/uniadmit/admission/internal/middleware"
	"github.com/uniadmit/admission/internal/pkg/helpers"
)

// AdminUserController handles user management by admins
type AdminUserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewAdminUserController creates a new AdminUserController
func NewAdminUserController(userService services.UserService, logger zerolog.Logger) *AdminUserController {
	return &AdminUserController{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers pages through accounts
// @Summary List users
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter" Enums(student, admin)
// @Param search query string false "Name, email or phone contains"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 50)" default(10)
// @Success 200 {object} dto.UserListResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid role filter"
// @Router /admin/users [get]
func (c *AdminUserController) ListUsers(ctx *gin.Context) {
	var query dto.UserListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	query.Page, query.PerPage = helpers.ParsePaginationParams(ctx, helpers.DefaultPerPage, helpers.MaxUserPerPage)

	resp, err := c.userService.List(ctx.Request.Context(), query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetUser returns one account
// @Summary Get user
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserEnvelope
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id} [get]
func (c *AdminUserController) GetUser(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "user")
	if !ok {
		return
	}

	resp, err := c.userService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateUser edits an account, including email and phone
// @Summary Update user
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.AdminUserUpdateRequest true "Fields to change"
// @Success 200 {object} dto.UserEnvelope "User updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid value or duplicate email/phone"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id} [put]
func (c *AdminUserController) UpdateUser(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "user")
	if !ok {
		return
	}

	var req dto.AdminUserUpdateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.userService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ToggleStatus activates or deactivates an account
// @Summary Toggle user status
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserEnvelope
// @Failure 400 {object} dto.ErrorResponse "Cannot deactivate your own account"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id}/toggle-status [post]
func (c *AdminUserController) ToggleStatus(ctx *gin.Context) {
	admin, err := middleware.AdminFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	id, ok := idParam(ctx, "id", "user")
	if !ok {
		return
	}

	resp, err := c.userService.ToggleStatus(ctx.Request.Context(), admin, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ResetPassword sets a new password for an account
// @Summary Reset user password
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.ResetPasswordRequest true "New password"
// @Success 200 {object} dto.MessageResponse "Password reset successfully"
// @Failure 400 {object} dto.ErrorResponse "Password too short"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id}/reset-password [post]
func (c *AdminUserController) ResetPassword(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "user")
	if !ok {
		return
	}

	var req dto.ResetPasswordRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.userService.ResetPassword(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CreateAdmin creates another administrator
// @Summary Create admin user
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAdminRequest true "Admin details"
// @Success 201 {object} dto.UserEnvelope "Admin user created successfully"
// @Failure 400 {object} dto.ErrorResponse "Missing fields, invalid format or duplicate email/phone"
// @Router /admin/users [post]
func (c *AdminUserController) CreateAdmin(ctx *gin.Context) {
	var req dto.CreateAdminRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.userService.CreateAdmin(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("userID", resp.User.ID).Msg("Admin account created")
	ctx.JSON(http.StatusCreated, resp)
}
