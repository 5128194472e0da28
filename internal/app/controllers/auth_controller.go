// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/app/services"
	"github.com/uniadmit/admission/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles student registration
// @Summary Register a new student
// @Description Creates a student account. All address fields are required; email and phone must be unique.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.AuthResponse "User registered successfully"
// @Failure 400 {object} dto.ErrorResponse "Missing fields, invalid format or duplicate email/phone"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// Login handles user login
// @Summary User login
// @Description Authenticates by email and password and returns a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials or deactivated account"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Logout revokes the caller's tokens
// @Summary Logout
// @Description Rotates the session key so every token issued so far stops verifying
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse "Logged out successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	caller, err := middleware.CallerFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.authService.Logout(ctx.Request.Context(), caller)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// VerifyToken echoes the authenticated caller
// @Summary Verify token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TokenVerifyResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/verify-token [get]
func (c *AuthController) VerifyToken(ctx *gin.Context) {
	caller, err := middleware.CallerFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, c.authService.VerifyToken(caller, middleware.UserFrom(ctx)))
}

// GetProfile returns the caller's account
// @Summary Get own profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserEnvelope
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	caller, err := middleware.CallerFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.authService.Profile(ctx.Request.Context(), caller)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateProfile edits the caller's own profile
// @Summary Update own profile
// @Description Partial update of name, address, country, state, district and pincode. Email and phone cannot be changed here.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ProfileUpdateRequest true "Fields to change"
// @Success 200 {object} dto.UserEnvelope "Profile updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Protected field or invalid value"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	caller, err := middleware.CallerFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.ProfileUpdateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.EditProfile(ctx.Request.Context(), caller, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetProfileRestrictions describes what the caller may edit
// @Summary Profile edit restrictions
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ProfileRestrictionsResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/profile/restrictions [get]
func (c *AuthController) GetProfileRestrictions(ctx *gin.Context) {
	caller, err := middleware.CallerFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.authService.Restrictions(ctx.Request.Context(), caller)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
