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

// AdminApplicationController handles admin review of applications
type AdminApplicationController struct {
	adminService    services.AdminApplicationService
	reviewService   services.ReviewService
	documentService services.DocumentService
	logger          zerolog.Logger
}

// NewAdminApplicationController creates a new AdminApplicationController
func NewAdminApplicationController(
	adminService services.AdminApplicationService,
	reviewService services.ReviewService,
	documentService services.DocumentService,
	logger zerolog.Logger,
) *AdminApplicationController {
	return &AdminApplicationController{
		adminService:    adminService,
		reviewService:   reviewService,
		documentService: documentService,
		logger:          logger,
	}
}

// ListApplications pages through all applications
// @Summary List applications
// @Tags admin-applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(all, draft, pending, approved, rejected)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(10)
// @Success 200 {object} dto.AdminApplicationListResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid status filter"
// @Failure 403 {object} dto.ErrorResponse "Admin access required"
// @Router /admin/applications [get]
func (c *AdminApplicationController) ListApplications(ctx *gin.Context) {
	var query dto.ApplicationSearchQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	query.Page, query.PerPage = helpers.ParsePaginationParams(ctx, helpers.DefaultPerPage, helpers.MaxPerPage)

	resp, err := c.adminService.List(ctx.Request.Context(), query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SearchApplications filters applications
// @Summary Search applications
// @Tags admin-applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param course query string false "Course name contains"
// @Param student_name query string false "Student name contains"
// @Param start_date query string false "Created on or after (YYYY-MM-DD)"
// @Param end_date query string false "Created on or before (YYYY-MM-DD)"
// @Param min_percentage query number false "Minimum twelfth percentage"
// @Param max_percentage query number false "Maximum twelfth percentage"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(10)
// @Success 200 {object} dto.AdminApplicationListResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /admin/applications/search [get]
func (c *AdminApplicationController) SearchApplications(ctx *gin.Context) {
	var query dto.ApplicationSearchQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	query.Page, query.PerPage = helpers.ParsePaginationParams(ctx, helpers.DefaultPerPage, helpers.MaxPerPage)

	resp, err := c.adminService.Search(ctx.Request.Context(), query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetApplication returns one application in detail
// @Summary Get application
// @Tags admin-applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.AdminApplicationDetailResponse
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /admin/applications/{id} [get]
func (c *AdminApplicationController) GetApplication(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "application")
	if !ok {
		return
	}

	resp, err := c.adminService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ReviewApplication approves or rejects an application
// @Summary Review application
// @Tags admin-applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body dto.ReviewRequest true "Decision"
// @Success 200 {object} dto.ReviewResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid action or status"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /admin/applications/{id}/review [post]
func (c *AdminApplicationController) ReviewApplication(ctx *gin.Context) {
	admin, err := middleware.AdminFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	id, ok := idParam(ctx, "id", "application")
	if !ok {
		return
	}

	var req dto.ReviewRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.reviewService.Review(ctx.Request.Context(), admin, id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// BulkAction applies one action to many applications
// @Summary Bulk review or delete
// @Description Each application is processed on its own; failures are reported per item.
// @Tags admin-applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkActionRequest true "Action and application IDs"
// @Success 200 {object} dto.BulkActionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid action or no IDs"
// @Failure 404 {object} dto.ErrorResponse "No applications found"
// @Router /admin/applications/bulk-action [post]
func (c *AdminApplicationController) BulkAction(ctx *gin.Context) {
	admin, err := middleware.AdminFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.BulkActionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.reviewService.BulkReview(ctx.Request.Context(), admin, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().
		Int64("adminID", admin.ID).
		Str("action", resp.ActionPerformed).
		Int("successful", resp.SuccessfulUpdates).
		Int("failed", resp.FailedCount).
		Msg("Bulk action completed")
	ctx.JSON(http.StatusOK, resp)
}

// GetDocument returns an applicant document
// @Summary Get applicant document
// @Tags admin-applications
// @Produce json,octet-stream
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param type path string true "Document type" Enums(degree_certificate, id_proof)
// @Param action query string false "Delivery mode" Enums(view, download, base64) default(view)
// @Success 200 {object} dto.DocumentBase64Response "With action=base64; raw bytes otherwise"
// @Failure 400 {object} dto.ErrorResponse "Invalid document type or action"
// @Failure 404 {object} dto.ErrorResponse "Application or document not found"
// @Router /admin/applications/{id}/documents/{type} [get]
func (c *AdminApplicationController) GetDocument(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "application")
	if !ok {
		return
	}

	doc, err := c.documentService.ForAdmin(ctx.Request.Context(), id, ctx.Param("type"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	writeDocument(ctx, doc, actionView)
}

// GetFile returns an applicant document with the student's identity
// @Summary Download applicant file
// @Tags admin-applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param type path string true "Document type" Enums(degree_certificate, id_proof)
// @Success 200 {object} dto.AdminFileResponse
// @Failure 404 {object} dto.ErrorResponse "Application or document not found"
// @Router /admin/applications/{id}/files/{type} [get]
func (c *AdminApplicationController) GetFile(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "application")
	if !ok {
		return
	}

	resp, err := c.documentService.AdminFile(ctx.Request.Context(), id, ctx.Param("type"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
