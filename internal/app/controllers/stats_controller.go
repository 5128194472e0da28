package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/services"
	"github.com/uniadmit/admission/internal/middleware"
)

// StatsController serves reporting endpoints
type StatsController struct {
	statsService services.StatsService
	logger       zerolog.Logger
}

// NewStatsController creates a new StatsController
func NewStatsController(statsService services.StatsService, logger zerolog.Logger) *StatsController {
	return &StatsController{
		statsService: statsService,
		logger:       logger,
	}
}

type trendQuery struct {
	Granularity string `form:"granularity"`
	Span        int    `form:"span"`
}

// ApplicationStats returns application counts and trends
// @Summary Application statistics
// @Tags admin-stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ApplicationStatsResponse
// @Router /admin/stats/applications [get]
func (c *StatsController) ApplicationStats(ctx *gin.Context) {
	resp, err := c.statsService.ApplicationStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Trends returns application counts per day or month
// @Summary Application trends
// @Tags admin-stats
// @Produce json
// @Security BearerAuth
// @Param granularity query string false "Bucket size" Enums(daily, monthly) default(monthly)
// @Param span query int false "Number of buckets (30 days or 12 months by default)"
// @Success 200 {object} dto.TrendResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid granularity or span"
// @Router /admin/stats/trends [get]
func (c *StatsController) Trends(ctx *gin.Context) {
	var q trendQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	resp, err := c.statsService.Trends(ctx.Request.Context(), q.Granularity, q.Span)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UserStats returns account counts
// @Summary User statistics
// @Tags admin-stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserStatsResponse
// @Router /admin/stats/users [get]
func (c *StatsController) UserStats(ctx *gin.Context) {
	resp, err := c.statsService.UserStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Dashboard returns the admin dashboard summary
// @Summary Admin dashboard
// @Tags admin-stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DashboardResponse
// @Router /admin/dashboard [get]
func (c *StatsController) Dashboard(ctx *gin.Context) {
	resp, err := c.statsService.Dashboard(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Health reports service and database status
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (c *StatsController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.statsService.Health(ctx.Request.Context()))
}
