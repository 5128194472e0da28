package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uniadmit/admission/internal/app/controllers"
	"github.com/uniadmit/admission/internal/middleware"
)

// Controllers bundles the HTTP handlers mounted by SetupRouter.
type Controllers struct {
	Auth             *controllers.AuthController
	Application      *controllers.ApplicationController
	AdminApplication *controllers.AdminApplicationController
	AdminUser        *controllers.AdminUserController
	Stats            *controllers.StatsController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctl Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/health", ctl.Stats.Health)

	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctl.Auth.Register)
		auth.POST("/login", ctl.Auth.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authProtected := authenticated.Group("/auth")
	{
		authProtected.POST("/logout", ctl.Auth.Logout)
		authProtected.GET("/verify-token", ctl.Auth.VerifyToken)
		authProtected.GET("/profile", ctl.Auth.GetProfile)
		authProtected.PUT("/profile", ctl.Auth.UpdateProfile)
		authProtected.GET("/profile/restrictions", ctl.Auth.GetProfileRestrictions)
	}

	// Student routes
	applications := authenticated.Group("/applications")
	applications.Use(authMiddleware.StudentRequired())
	{
		applications.GET("", ctl.Application.ListMine)
		applications.POST("/draft", ctl.Application.SaveDraft)
		applications.GET("/draft", ctl.Application.GetDraft)
		applications.POST("/submit", ctl.Application.Submit)
		applications.GET("/status", ctl.Application.GetStatus)
		applications.PUT("/profile", ctl.Application.UpdateProfile)
		applications.GET("/:id/documents/:type", ctl.Application.GetDocument)
		applications.GET("/:id/offer-letter", ctl.Application.GetOfferLetter)
	}

	// Admin routes
	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.AdminRequired())
	{
		adminApps := admin.Group("/applications")
		{
			adminApps.GET("", ctl.AdminApplication.ListApplications)
			adminApps.GET("/search", ctl.AdminApplication.SearchApplications)
			adminApps.POST("/bulk-action", ctl.AdminApplication.BulkAction)
			adminApps.GET("/:id", ctl.AdminApplication.GetApplication)
			adminApps.POST("/:id/review", ctl.AdminApplication.ReviewApplication)
			adminApps.GET("/:id/documents/:type", ctl.AdminApplication.GetDocument)
			adminApps.GET("/:id/files/:type", ctl.AdminApplication.GetFile)
		}

		stats := admin.Group("/stats")
		{
			stats.GET("/applications", ctl.Stats.ApplicationStats)
			stats.GET("/trends", ctl.Stats.Trends)
			stats.GET("/users", ctl.Stats.UserStats)
		}
		admin.GET("/dashboard", ctl.Stats.Dashboard)

		users := admin.Group("/users")
		{
			users.GET("", ctl.AdminUser.ListUsers)
			users.POST("", ctl.AdminUser.CreateAdmin)
			users.GET("/:id", ctl.AdminUser.GetUser)
			users.PUT("/:id", ctl.AdminUser.UpdateUser)
			users.POST("/:id/toggle-status", ctl.AdminUser.ToggleStatus)
			users.POST("/:id/reset-password", ctl.AdminUser.ResetPassword)
		}
	}
}
