package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler, jwtSecret string) {
	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(jwtSecret))
	{
		v1.POST("/grades/:id/submit", RequireRole(RoleProfessor), handler.SubmitGrade)
		v1.POST("/resolutions/:id/revoke", RequireRole(RoleProfessor), handler.RevokeResolution)

		v1.POST("/resolutions/:id/decide", RequireRole(RoleHead, RoleRegistrar), handler.Decide)
		v1.GET("/resolutions/pending", RequireRole(RoleHead, RoleRegistrar), handler.ListPending)

		v1.POST("/sweep/preview", RequireRole(RoleRegistrar), handler.SweepPreview)
		v1.POST("/sweep/trigger", RequireRole(RoleRegistrar), handler.SweepTrigger)
		v1.GET("/sweep/reports/:month/:job", RequireRole(RoleRegistrar), handler.SweepReportDownload)
	}
}
