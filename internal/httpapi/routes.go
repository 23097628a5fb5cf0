package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calldash/internal/auth"
	"calldash/internal/rbac"
)

// RegisterRoutes wires the REST surface. Keep this free of business logic.
func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		if h.Ready != nil {
			if err := h.Ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/login", h.Login)

	protected := api.Group("")
	protected.Use(auth.RequireToken(h.Auth))
	{
		// Read routes: every role including the demo account.
		read := protected.Group("")
		read.Use(rbac.RequireAnyRole(rbac.RoleClient, rbac.RoleDemo))
		{
			read.GET("/calls", h.ListCalls)
			read.GET("/metrics/summary", h.MetricsSummary)
			read.GET("/metrics/daily", h.MetricsDaily)
			read.GET("/export/csv", h.ExportCSV)
			read.GET("/export/xlsx", h.ExportXLSX)
			read.GET("/sync/history", h.SyncHistory)
		}

		// Mutations: real accounts only, never demo.
		write := protected.Group("")
		write.Use(rbac.RequireAnyRole(rbac.RoleClient))
		{
			write.POST("/sync", h.TriggerSync)
			write.POST("/calls", h.CreateCall)
		}

		// Admin only.
		admin := protected.Group("")
		admin.Use(rbac.RequireAnyRole())
		{
			admin.DELETE("/calls", h.DeleteAllCalls)
			admin.GET("/users", h.ListUsers)
			admin.POST("/users", h.CreateUser)
			admin.PUT("/users/:username", h.UpdateUser)
		}
	}
}
