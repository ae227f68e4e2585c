package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/flowforge/flowforge/cmd/designer/container"
	"github.com/flowforge/flowforge/cmd/designer/handlers"
	"github.com/flowforge/flowforge/cmd/designer/middleware"
)

// RegisterTaskTypeRoutes registers the task type catalog routes.
// Reading is open to any authenticated user; managing the catalog is
// platform-admin only.
func RegisterTaskTypeRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewTaskTypeHandler(c.TaskTypeService, c.Components.Logger)

	tt := e.Group("/api/v1/task-types")
	tt.Use(middleware.RequireIdentity())
	{
		tt.GET("", h.ListTaskTypes)
		tt.POST("", h.CreateTaskType, middleware.RequirePlatformAdmin())
		tt.PATCH("/:id", h.UpdateTaskType, middleware.RequirePlatformAdmin())
		tt.DELETE("/:id", h.DeactivateTaskType, middleware.RequirePlatformAdmin())
	}
}
