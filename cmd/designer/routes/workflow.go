package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/flowforge/flowforge/cmd/designer/container"
	"github.com/flowforge/flowforge/cmd/designer/handlers"
	"github.com/flowforge/flowforge/cmd/designer/middleware"
	"github.com/flowforge/flowforge/cmd/designer/models"
)

// RegisterWorkflowRoutes registers all workflow-scoped routes. Every
// mutating route runs the permission gate before its handler: Viewer
// for reads and duplication, Editor for edits and new versions, Admin
// for archive, publish and sharing.
func RegisterWorkflowRoutes(e *echo.Echo, c *container.Container) {
	log := c.Components.Logger
	wh := handlers.NewWorkflowHandler(c.WorkflowService, log)
	vh := handlers.NewVersionHandler(c.WorkflowService, log)
	gh := handlers.NewGraphHandler(c.GraphService, log)
	ph := handlers.NewPermissionHandler(c.PermissionService, log)

	viewer := middleware.RequireWorkflowRole(c.PermissionService, models.RoleViewer)
	editor := middleware.RequireWorkflowRole(c.PermissionService, models.RoleEditor)
	admin := middleware.RequireWorkflowRole(c.PermissionService, models.RoleAdmin)

	wf := e.Group("/api/v1/workflows")
	wf.Use(middleware.RequireIdentity())
	{
		wf.POST("", wh.CreateWorkflow)
		wf.GET("", wh.ListWorkflows)
		wf.GET("/:id", wh.GetWorkflow, viewer)
		wf.PATCH("/:id", wh.UpdateWorkflow, editor)
		wf.DELETE("/:id", wh.ArchiveWorkflow, admin)
		wf.POST("/:id/duplicate", wh.DuplicateWorkflow, viewer)

		wf.GET("/:id/versions", vh.ListVersions, viewer)
		wf.POST("/:id/versions", vh.CreateVersion, editor)
		wf.GET("/:id/versions/:versionId", vh.GetVersion, viewer)
		wf.POST("/:id/versions/:versionId/publish", vh.PublishVersion, admin)

		wf.GET("/:id/versions/:versionId/nodes", gh.ListNodes, viewer)
		wf.POST("/:id/versions/:versionId/nodes", gh.CreateNode, editor)
		wf.PATCH("/:id/versions/:versionId/nodes/:nodeId", gh.UpdateNode, editor)
		wf.DELETE("/:id/versions/:versionId/nodes/:nodeId", gh.DeleteNode, editor)

		wf.GET("/:id/versions/:versionId/connections", gh.ListConnections, viewer)
		wf.POST("/:id/versions/:versionId/connections", gh.CreateConnection, editor)
		wf.DELETE("/:id/versions/:versionId/connections/:connectionId", gh.DeleteConnection, editor)

		wf.GET("/:id/permissions", ph.ListPermissions, admin)
		wf.PUT("/:id/permissions", ph.GrantPermission, admin)
		wf.DELETE("/:id/permissions/:userId", ph.RevokePermission, admin)
	}
}
