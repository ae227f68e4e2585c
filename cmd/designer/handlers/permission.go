package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/middleware"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/cmd/designer/respond"
	"github.com/flowforge/flowforge/cmd/designer/service"
	"github.com/flowforge/flowforge/common/logger"
)

// PermissionHandler handles workflow sharing requests
type PermissionHandler struct {
	perms *service.PermissionService
	log   *logger.Logger
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(perms *service.PermissionService, log *logger.Logger) *PermissionHandler {
	return &PermissionHandler{
		perms: perms,
		log:   log,
	}
}

type grantPermissionRequest struct {
	UserID string      `json:"user_id" validate:"required"`
	Role   models.Role `json:"role" validate:"required,oneof=Viewer Editor Admin"`
}

// ListPermissions lists every grant on a workflow
// GET /api/v1/workflows/:id/permissions
func (h *PermissionHandler) ListPermissions(c echo.Context) error {
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	perms, err := h.perms.List(c.Request().Context(), workflowID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	if perms == nil {
		perms = []*models.Permission{}
	}

	return respond.Data(c, http.StatusOK, map[string]any{"permissions": perms})
}

// GrantPermission creates or changes a grant
// PUT /api/v1/workflows/:id/permissions
func (h *PermissionHandler) GrantPermission(c echo.Context) error {
	var req grantPermissionRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("%v", err))
	}

	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	perm, err := h.perms.Grant(c.Request().Context(), workflowID, req.UserID, req.Role)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusOK, map[string]any{"permission": perm})
}

// RevokePermission removes a grant
// DELETE /api/v1/workflows/:id/permissions/:userId
func (h *PermissionHandler) RevokePermission(c echo.Context) error {
	userID := c.Param("userId")
	if userID == "" {
		return respond.Error(c, h.log, apperr.Invalid("user ID required"))
	}

	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	if err := h.perms.Revoke(c.Request().Context(), workflowID, userID); err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Message(c, "permission revoked")
}
