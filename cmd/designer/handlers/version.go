package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/middleware"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/cmd/designer/respond"
	"github.com/flowforge/flowforge/cmd/designer/service"
	"github.com/flowforge/flowforge/common/logger"
)

// VersionHandler handles workflow version requests
type VersionHandler struct {
	workflows *service.WorkflowService
	log       *logger.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(workflows *service.WorkflowService, log *logger.Logger) *VersionHandler {
	return &VersionHandler{
		workflows: workflows,
		log:       log,
	}
}

type createVersionRequest struct {
	ChangeNote string `json:"change_note" validate:"max=1000"`
}

func versionIDParam(c echo.Context) (uuid.UUID, error) {
	versionID, err := uuid.Parse(c.Param("versionId"))
	if err != nil {
		return uuid.Nil, apperr.Invalid("invalid version ID")
	}
	return versionID, nil
}

// ListVersions lists a workflow's versions, newest first
// GET /api/v1/workflows/:id/versions
func (h *VersionHandler) ListVersions(c echo.Context) error {
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	versions, err := h.workflows.ListVersions(c.Request().Context(), workflowID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	if versions == nil {
		versions = []*models.WorkflowVersion{}
	}

	return respond.Data(c, http.StatusOK, map[string]any{"versions": versions})
}

// GetVersion retrieves one version
// GET /api/v1/workflows/:id/versions/:versionId
func (h *VersionHandler) GetVersion(c echo.Context) error {
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	versionID, err := versionIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	version, err := h.workflows.GetVersion(c.Request().Context(), workflowID, versionID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusOK, map[string]any{"version": version})
}

// CreateVersion allocates the next version number and makes it current
// POST /api/v1/workflows/:id/versions
func (h *VersionHandler) CreateVersion(c echo.Context) error {
	var req createVersionRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("%v", err))
	}

	ident := middleware.GetIdentity(c)
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	version, err := h.workflows.CreateVersion(c.Request().Context(), ident, workflowID, req.ChangeNote)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusCreated, map[string]any{"version": version})
}

// PublishVersion makes a version the single published one
// POST /api/v1/workflows/:id/versions/:versionId/publish
func (h *VersionHandler) PublishVersion(c echo.Context) error {
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	versionID, err := versionIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	ident := middleware.GetIdentity(c)
	version, err := h.workflows.Publish(c.Request().Context(), ident, workflowID, versionID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusOK, map[string]any{"version": version})
}
