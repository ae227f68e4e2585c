package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/middleware"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/cmd/designer/respond"
	"github.com/flowforge/flowforge/cmd/designer/service"
	"github.com/flowforge/flowforge/common/logger"
)

// WorkflowHandler handles workflow-level requests
type WorkflowHandler struct {
	workflows *service.WorkflowService
	log       *logger.Logger
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(workflows *service.WorkflowService, log *logger.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflows: workflows,
		log:       log,
	}
}

type createWorkflowRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type updateWorkflowRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// CreateWorkflow creates a workflow with its initial version
// POST /api/v1/workflows
func (h *WorkflowHandler) CreateWorkflow(c echo.Context) error {
	var req createWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("%v", err))
	}

	ident := middleware.GetIdentity(c)
	wf, err := h.workflows.Create(c.Request().Context(), ident, req.Title, req.Description)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusCreated, map[string]any{"workflow": wf})
}

// ListWorkflows lists workflows the caller has access to
// GET /api/v1/workflows?status=&owner=&page=&limit=
func (h *WorkflowHandler) ListWorkflows(c echo.Context) error {
	filter := models.WorkflowFilter{
		Status: models.WorkflowStatus(c.QueryParam("status")),
		Owner:  c.QueryParam("owner"),
	}
	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		filter.Limit = limit
	}
	filter.Normalize()

	ident := middleware.GetIdentity(c)
	workflows, total, err := h.workflows.List(c.Request().Context(), ident, filter)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	if workflows == nil {
		workflows = []*models.Workflow{}
	}

	return respond.Data(c, http.StatusOK, map[string]any{
		"workflows": workflows,
		"pagination": pagination{
			Page:  filter.Page,
			Limit: filter.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		},
	})
}

// GetWorkflow retrieves one workflow
// GET /api/v1/workflows/:id
func (h *WorkflowHandler) GetWorkflow(c echo.Context) error {
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	wf, err := h.workflows.Get(c.Request().Context(), workflowID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusOK, map[string]any{"workflow": wf})
}

// UpdateWorkflow applies a metadata edit; editing a published workflow
// branches a new draft version
// PATCH /api/v1/workflows/:id
func (h *WorkflowHandler) UpdateWorkflow(c echo.Context) error {
	var req updateWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("%v", err))
	}
	if req.Title == nil && req.Description == nil {
		return respond.Error(c, h.log, apperr.Invalid("at least one field is required"))
	}

	ident := middleware.GetIdentity(c)
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	wf, err := h.workflows.Edit(c.Request().Context(), ident, workflowID, service.WorkflowUpdate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusOK, map[string]any{"workflow": wf})
}

// ArchiveWorkflow soft-deletes a workflow
// DELETE /api/v1/workflows/:id
func (h *WorkflowHandler) ArchiveWorkflow(c echo.Context) error {
	ident := middleware.GetIdentity(c)
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	if _, err := h.workflows.Archive(c.Request().Context(), ident, workflowID); err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Message(c, "workflow archived")
}

// DuplicateWorkflow copies a workflow and its current graph
// POST /api/v1/workflows/:id/duplicate
func (h *WorkflowHandler) DuplicateWorkflow(c echo.Context) error {
	ident := middleware.GetIdentity(c)
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID

	wf, err := h.workflows.Duplicate(c.Request().Context(), ident, workflowID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusCreated, map[string]any{"workflow": wf})
}
