package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/cmd/designer/respond"
	"github.com/flowforge/flowforge/cmd/designer/service"
	"github.com/flowforge/flowforge/common/logger"
)

// TaskTypeHandler handles task type catalog requests
type TaskTypeHandler struct {
	taskTypes *service.TaskTypeService
	log       *logger.Logger
}

// NewTaskTypeHandler creates a new task type handler
func NewTaskTypeHandler(taskTypes *service.TaskTypeService, log *logger.Logger) *TaskTypeHandler {
	return &TaskTypeHandler{
		taskTypes: taskTypes,
		log:       log,
	}
}

type createTaskTypeRequest struct {
	Name        string            `json:"name" validate:"required,max=100"`
	Description string            `json:"description" validate:"max=500"`
	FieldSchema []models.FieldDef `json:"field_schema" validate:"required"`
	Icon        string            `json:"icon" validate:"max=50"`
}

type updateTaskTypeRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string           `json:"description" validate:"omitempty,max=500"`
	FieldSchema []models.FieldDef `json:"field_schema"`
	Icon        *string           `json:"icon" validate:"omitempty,max=50"`
	IsActive    *bool             `json:"is_active"`
}

func taskTypeIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Invalid("invalid task type ID")
	}
	return id, nil
}

// ListTaskTypes lists the catalog
// GET /api/v1/task-types?active_only=true
func (h *TaskTypeHandler) ListTaskTypes(c echo.Context) error {
	activeOnly := c.QueryParam("active_only") == "true"

	types, err := h.taskTypes.List(c.Request().Context(), activeOnly)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	if types == nil {
		types = []*models.TaskType{}
	}

	return respond.Data(c, http.StatusOK, map[string]any{"task_types": types})
}

// CreateTaskType adds a task type (platform admins only)
// POST /api/v1/task-types
func (h *TaskTypeHandler) CreateTaskType(c echo.Context) error {
	var req createTaskTypeRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("%v", err))
	}

	taskType, err := h.taskTypes.Create(c.Request().Context(), req.Name, req.Description, req.Icon, req.FieldSchema)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusCreated, map[string]any{"task_type": taskType})
}

// UpdateTaskType applies a partial edit (platform admins only)
// PATCH /api/v1/task-types/:id
func (h *TaskTypeHandler) UpdateTaskType(c echo.Context) error {
	var req updateTaskTypeRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("%v", err))
	}

	id, err := taskTypeIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	taskType, err := h.taskTypes.Update(c.Request().Context(), id, service.TaskTypeUpdate{
		Name:        req.Name,
		Description: req.Description,
		FieldSchema: req.FieldSchema,
		Icon:        req.Icon,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusOK, map[string]any{"task_type": taskType})
}

// DeactivateTaskType soft-disables a task type (platform admins only).
// Historical task nodes keep their reference.
// DELETE /api/v1/task-types/:id
func (h *TaskTypeHandler) DeactivateTaskType(c echo.Context) error {
	id, err := taskTypeIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	if _, err := h.taskTypes.Deactivate(c.Request().Context(), id); err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Message(c, "task type deactivated")
}
