package handlers

import (
	"encoding/json"
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

// GraphHandler handles node and connection requests on a version
type GraphHandler struct {
	graph *service.GraphService
	log   *logger.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(graph *service.GraphService, log *logger.Logger) *GraphHandler {
	return &GraphHandler{
		graph: graph,
		log:   log,
	}
}

type createNodeRequest struct {
	Type        models.NodeType `json:"node_type" validate:"required,oneof=TASK DECISION"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	PositionX   float64         `json:"position_x"`
	PositionY   float64         `json:"position_y"`
	TaskTypeID  *uuid.UUID      `json:"task_type_id"`
	TaskData    json.RawMessage `json:"task_data"`
	Question    string          `json:"question" validate:"max=500"`
}

type updateNodeRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	PositionX   *float64        `json:"position_x"`
	PositionY   *float64        `json:"position_y"`
	TaskData    json.RawMessage `json:"task_data"`
	Question    *string         `json:"question" validate:"omitempty,max=500"`
}

type createConnectionRequest struct {
	FromNodeID uuid.UUID `json:"from_node_id" validate:"required"`
	ToNodeID   uuid.UUID `json:"to_node_id" validate:"required"`
	Label      string    `json:"label" validate:"max=100"`
}

// ListNodes lists the nodes of a version
// GET /api/v1/workflows/:id/versions/:versionId/nodes
func (h *GraphHandler) ListNodes(c echo.Context) error {
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID
	versionID, err := versionIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	nodes, err := h.graph.ListNodes(c.Request().Context(), workflowID, versionID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	if nodes == nil {
		nodes = []*models.Node{}
	}

	return respond.Data(c, http.StatusOK, map[string]any{"nodes": nodes})
}

// CreateNode adds a node to a draft version
// POST /api/v1/workflows/:id/versions/:versionId/nodes
func (h *GraphHandler) CreateNode(c echo.Context) error {
	var req createNodeRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("%v", err))
	}

	workflowID := middleware.GetWorkflowPermission(c).WorkflowID
	versionID, err := versionIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	node, err := h.graph.AddNode(c.Request().Context(), workflowID, versionID, service.NodeInput{
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		PositionX:   req.PositionX,
		PositionY:   req.PositionY,
		TaskTypeID:  req.TaskTypeID,
		TaskData:    req.TaskData,
		Question:    req.Question,
	})
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusCreated, map[string]any{"node": node})
}

// UpdateNode applies a partial edit to a node
// PATCH /api/v1/workflows/:id/versions/:versionId/nodes/:nodeId
func (h *GraphHandler) UpdateNode(c echo.Context) error {
	var req updateNodeRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("%v", err))
	}

	workflowID := middleware.GetWorkflowPermission(c).WorkflowID
	versionID, err := versionIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	nodeID, err := uuid.Parse(c.Param("nodeId"))
	if err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid node ID"))
	}

	node, err := h.graph.UpdateNode(c.Request().Context(), workflowID, versionID, nodeID, service.NodeUpdate{
		Name:        req.Name,
		Description: req.Description,
		PositionX:   req.PositionX,
		PositionY:   req.PositionY,
		TaskData:    req.TaskData,
		Question:    req.Question,
	})
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusOK, map[string]any{"node": node})
}

// DeleteNode removes a node and its connections
// DELETE /api/v1/workflows/:id/versions/:versionId/nodes/:nodeId
func (h *GraphHandler) DeleteNode(c echo.Context) error {
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID
	versionID, err := versionIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	nodeID, err := uuid.Parse(c.Param("nodeId"))
	if err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid node ID"))
	}

	if err := h.graph.DeleteNode(c.Request().Context(), workflowID, versionID, nodeID); err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Message(c, "node deleted")
}

// ListConnections lists the connections of a version
// GET /api/v1/workflows/:id/versions/:versionId/connections
func (h *GraphHandler) ListConnections(c echo.Context) error {
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID
	versionID, err := versionIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	connections, err := h.graph.ListConnections(c.Request().Context(), workflowID, versionID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	if connections == nil {
		connections = []*models.Connection{}
	}

	return respond.Data(c, http.StatusOK, map[string]any{"connections": connections})
}

// CreateConnection adds a directed edge between two nodes
// POST /api/v1/workflows/:id/versions/:versionId/connections
func (h *GraphHandler) CreateConnection(c echo.Context) error {
	var req createConnectionRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respond.Error(c, h.log, apperr.Invalid("%v", err))
	}

	workflowID := middleware.GetWorkflowPermission(c).WorkflowID
	versionID, err := versionIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	conn, err := h.graph.AddConnection(c.Request().Context(), workflowID, versionID, service.ConnectionInput{
		FromNodeID: req.FromNodeID,
		ToNodeID:   req.ToNodeID,
		Label:      req.Label,
	})
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Data(c, http.StatusCreated, map[string]any{"connection": conn})
}

// DeleteConnection removes a connection
// DELETE /api/v1/workflows/:id/versions/:versionId/connections/:connectionId
func (h *GraphHandler) DeleteConnection(c echo.Context) error {
	workflowID := middleware.GetWorkflowPermission(c).WorkflowID
	versionID, err := versionIDParam(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	connectionID, err := uuid.Parse(c.Param("connectionId"))
	if err != nil {
		return respond.Error(c, h.log, apperr.Invalid("invalid connection ID"))
	}

	if err := h.graph.DeleteConnection(c.Request().Context(), workflowID, versionID, connectionID); err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Message(c, "connection deleted")
}
