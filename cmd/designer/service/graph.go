package service

import (
	"context"
	"encoding/json"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/common/logger"
)

// GraphService edits the node/connection graph of a version. Versions
// are immutable snapshots once published: graph mutations on a
// published version are rejected rather than auto-branched.
type GraphService struct {
	versions  VersionStore
	nodes     NodeStore
	conns     ConnectionStore
	taskTypes TaskTypeStore
	tx        TxRunner
	log       *logger.Logger
}

// NewGraphService creates a new graph service
func NewGraphService(
	versions VersionStore,
	nodes NodeStore,
	conns ConnectionStore,
	taskTypes TaskTypeStore,
	tx TxRunner,
	log *logger.Logger,
) *GraphService {
	return &GraphService{
		versions:  versions,
		nodes:     nodes,
		conns:     conns,
		taskTypes: taskTypes,
		tx:        tx,
		log:       log,
	}
}

// NodeInput carries a new node; exactly the fields of the selected
// variant are read
type NodeInput struct {
	Type        models.NodeType
	Name        string
	Description string
	PositionX   float64
	PositionY   float64

	// TASK variant
	TaskTypeID *uuid.UUID
	TaskData   json.RawMessage

	// DECISION variant
	Question string
}

// NodeUpdate carries a partial node edit; nil fields are untouched.
// TaskData is applied as a JSON merge patch over the stored data.
type NodeUpdate struct {
	Name        *string
	Description *string
	PositionX   *float64
	PositionY   *float64
	TaskData    json.RawMessage
	Question    *string
}

// ConnectionInput carries a new connection
type ConnectionInput struct {
	FromNodeID uuid.UUID
	ToNodeID   uuid.UUID
	Label      string
}

// ListNodes retrieves the nodes of a version (published versions are
// readable, just not editable)
func (s *GraphService) ListNodes(ctx context.Context, workflowID, versionID uuid.UUID) ([]*models.Node, error) {
	if _, err := s.versions.GetByID(ctx, workflowID, versionID); err != nil {
		return nil, err
	}
	return s.nodes.ListByVersion(ctx, versionID)
}

// ListConnections retrieves the connections of a version
func (s *GraphService) ListConnections(ctx context.Context, workflowID, versionID uuid.UUID) ([]*models.Connection, error) {
	if _, err := s.versions.GetByID(ctx, workflowID, versionID); err != nil {
		return nil, err
	}
	return s.conns.ListByVersion(ctx, versionID)
}

// AddNode creates a node on an editable version
func (s *GraphService) AddNode(ctx context.Context, workflowID, versionID uuid.UUID, input NodeInput) (*models.Node, error) {
	if _, err := s.editableVersion(ctx, workflowID, versionID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	node := &models.Node{
		ID:          uuid.New(),
		VersionID:   versionID,
		Type:        input.Type,
		Name:        input.Name,
		Description: input.Description,
		PositionX:   input.PositionX,
		PositionY:   input.PositionY,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch input.Type {
	case models.NodeTask:
		if input.TaskTypeID == nil {
			return nil, apperr.Invalid("task nodes require a task_type_id")
		}
		taskType, err := s.taskTypes.GetByID(ctx, *input.TaskTypeID)
		if err != nil {
			return nil, err
		}
		if !taskType.IsActive {
			return nil, apperr.Invalid("task type %q is inactive", taskType.Name)
		}
		if err := validateTaskData(taskType, input.TaskData); err != nil {
			return nil, err
		}
		data := input.TaskData
		if len(data) == 0 {
			data = json.RawMessage(`{}`)
		}
		node.Task = &models.TaskDetails{
			TaskTypeID: *input.TaskTypeID,
			TaskData:   data,
		}
	case models.NodeDecision:
		node.Decision = &models.DecisionDetails{Question: input.Question}
	default:
		return nil, apperr.Invalid("unknown node type %q", input.Type)
	}

	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, err
	}

	return node, nil
}

// UpdateNode applies a partial edit to a node on an editable version.
// The node's variant is fixed at creation; task data merges per
// RFC 7386 and is re-validated against the task type schema.
func (s *GraphService) UpdateNode(ctx context.Context, workflowID, versionID, nodeID uuid.UUID, update NodeUpdate) (*models.Node, error) {
	if _, err := s.editableVersion(ctx, workflowID, versionID); err != nil {
		return nil, err
	}

	node, err := s.nodes.GetByID(ctx, versionID, nodeID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		node.Name = *update.Name
	}
	if update.Description != nil {
		node.Description = *update.Description
	}
	if update.PositionX != nil {
		node.PositionX = *update.PositionX
	}
	if update.PositionY != nil {
		node.PositionY = *update.PositionY
	}

	if update.TaskData != nil {
		if node.Task == nil {
			return nil, apperr.Invalid("task_data only applies to task nodes")
		}
		merged, err := jsonpatch.MergePatch(node.Task.TaskData, update.TaskData)
		if err != nil {
			return nil, apperr.Invalid("invalid task_data patch: %v", err)
		}
		taskType, err := s.taskTypes.GetByID(ctx, node.Task.TaskTypeID)
		if err != nil {
			return nil, err
		}
		if err := validateTaskData(taskType, merged); err != nil {
			return nil, err
		}
		node.Task.TaskData = merged
	}

	if update.Question != nil {
		if node.Decision == nil {
			return nil, apperr.Invalid("question only applies to decision nodes")
		}
		node.Decision.Question = *update.Question
	}

	if err := s.nodes.Update(ctx, node); err != nil {
		return nil, err
	}

	return node, nil
}

// DeleteNode removes a node and every connection touching it
func (s *GraphService) DeleteNode(ctx context.Context, workflowID, versionID, nodeID uuid.UUID) error {
	if _, err := s.editableVersion(ctx, workflowID, versionID); err != nil {
		return err
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.conns.DeleteByNode(ctx, versionID, nodeID); err != nil {
			return err
		}
		return s.nodes.Delete(ctx, versionID, nodeID)
	})
}

// AddConnection creates a directed edge between two nodes of the same
// editable version. Self-loops and duplicate (from, to) pairs are
// conflicts.
func (s *GraphService) AddConnection(ctx context.Context, workflowID, versionID uuid.UUID, input ConnectionInput) (*models.Connection, error) {
	if _, err := s.editableVersion(ctx, workflowID, versionID); err != nil {
		return nil, err
	}

	if input.FromNodeID == input.ToNodeID {
		return nil, apperr.Conflict("connection cannot point at its own source node")
	}

	if _, err := s.nodes.GetByID(ctx, versionID, input.FromNodeID); err != nil {
		return nil, err
	}
	if _, err := s.nodes.GetByID(ctx, versionID, input.ToNodeID); err != nil {
		return nil, err
	}

	conn := &models.Connection{
		ID:         uuid.New(),
		VersionID:  versionID,
		FromNodeID: input.FromNodeID,
		ToNodeID:   input.ToNodeID,
		Label:      input.Label,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.conns.Create(ctx, conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// DeleteConnection removes a connection from an editable version
func (s *GraphService) DeleteConnection(ctx context.Context, workflowID, versionID, connectionID uuid.UUID) error {
	if _, err := s.editableVersion(ctx, workflowID, versionID); err != nil {
		return err
	}
	return s.conns.Delete(ctx, versionID, connectionID)
}

func (s *GraphService) editableVersion(ctx context.Context, workflowID, versionID uuid.UUID) (*models.WorkflowVersion, error) {
	version, err := s.versions.GetByID(ctx, workflowID, versionID)
	if err != nil {
		return nil, err
	}
	if version.IsPublished {
		return nil, apperr.Conflict("version %d is published and immutable; create a new version first", version.VersionNumber)
	}
	return version, nil
}
