package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/common/db"
)

// NodeRepository handles database operations for nodes.
// The two variants share one table; the variant payload lives in the
// nullable task_type_id/task_data/decision_question columns.
type NodeRepository struct {
	db *db.DB
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(db *db.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

func nodeVariantColumns(n *models.Node) (taskTypeID *uuid.UUID, taskData *string, question *string) {
	if n.Task != nil {
		taskTypeID = &n.Task.TaskTypeID
		data := string(n.Task.TaskData)
		if data == "" {
			data = "{}"
		}
		taskData = &data
	}
	if n.Decision != nil {
		question = &n.Decision.Question
	}
	return
}

func scanNode(row pgx.Row) (*models.Node, error) {
	n := &models.Node{}
	var (
		taskTypeID *uuid.UUID
		taskData   []byte
		question   *string
	)

	err := row.Scan(
		&n.ID,
		&n.VersionID,
		&n.Type,
		&n.Name,
		&n.Description,
		&n.PositionX,
		&n.PositionY,
		&taskTypeID,
		&taskData,
		&question,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch n.Type {
	case models.NodeTask:
		if taskTypeID != nil {
			n.Task = &models.TaskDetails{
				TaskTypeID: *taskTypeID,
				TaskData:   json.RawMessage(taskData),
			}
		}
	case models.NodeDecision:
		d := &models.DecisionDetails{}
		if question != nil {
			d.Question = *question
		}
		n.Decision = d
	}

	return n, nil
}

const nodeColumns = `id, version_id, node_type, name, description, position_x, position_y, task_type_id, task_data, decision_question, created_at, updated_at`

// Create inserts a new node
func (r *NodeRepository) Create(ctx context.Context, n *models.Node) error {
	query := `
		INSERT INTO nodes (` + nodeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	taskTypeID, taskData, question := nodeVariantColumns(n)

	_, err := r.db.Querier(ctx).Exec(ctx, query,
		n.ID,
		n.VersionID,
		n.Type,
		n.Name,
		n.Description,
		n.PositionX,
		n.PositionY,
		taskTypeID,
		taskData,
		question,
		n.CreatedAt,
		n.UpdatedAt,
	)

	if err != nil {
		return apperr.Internal(err, "failed to create node")
	}

	return nil
}

// GetByID retrieves a node scoped to its owning version
func (r *NodeRepository) GetByID(ctx context.Context, versionID, nodeID uuid.UUID) (*models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE id = $1 AND version_id = $2
	`

	n, err := scanNode(r.db.Querier(ctx).QueryRow(ctx, query, nodeID, versionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("node not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to get node")
	}

	return n, nil
}

// ListByVersion retrieves all nodes of a version
func (r *NodeRepository) ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE version_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Querier(ctx).Query(ctx, query, versionID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list nodes")
	}
	defer rows.Close()

	var nodes []*models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, apperr.Internal(err, "failed to scan node")
		}
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "error iterating nodes")
	}

	return nodes, nil
}

// Update persists node fields and the variant payload
func (r *NodeRepository) Update(ctx context.Context, n *models.Node) error {
	query := `
		UPDATE nodes
		SET name = $3, description = $4, position_x = $5, position_y = $6,
		    task_type_id = $7, task_data = $8, decision_question = $9, updated_at = $10
		WHERE id = $1 AND version_id = $2
	`

	taskTypeID, taskData, question := nodeVariantColumns(n)
	n.UpdatedAt = time.Now().UTC()

	result, err := r.db.Querier(ctx).Exec(ctx, query,
		n.ID,
		n.VersionID,
		n.Name,
		n.Description,
		n.PositionX,
		n.PositionY,
		taskTypeID,
		taskData,
		question,
		n.UpdatedAt,
	)
	if err != nil {
		return apperr.Internal(err, "failed to update node")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("node not found")
	}

	return nil
}

// Delete removes a node
func (r *NodeRepository) Delete(ctx context.Context, versionID, nodeID uuid.UUID) error {
	query := `DELETE FROM nodes WHERE id = $1 AND version_id = $2`

	result, err := r.db.Querier(ctx).Exec(ctx, query, nodeID, versionID)
	if err != nil {
		return apperr.Internal(err, "failed to delete node")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("node not found")
	}

	return nil
}
