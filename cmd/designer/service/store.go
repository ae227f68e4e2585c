package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowforge/flowforge/cmd/designer/models"
)

// Storage interfaces the services run against. The pgx repositories in
// the repository package satisfy them; tests substitute in-memory fakes.

// TxRunner runs fn atomically. Mutations inside fn either all commit
// or all roll back; nested calls join the enclosing transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WorkflowStore persists workflow records. GetByIDForUpdate must lock
// the row for the rest of the enclosing transaction.
type WorkflowStore interface {
	Create(ctx context.Context, w *models.Workflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Workflow, error)
	Update(ctx context.Context, w *models.Workflow) error
	ListForUser(ctx context.Context, userID string, filter models.WorkflowFilter) ([]*models.Workflow, int, error)
}

// VersionStore persists workflow versions and enforces the
// (workflow_id, version_number) uniqueness invariant
type VersionStore interface {
	Create(ctx context.Context, v *models.WorkflowVersion) error
	GetByID(ctx context.Context, workflowID, versionID uuid.UUID) (*models.WorkflowVersion, error)
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.WorkflowVersion, error)
	CountByWorkflow(ctx context.Context, workflowID uuid.UUID) (int, error)
	UnpublishAll(ctx context.Context, workflowID uuid.UUID) error
	SetPublished(ctx context.Context, versionID uuid.UUID, published bool) error
}

// PermissionStore persists per-workflow role grants and enforces the
// (workflow_id, user_id) uniqueness invariant
type PermissionStore interface {
	Create(ctx context.Context, p *models.Permission) error
	Get(ctx context.Context, workflowID uuid.UUID, userID string) (*models.Permission, error)
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.Permission, error)
	UpdateRole(ctx context.Context, workflowID uuid.UUID, userID string, role models.Role) error
	Delete(ctx context.Context, workflowID uuid.UUID, userID string) error
	CountAdmins(ctx context.Context, workflowID uuid.UUID) (int, error)
}

// NodeStore persists nodes
type NodeStore interface {
	Create(ctx context.Context, n *models.Node) error
	GetByID(ctx context.Context, versionID, nodeID uuid.UUID) (*models.Node, error)
	ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.Node, error)
	Update(ctx context.Context, n *models.Node) error
	Delete(ctx context.Context, versionID, nodeID uuid.UUID) error
}

// ConnectionStore persists connections and enforces the per-version
// (from_node, to_node) uniqueness invariant
type ConnectionStore interface {
	Create(ctx context.Context, c *models.Connection) error
	GetByID(ctx context.Context, versionID, connectionID uuid.UUID) (*models.Connection, error)
	ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.Connection, error)
	Delete(ctx context.Context, versionID, connectionID uuid.UUID) error
	DeleteByNode(ctx context.Context, versionID, nodeID uuid.UUID) error
}

// TaskTypeStore persists the task type catalog
type TaskTypeStore interface {
	Create(ctx context.Context, t *models.TaskType) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TaskType, error)
	List(ctx context.Context, activeOnly bool) ([]*models.TaskType, error)
	Update(ctx context.Context, t *models.TaskType) error
}
