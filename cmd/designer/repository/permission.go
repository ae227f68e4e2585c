package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/common/db"
)

// PermissionRepository handles database operations for permissions
type PermissionRepository struct {
	db *db.DB
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db *db.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Create inserts a permission record. A duplicate (workflow_id, user_id)
// surfaces as Conflict.
func (r *PermissionRepository) Create(ctx context.Context, p *models.Permission) error {
	query := `
		INSERT INTO permissions (id, workflow_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Querier(ctx).Exec(ctx, query,
		p.ID,
		p.WorkflowID,
		p.UserID,
		p.Role,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return apperr.Conflict("user already has a permission on this workflow")
	}
	if err != nil {
		return apperr.Internal(err, "failed to create permission")
	}

	return nil
}

// Get retrieves the permission record for (workflow, user)
func (r *PermissionRepository) Get(ctx context.Context, workflowID uuid.UUID, userID string) (*models.Permission, error) {
	query := `
		SELECT id, workflow_id, user_id, role, created_at, updated_at
		FROM permissions
		WHERE workflow_id = $1 AND user_id = $2
	`

	p := &models.Permission{}
	err := r.db.Querier(ctx).QueryRow(ctx, query, workflowID, userID).Scan(
		&p.ID,
		&p.WorkflowID,
		&p.UserID,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("permission not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to get permission")
	}

	return p, nil
}

// ListByWorkflow retrieves every permission on a workflow
func (r *PermissionRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.Permission, error) {
	query := `
		SELECT id, workflow_id, user_id, role, created_at, updated_at
		FROM permissions
		WHERE workflow_id = $1
		ORDER BY user_id ASC
	`

	rows, err := r.db.Querier(ctx).Query(ctx, query, workflowID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list permissions")
	}
	defer rows.Close()

	var perms []*models.Permission
	for rows.Next() {
		p := &models.Permission{}
		err := rows.Scan(
			&p.ID,
			&p.WorkflowID,
			&p.UserID,
			&p.Role,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, apperr.Internal(err, "failed to scan permission")
		}
		perms = append(perms, p)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "error iterating permissions")
	}

	return perms, nil
}

// UpdateRole changes the role on an existing permission record
func (r *PermissionRepository) UpdateRole(ctx context.Context, workflowID uuid.UUID, userID string, role models.Role) error {
	query := `
		UPDATE permissions
		SET role = $3, updated_at = now()
		WHERE workflow_id = $1 AND user_id = $2
	`

	result, err := r.db.Querier(ctx).Exec(ctx, query, workflowID, userID, role)
	if err != nil {
		return apperr.Internal(err, "failed to update permission")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("permission not found")
	}

	return nil
}

// Delete removes a permission record
func (r *PermissionRepository) Delete(ctx context.Context, workflowID uuid.UUID, userID string) error {
	query := `DELETE FROM permissions WHERE workflow_id = $1 AND user_id = $2`

	result, err := r.db.Querier(ctx).Exec(ctx, query, workflowID, userID)
	if err != nil {
		return apperr.Internal(err, "failed to delete permission")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("permission not found")
	}

	return nil
}

// CountAdmins returns the number of Admin-role holders on a workflow
func (r *PermissionRepository) CountAdmins(ctx context.Context, workflowID uuid.UUID) (int, error) {
	query := `SELECT count(*) FROM permissions WHERE workflow_id = $1 AND role = $2`

	var count int
	if err := r.db.Querier(ctx).QueryRow(ctx, query, workflowID, models.RoleAdmin).Scan(&count); err != nil {
		return 0, apperr.Internal(err, "failed to count admins")
	}

	return count, nil
}
