package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/common/db"
)

// WorkflowRepository handles database operations for workflows
type WorkflowRepository struct {
	db *db.DB
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *db.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Create inserts a new workflow
func (r *WorkflowRepository) Create(ctx context.Context, w *models.Workflow) error {
	query := `
		INSERT INTO workflows (id, title, description, status, current_version_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Querier(ctx).Exec(ctx, query,
		w.ID,
		w.Title,
		w.Description,
		w.Status,
		w.CurrentVersionID,
		w.CreatedBy,
		w.CreatedAt,
		w.UpdatedAt,
	)

	if err != nil {
		return apperr.Internal(err, "failed to create workflow")
	}

	return nil
}

// GetByID retrieves a workflow by id
func (r *WorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves a workflow by id and locks its row for the
// rest of the enclosing transaction. Publish serializes on this lock so
// two concurrent publishes cannot both see a stale published set.
func (r *WorkflowRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	return r.getByID(ctx, id, true)
}

func (r *WorkflowRepository) getByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Workflow, error) {
	query := `
		SELECT id, title, description, status, current_version_id, created_by, created_at, updated_at
		FROM workflows
		WHERE id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	w := &models.Workflow{}
	err := r.db.Querier(ctx).QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.Title,
		&w.Description,
		&w.Status,
		&w.CurrentVersionID,
		&w.CreatedBy,
		&w.CreatedAt,
		&w.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("workflow not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to get workflow")
	}

	return w, nil
}

// Update persists workflow-level fields (title, description, status,
// current version pointer)
func (r *WorkflowRepository) Update(ctx context.Context, w *models.Workflow) error {
	query := `
		UPDATE workflows
		SET title = $2, description = $3, status = $4, current_version_id = $5, updated_at = $6
		WHERE id = $1
	`

	w.UpdatedAt = time.Now().UTC()

	result, err := r.db.Querier(ctx).Exec(ctx, query,
		w.ID,
		w.Title,
		w.Description,
		w.Status,
		w.CurrentVersionID,
		w.UpdatedAt,
	)
	if err != nil {
		return apperr.Internal(err, "failed to update workflow")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("workflow not found")
	}

	return nil
}

// ListForUser retrieves workflows the user holds any permission on,
// newest-updated first, with the total count for pagination
func (r *WorkflowRepository) ListForUser(ctx context.Context, userID string, filter models.WorkflowFilter) ([]*models.Workflow, int, error) {
	filter.Normalize()

	where := `WHERE p.user_id = $1`
	args := []any{userID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND w.status = $%d", len(args))
	}
	if filter.Owner != "" {
		args = append(args, filter.Owner)
		where += fmt.Sprintf(" AND w.created_by = $%d", len(args))
	}

	countQuery := `
		SELECT count(*)
		FROM workflows w
		JOIN permissions p ON p.workflow_id = w.id
	` + where

	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(err, "failed to count workflows")
	}

	args = append(args, filter.Limit, filter.Offset())
	listQuery := fmt.Sprintf(`
		SELECT w.id, w.title, w.description, w.status, w.current_version_id, w.created_by, w.created_at, w.updated_at
		FROM workflows w
		JOIN permissions p ON p.workflow_id = w.id
		%s
		ORDER BY w.updated_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Querier(ctx).Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, apperr.Internal(err, "failed to list workflows")
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		w := &models.Workflow{}
		err := rows.Scan(
			&w.ID,
			&w.Title,
			&w.Description,
			&w.Status,
			&w.CurrentVersionID,
			&w.CreatedBy,
			&w.CreatedAt,
			&w.UpdatedAt,
		)
		if err != nil {
			return nil, 0, apperr.Internal(err, "failed to scan workflow")
		}
		workflows = append(workflows, w)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Internal(err, "error iterating workflows")
	}

	return workflows, total, nil
}
