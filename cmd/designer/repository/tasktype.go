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

// TaskTypeRepository handles database operations for task types
type TaskTypeRepository struct {
	db *db.DB
}

// NewTaskTypeRepository creates a new task type repository
func NewTaskTypeRepository(db *db.DB) *TaskTypeRepository {
	return &TaskTypeRepository{db: db}
}

// Create inserts a task type. A duplicate name surfaces as Conflict.
func (r *TaskTypeRepository) Create(ctx context.Context, t *models.TaskType) error {
	query := `
		INSERT INTO task_types (id, name, description, field_schema, icon, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	schema, err := json.Marshal(t.FieldSchema)
	if err != nil {
		return apperr.Internal(err, "failed to encode field schema")
	}

	_, err = r.db.Querier(ctx).Exec(ctx, query,
		t.ID,
		t.Name,
		t.Description,
		string(schema),
		t.Icon,
		t.IsActive,
		t.CreatedAt,
		t.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return apperr.Conflict("task type name %q already exists", t.Name)
	}
	if err != nil {
		return apperr.Internal(err, "failed to create task type")
	}

	return nil
}

func scanTaskType(row pgx.Row) (*models.TaskType, error) {
	t := &models.TaskType{}
	var schema []byte

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&schema,
		&t.Icon,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(schema, &t.FieldSchema); err != nil {
		return nil, err
	}

	return t, nil
}

// GetByID retrieves a task type
func (r *TaskTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TaskType, error) {
	query := `
		SELECT id, name, description, field_schema, icon, is_active, created_at, updated_at
		FROM task_types
		WHERE id = $1
	`

	t, err := scanTaskType(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("task type not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to get task type")
	}

	return t, nil
}

// List retrieves task types sorted by name, optionally only active ones
func (r *TaskTypeRepository) List(ctx context.Context, activeOnly bool) ([]*models.TaskType, error) {
	query := `
		SELECT id, name, description, field_schema, icon, is_active, created_at, updated_at
		FROM task_types
	`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list task types")
	}
	defer rows.Close()

	var types []*models.TaskType
	for rows.Next() {
		t, err := scanTaskType(rows)
		if err != nil {
			return nil, apperr.Internal(err, "failed to scan task type")
		}
		types = append(types, t)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "error iterating task types")
	}

	return types, nil
}

// Update persists task type fields
func (r *TaskTypeRepository) Update(ctx context.Context, t *models.TaskType) error {
	query := `
		UPDATE task_types
		SET name = $2, description = $3, field_schema = $4, icon = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`

	schema, err := json.Marshal(t.FieldSchema)
	if err != nil {
		return apperr.Internal(err, "failed to encode field schema")
	}

	t.UpdatedAt = time.Now().UTC()

	result, err := r.db.Querier(ctx).Exec(ctx, query,
		t.ID,
		t.Name,
		t.Description,
		string(schema),
		t.Icon,
		t.IsActive,
		t.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return apperr.Conflict("task type name %q already exists", t.Name)
	}
	if err != nil {
		return apperr.Internal(err, "failed to update task type")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("task type not found")
	}

	return nil
}
