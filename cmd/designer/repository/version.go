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

// VersionRepository handles database operations for workflow versions
type VersionRepository struct {
	db *db.DB
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(db *db.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Create inserts a new version. A duplicate (workflow_id, version_number)
// surfaces as Conflict so callers can retry the count-and-create step.
func (r *VersionRepository) Create(ctx context.Context, v *models.WorkflowVersion) error {
	query := `
		INSERT INTO workflow_versions (id, workflow_id, version_number, change_note, created_by, is_published, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Querier(ctx).Exec(ctx, query,
		v.ID,
		v.WorkflowID,
		v.VersionNumber,
		v.ChangeNote,
		v.CreatedBy,
		v.IsPublished,
		v.CreatedAt,
	)

	if isUniqueViolation(err) {
		return apperr.Conflict("version number %d already exists", v.VersionNumber)
	}
	if err != nil {
		return apperr.Internal(err, "failed to create version")
	}

	return nil
}

// GetByID retrieves a version scoped to its owning workflow
func (r *VersionRepository) GetByID(ctx context.Context, workflowID, versionID uuid.UUID) (*models.WorkflowVersion, error) {
	query := `
		SELECT id, workflow_id, version_number, change_note, created_by, is_published, created_at
		FROM workflow_versions
		WHERE id = $1 AND workflow_id = $2
	`

	v := &models.WorkflowVersion{}
	err := r.db.Querier(ctx).QueryRow(ctx, query, versionID, workflowID).Scan(
		&v.ID,
		&v.WorkflowID,
		&v.VersionNumber,
		&v.ChangeNote,
		&v.CreatedBy,
		&v.IsPublished,
		&v.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("version not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to get version")
	}

	return v, nil
}

// ListByWorkflow retrieves all versions of a workflow, newest first
func (r *VersionRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.WorkflowVersion, error) {
	query := `
		SELECT id, workflow_id, version_number, change_note, created_by, is_published, created_at
		FROM workflow_versions
		WHERE workflow_id = $1
		ORDER BY version_number DESC
	`

	rows, err := r.db.Querier(ctx).Query(ctx, query, workflowID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list versions")
	}
	defer rows.Close()

	var versions []*models.WorkflowVersion
	for rows.Next() {
		v := &models.WorkflowVersion{}
		err := rows.Scan(
			&v.ID,
			&v.WorkflowID,
			&v.VersionNumber,
			&v.ChangeNote,
			&v.CreatedBy,
			&v.IsPublished,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, apperr.Internal(err, "failed to scan version")
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "error iterating versions")
	}

	return versions, nil
}

// CountByWorkflow returns the number of versions a workflow owns
func (r *VersionRepository) CountByWorkflow(ctx context.Context, workflowID uuid.UUID) (int, error) {
	query := `SELECT count(*) FROM workflow_versions WHERE workflow_id = $1`

	var count int
	if err := r.db.Querier(ctx).QueryRow(ctx, query, workflowID).Scan(&count); err != nil {
		return 0, apperr.Internal(err, "failed to count versions")
	}

	return count, nil
}

// UnpublishAll clears the published flag on every version of a workflow
func (r *VersionRepository) UnpublishAll(ctx context.Context, workflowID uuid.UUID) error {
	query := `UPDATE workflow_versions SET is_published = FALSE WHERE workflow_id = $1 AND is_published = TRUE`

	if _, err := r.db.Querier(ctx).Exec(ctx, query, workflowID); err != nil {
		return apperr.Internal(err, "failed to unpublish versions")
	}

	return nil
}

// SetPublished marks a single version published or unpublished. The
// partial unique index on (workflow_id) WHERE is_published backstops
// the single-published-version invariant; a violation surfaces as
// Conflict.
func (r *VersionRepository) SetPublished(ctx context.Context, versionID uuid.UUID, published bool) error {
	query := `UPDATE workflow_versions SET is_published = $2 WHERE id = $1`

	result, err := r.db.Querier(ctx).Exec(ctx, query, versionID, published)
	if isUniqueViolation(err) {
		return apperr.Conflict("another version of this workflow is already published")
	}
	if err != nil {
		return apperr.Internal(err, "failed to set published flag")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("version not found")
	}

	return nil
}
