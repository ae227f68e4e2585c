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

// ConnectionRepository handles database operations for connections
type ConnectionRepository struct {
	db *db.DB
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db *db.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Create inserts a connection. A duplicate ordered (from, to) pair in
// the same version surfaces as Conflict.
func (r *ConnectionRepository) Create(ctx context.Context, c *models.Connection) error {
	query := `
		INSERT INTO connections (id, version_id, from_node_id, to_node_id, label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Querier(ctx).Exec(ctx, query,
		c.ID,
		c.VersionID,
		c.FromNodeID,
		c.ToNodeID,
		c.Label,
		c.CreatedAt,
	)

	if isUniqueViolation(err) {
		return apperr.Conflict("connection between these nodes already exists")
	}
	if err != nil {
		return apperr.Internal(err, "failed to create connection")
	}

	return nil
}

// GetByID retrieves a connection scoped to its owning version
func (r *ConnectionRepository) GetByID(ctx context.Context, versionID, connectionID uuid.UUID) (*models.Connection, error) {
	query := `
		SELECT id, version_id, from_node_id, to_node_id, label, created_at
		FROM connections
		WHERE id = $1 AND version_id = $2
	`

	c := &models.Connection{}
	err := r.db.Querier(ctx).QueryRow(ctx, query, connectionID, versionID).Scan(
		&c.ID,
		&c.VersionID,
		&c.FromNodeID,
		&c.ToNodeID,
		&c.Label,
		&c.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("connection not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to get connection")
	}

	return c, nil
}

// ListByVersion retrieves all connections of a version
func (r *ConnectionRepository) ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.Connection, error) {
	query := `
		SELECT id, version_id, from_node_id, to_node_id, label, created_at
		FROM connections
		WHERE version_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Querier(ctx).Query(ctx, query, versionID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list connections")
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		c := &models.Connection{}
		err := rows.Scan(
			&c.ID,
			&c.VersionID,
			&c.FromNodeID,
			&c.ToNodeID,
			&c.Label,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, apperr.Internal(err, "failed to scan connection")
		}
		connections = append(connections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "error iterating connections")
	}

	return connections, nil
}

// Delete removes a connection
func (r *ConnectionRepository) Delete(ctx context.Context, versionID, connectionID uuid.UUID) error {
	query := `DELETE FROM connections WHERE id = $1 AND version_id = $2`

	result, err := r.db.Querier(ctx).Exec(ctx, query, connectionID, versionID)
	if err != nil {
		return apperr.Internal(err, "failed to delete connection")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("connection not found")
	}

	return nil
}

// DeleteByNode removes every connection touching a node, used when the
// node itself is removed
func (r *ConnectionRepository) DeleteByNode(ctx context.Context, versionID, nodeID uuid.UUID) error {
	query := `DELETE FROM connections WHERE version_id = $1 AND (from_node_id = $2 OR to_node_id = $2)`

	if _, err := r.db.Querier(ctx).Exec(ctx, query, versionID, nodeID); err != nil {
		return apperr.Internal(err, "failed to delete node connections")
	}

	return nil
}
