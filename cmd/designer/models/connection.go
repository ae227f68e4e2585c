package models

import (
	"time"

	"github.com/google/uuid"
)

// Connection is a directed edge between two nodes of the same version.
// Self-loops are rejected and the ordered (from, to) pair is unique per
// version at the storage level.
// Maps to: connections table
type Connection struct {
	ID         uuid.UUID `db:"id" json:"id"`
	VersionID  uuid.UUID `db:"version_id" json:"version_id"`
	FromNodeID uuid.UUID `db:"from_node_id" json:"from_node_id"`
	ToNodeID   uuid.UUID `db:"to_node_id" json:"to_node_id"`
	Label      string    `db:"label" json:"label"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
