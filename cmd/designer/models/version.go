package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowVersion is a snapshot of a workflow's node/connection graph.
// Version numbers are dense per workflow, starting at 1; the
// (workflow_id, version_number) pair is unique at the storage level.
// Once published a version is immutable except for the published flag.
// Maps to: workflow_versions table
type WorkflowVersion struct {
	ID            uuid.UUID `db:"id" json:"id"`
	WorkflowID    uuid.UUID `db:"workflow_id" json:"workflow_id"`
	VersionNumber int       `db:"version_number" json:"version_number"`
	ChangeNote    string    `db:"change_note" json:"change_note"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	IsPublished   bool      `db:"is_published" json:"is_published"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
