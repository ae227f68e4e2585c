package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus is the lifecycle state of a workflow
type WorkflowStatus string

const (
	StatusDraft     WorkflowStatus = "Draft"
	StatusPublished WorkflowStatus = "Published"
	StatusArchived  WorkflowStatus = "Archived"
)

// Workflow is a named, versioned process definition.
// Maps to: workflows table
type Workflow struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Status      WorkflowStatus `db:"status" json:"status"`

	// Points at the version currently being edited or displayed.
	// Always references a version owned by this workflow.
	CurrentVersionID *uuid.UUID `db:"current_version_id" json:"current_version_id,omitempty"`

	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsPublished returns true if the workflow is in the Published state
func (w *Workflow) IsPublished() bool {
	return w.Status == StatusPublished
}

// IsArchived returns true if the workflow has been soft-deleted
func (w *Workflow) IsArchived() bool {
	return w.Status == StatusArchived
}
