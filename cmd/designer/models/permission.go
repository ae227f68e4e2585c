package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a per-workflow permission level with a total order:
// Viewer < Editor < Admin
type Role string

const (
	RoleViewer Role = "Viewer"
	RoleEditor Role = "Editor"
	RoleAdmin  Role = "Admin"
)

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants everything required does
func (r Role) AtLeast(required Role) bool {
	return roleRank[r] >= roleRank[required]
}

// Permission grants a user a role on one workflow.
// Unique per (workflow_id, user_id) at the storage level.
// Maps to: permissions table
type Permission struct {
	ID         uuid.UUID `db:"id" json:"id"`
	WorkflowID uuid.UUID `db:"workflow_id" json:"workflow_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Role       Role      `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
