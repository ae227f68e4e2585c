package models

import (
	"time"

	"github.com/google/uuid"
)

// FieldType enumerates the form field kinds a task type may declare
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldBoolean     FieldType = "boolean"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multi-select"
	FieldDate        FieldType = "date"
)

// ValidFieldType reports whether t is a known field type
func ValidFieldType(t FieldType) bool {
	switch t {
	case FieldText, FieldNumber, FieldBoolean, FieldSelect, FieldMultiSelect, FieldDate:
		return true
	}
	return false
}

// FieldDef describes one configurable form field of a task type
type FieldDef struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`

	// Options is required for select/multi-select fields
	Options []string `json:"options,omitempty"`
}

// TaskType is a reusable task template referenced by TASK nodes.
// Deactivation is a soft flag, never deletion, so historical task
// nodes keep resolving.
// Maps to: task_types table
type TaskType struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	FieldSchema []FieldDef `db:"field_schema" json:"field_schema"`
	Icon        string     `db:"icon" json:"icon"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
