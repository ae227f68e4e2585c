package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NodeType discriminates the node variants
type NodeType string

const (
	NodeTask     NodeType = "TASK"
	NodeDecision NodeType = "DECISION"
)

// Node is one step in a version's graph. It is a tagged variant: Type
// selects which of Task/Decision carries the payload; the other is nil.
// Maps to: nodes table
type Node struct {
	ID          uuid.UUID `db:"id" json:"id"`
	VersionID   uuid.UUID `db:"version_id" json:"version_id"`
	Type        NodeType  `db:"node_type" json:"node_type"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	PositionX   float64   `db:"position_x" json:"position_x"`
	PositionY   float64   `db:"position_y" json:"position_y"`

	Task     *TaskDetails     `json:"task,omitempty"`
	Decision *DecisionDetails `json:"decision,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TaskDetails is the TASK variant payload: a reference to a configurable
// task type plus the free-form form data filled in against its schema
type TaskDetails struct {
	TaskTypeID uuid.UUID       `json:"task_type_id"`
	TaskData   json.RawMessage `json:"task_data"`
}

// DecisionDetails is the DECISION variant payload
type DecisionDetails struct {
	Question string `json:"question"`
}
