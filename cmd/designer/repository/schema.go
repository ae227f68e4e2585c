package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/flowforge/flowforge/common/db"
)

// schemaDDL creates the designer tables. Unique indexes carry the
// invariants the component logic relies on: dense version numbers per
// workflow, at most one published version per workflow, one permission
// per (workflow, user), one connection per ordered node pair, no
// self-loops. Referential integrity is handled by the services, not by
// foreign keys.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS workflows (
	id                 UUID PRIMARY KEY,
	title              TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'Draft',
	current_version_id UUID,
	created_by         TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_workflows_created_by_status ON workflows (created_by, status);

CREATE TABLE IF NOT EXISTS workflow_versions (
	id             UUID PRIMARY KEY,
	workflow_id    UUID NOT NULL,
	version_number INT NOT NULL CHECK (version_number >= 1),
	change_note    TEXT NOT NULL DEFAULT '',
	created_by     TEXT NOT NULL,
	is_published   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workflow_id, version_number)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_versions_one_published ON workflow_versions (workflow_id) WHERE is_published;

CREATE TABLE IF NOT EXISTS permissions (
	id          UUID PRIMARY KEY,
	workflow_id UUID NOT NULL,
	user_id     TEXT NOT NULL,
	role        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workflow_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_permissions_user ON permissions (user_id);

CREATE TABLE IF NOT EXISTS nodes (
	id                UUID PRIMARY KEY,
	version_id        UUID NOT NULL,
	node_type         TEXT NOT NULL,
	name              TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	position_x        DOUBLE PRECISION NOT NULL DEFAULT 0,
	position_y        DOUBLE PRECISION NOT NULL DEFAULT 0,
	task_type_id      UUID,
	task_data         JSONB,
	decision_question TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_nodes_version ON nodes (version_id, node_type);

CREATE TABLE IF NOT EXISTS connections (
	id           UUID PRIMARY KEY,
	version_id   UUID NOT NULL,
	from_node_id UUID NOT NULL,
	to_node_id   UUID NOT NULL,
	label        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (version_id, from_node_id, to_node_id),
	CHECK (from_node_id <> to_node_id)
);
CREATE INDEX IF NOT EXISTS idx_connections_version ON connections (version_id);

CREATE TABLE IF NOT EXISTS task_types (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	description  TEXT NOT NULL DEFAULT '',
	field_schema JSONB NOT NULL,
	icon         TEXT NOT NULL DEFAULT '',
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// InitSchema applies the designer schema. Safe to run on every startup.
func InitSchema(database *db.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := database.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}
