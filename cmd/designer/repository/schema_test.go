package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The DDL carries invariants the services rely on; losing one of these
// clauses silently weakens them.
func TestSchemaCarriesInvariantIndexes(t *testing.T) {
	// Dense version numbers per workflow
	assert.Contains(t, schemaDDL, "UNIQUE (workflow_id, version_number)")

	// At most one published version per workflow, enforced even when
	// two publish transactions race past each other
	assert.Contains(t, schemaDDL,
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_versions_one_published ON workflow_versions (workflow_id) WHERE is_published")

	// One grant per (workflow, user)
	assert.Contains(t, schemaDDL, "UNIQUE (workflow_id, user_id)")

	// One connection per ordered node pair, no self-loops
	assert.Contains(t, schemaDDL, "UNIQUE (version_id, from_node_id, to_node_id)")
	assert.Contains(t, schemaDDL, "CHECK (from_node_id <> to_node_id)")
}
