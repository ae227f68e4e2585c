package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
)

func TestCreateWorkflow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "New hire onboarding")
	require.NoError(t, err)

	assert.Equal(t, models.StatusDraft, wf.Status)
	assert.Equal(t, "alice", wf.CreatedBy)
	require.NotNil(t, wf.CurrentVersionID)

	versions, err := f.workflows.ListVersions(ctx, wf.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.False(t, versions[0].IsPublished)
	assert.Equal(t, versions[0].ID, *wf.CurrentVersionID)

	// Creator gets Admin so the workflow is never orphaned
	perm, err := f.perms.Authorize(ctx, "alice", wf.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, perm.Role)
}

func TestEditDraftDoesNotBranch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	title := "Onboarding v2"
	updated, err := f.workflows.Edit(ctx, alice, wf.ID, WorkflowUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Onboarding v2", updated.Title)
	assert.Equal(t, models.StatusDraft, updated.Status)
	assert.Equal(t, *wf.CurrentVersionID, *updated.CurrentVersionID)

	versions, err := f.workflows.ListVersions(ctx, wf.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestEditPublishedBranchesNewDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)
	v1ID := *wf.CurrentVersionID

	_, err = f.workflows.Publish(ctx, alice, wf.ID, v1ID)
	require.NoError(t, err)

	title := "Onboarding (revised)"
	updated, err := f.workflows.Edit(ctx, alice, wf.ID, WorkflowUpdate{Title: &title})
	require.NoError(t, err)

	// The edit lands on a fresh draft version, not on the published one
	assert.Equal(t, models.StatusDraft, updated.Status)
	assert.NotEqual(t, v1ID, *updated.CurrentVersionID)

	v2, err := f.workflows.GetVersion(ctx, wf.ID, *updated.CurrentVersionID)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)
	assert.False(t, v2.IsPublished)

	// v1 stays published and keeps serving
	v1, err := f.workflows.GetVersion(ctx, wf.ID, v1ID)
	require.NoError(t, err)
	assert.True(t, v1.IsPublished)
}

func TestPublishUnpublishesPreviousVersion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)
	v1ID := *wf.CurrentVersionID

	_, err = f.workflows.Publish(ctx, alice, wf.ID, v1ID)
	require.NoError(t, err)

	v2, err := f.workflows.CreateVersion(ctx, alice, wf.ID, "second draft")
	require.NoError(t, err)

	published, err := f.workflows.Publish(ctx, alice, wf.ID, v2.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)

	// Single published version per workflow
	v1, err := f.workflows.GetVersion(ctx, wf.ID, v1ID)
	require.NoError(t, err)
	assert.False(t, v1.IsPublished)

	got, err := f.workflows.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, got.Status)
	assert.Equal(t, v2.ID, *got.CurrentVersionID)
}

func TestPublishAlreadyPublishedVersion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	_, err = f.workflows.Publish(ctx, alice, wf.ID, *wf.CurrentVersionID)
	require.NoError(t, err)

	_, err = f.workflows.Publish(ctx, alice, wf.ID, *wf.CurrentVersionID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAlreadyInState))
}

func TestPublishLocksWorkflowRowFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	f.state.ops = nil
	_, err = f.workflows.Publish(ctx, alice, wf.ID, *wf.CurrentVersionID)
	require.NoError(t, err)

	// Concurrent publishes serialize on the workflow row: the lock must
	// be taken before the published set is touched
	require.Equal(t, []string{"lock_workflow", "unpublish_all", "set_published"}, f.state.ops)
}

func TestPublishArchivedWorkflowRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	_, err = f.workflows.Archive(ctx, alice, wf.ID)
	require.NoError(t, err)

	_, err = f.workflows.Publish(ctx, alice, wf.ID, *wf.CurrentVersionID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	got, err := f.workflows.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, got.Status)
}

func TestPublishUnknownVersion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	_, err = f.workflows.Publish(ctx, alice, wf.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateVersionNumbersAreDense(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	v2, err := f.workflows.CreateVersion(ctx, alice, wf.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)

	v3, err := f.workflows.CreateVersion(ctx, alice, wf.ID, "third")
	require.NoError(t, err)
	assert.Equal(t, 3, v3.VersionNumber)
	assert.Equal(t, "third", v3.ChangeNote)

	got, err := f.workflows.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, v3.ID, *got.CurrentVersionID)
	assert.Equal(t, models.StatusDraft, got.Status)
}

func TestCreateVersionRetriesOnNumberConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	// Lose the count-then-insert race once; the next attempt wins
	f.versions.conflictsLeft = 1
	before := f.versions.createCalls

	v, err := f.workflows.CreateVersion(ctx, alice, wf.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, v.VersionNumber)
	assert.Equal(t, before+2, f.versions.createCalls)
}

func TestCreateVersionGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	f.versions.conflictsLeft = maxVersionRetries + 1

	_, err = f.workflows.CreateVersion(ctx, alice, wf.ID, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestArchiveLeavesVersionsAlone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)
	v1ID := *wf.CurrentVersionID

	_, err = f.workflows.Publish(ctx, alice, wf.ID, v1ID)
	require.NoError(t, err)

	archived, err := f.workflows.Archive(ctx, alice, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, archived.Status)
	assert.Equal(t, v1ID, *archived.CurrentVersionID)

	// The published flag is a version property, not a workflow one
	v1, err := f.workflows.GetVersion(ctx, wf.ID, v1ID)
	require.NoError(t, err)
	assert.True(t, v1.IsPublished)
}

func TestEditArchivedDoesNotBranch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	_, err = f.workflows.Archive(ctx, alice, wf.ID)
	require.NoError(t, err)

	desc := "kept for reference"
	updated, err := f.workflows.Edit(ctx, alice, wf.ID, WorkflowUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, updated.Status)

	versions, err := f.workflows.ListVersions(ctx, wf.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestDuplicateCopiesGraphForNewOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")
	bob := identity("bob")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "New hire onboarding")
	require.NoError(t, err)
	v1ID := *wf.CurrentVersionID

	start, err := f.graph.AddNode(ctx, wf.ID, v1ID, NodeInput{
		Type: models.NodeDecision,
		Name: "Background check passed?",
	})
	require.NoError(t, err)
	end, err := f.graph.AddNode(ctx, wf.ID, v1ID, NodeInput{
		Type:     models.NodeDecision,
		Name:     "Manager approved?",
		Question: "Did the manager sign off?",
	})
	require.NoError(t, err)
	_, err = f.graph.AddConnection(ctx, wf.ID, v1ID, ConnectionInput{
		FromNodeID: start.ID,
		ToNodeID:   end.ID,
		Label:      "yes",
	})
	require.NoError(t, err)

	_, err = f.workflows.Publish(ctx, alice, wf.ID, v1ID)
	require.NoError(t, err)

	dup, err := f.workflows.Duplicate(ctx, bob, wf.ID)
	require.NoError(t, err)

	assert.Equal(t, "Onboarding (Copy)", dup.Title)
	assert.Equal(t, "New hire onboarding", dup.Description)
	assert.Equal(t, models.StatusDraft, dup.Status)
	assert.Equal(t, "bob", dup.CreatedBy)

	versions, err := f.workflows.ListVersions(ctx, dup.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.False(t, versions[0].IsPublished)

	// Graph is a deep copy with fresh node ids
	nodes, err := f.graph.ListNodes(ctx, dup.ID, versions[0].ID)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		assert.NotEqual(t, start.ID, n.ID)
		assert.NotEqual(t, end.ID, n.ID)
	}

	conns, err := f.graph.ListConnections(ctx, dup.ID, versions[0].ID)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "yes", conns[0].Label)
	assert.NotEqual(t, start.ID, conns[0].FromNodeID)

	// Duplicator, not the original owner, gets the Admin grant
	_, err = f.perms.Authorize(ctx, "bob", dup.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = f.perms.Authorize(ctx, "alice", dup.ID, models.RoleViewer)
	assert.True(t, apperr.IsKind(err, apperr.KindDenied))

	// Source untouched
	src, err := f.workflows.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, src.Status)
	srcNodes, err := f.graph.ListNodes(ctx, wf.ID, v1ID)
	require.NoError(t, err)
	assert.Len(t, srcNodes, 2)
}

func TestDuplicateCopiesTaskData(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	taskType, err := f.taskTypes.Create(ctx, "Approval", "", "check", []models.FieldDef{
		{Name: "approver", Label: "Approver", Type: models.FieldText, Required: true},
	})
	require.NoError(t, err)

	wf, err := f.workflows.Create(ctx, alice, "Expenses", "")
	require.NoError(t, err)
	v1ID := *wf.CurrentVersionID

	_, err = f.graph.AddNode(ctx, wf.ID, v1ID, NodeInput{
		Type:       models.NodeTask,
		Name:       "Manager approval",
		TaskTypeID: &taskType.ID,
		TaskData:   json.RawMessage(`{"approver":"carol"}`),
	})
	require.NoError(t, err)

	dup, err := f.workflows.Duplicate(ctx, alice, wf.ID)
	require.NoError(t, err)

	nodes, err := f.graph.ListNodes(ctx, dup.ID, *dup.CurrentVersionID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.NotNil(t, nodes[0].Task)
	assert.Equal(t, taskType.ID, nodes[0].Task.TaskTypeID)
	assert.JSONEq(t, `{"approver":"carol"}`, string(nodes[0].Task.TaskData))
}
