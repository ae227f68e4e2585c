package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
)

func TestAuthorizeWithoutGrant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.perms.Authorize(ctx, "mallory", uuid.New(), models.RoleViewer)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDenied))
	// Must not leak whether the workflow exists
	assert.EqualError(t, err, "access denied to this workflow")
}

func TestAuthorizeRoleHierarchy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	_, err = f.perms.Grant(ctx, wf.ID, "viewer", models.RoleViewer)
	require.NoError(t, err)
	_, err = f.perms.Grant(ctx, wf.ID, "editor", models.RoleEditor)
	require.NoError(t, err)

	cases := []struct {
		name     string
		userID   string
		required models.Role
		allowed  bool
	}{
		{"viewer can view", "viewer", models.RoleViewer, true},
		{"viewer cannot edit", "viewer", models.RoleEditor, false},
		{"viewer cannot administer", "viewer", models.RoleAdmin, false},
		{"editor can view", "editor", models.RoleViewer, true},
		{"editor can edit", "editor", models.RoleEditor, true},
		{"editor cannot administer", "editor", models.RoleAdmin, false},
		{"admin can view", "alice", models.RoleViewer, true},
		{"admin can edit", "alice", models.RoleEditor, true},
		{"admin can administer", "alice", models.RoleAdmin, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			perm, err := f.perms.Authorize(ctx, tc.userID, wf.ID, tc.required)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.userID, perm.UserID)
			} else {
				require.Error(t, err)
				assert.True(t, apperr.IsKind(err, apperr.KindDenied))
			}
		})
	}
}

func TestGrantUpdatesExistingRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	p, err := f.perms.Grant(ctx, wf.ID, "bob", models.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, p.Role)

	p, err = f.perms.Grant(ctx, wf.ID, "bob", models.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, p.Role)

	grants, err := f.perms.List(ctx, wf.ID)
	require.NoError(t, err)
	assert.Len(t, grants, 2) // alice + bob, no duplicate row for bob
}

func TestGrantRejectsUnknownRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.perms.Grant(ctx, uuid.New(), "bob", models.Role("Owner"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestRevokeLastAdminRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	err = f.perms.Revoke(ctx, wf.ID, "alice")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// With a second admin in place the revoke goes through
	_, err = f.perms.Grant(ctx, wf.ID, "bob", models.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, f.perms.Revoke(ctx, wf.ID, "alice"))

	_, err = f.perms.Authorize(ctx, "alice", wf.ID, models.RoleViewer)
	assert.True(t, apperr.IsKind(err, apperr.KindDenied))
}

func TestDemoteLastAdminRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	_, err = f.perms.Grant(ctx, wf.ID, "alice", models.RoleEditor)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// Still an admin afterwards
	_, err = f.perms.Authorize(ctx, "alice", wf.ID, models.RoleAdmin)
	require.NoError(t, err)
}

func TestRevokeNonAdminNeverGuarded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := identity("alice")

	wf, err := f.workflows.Create(ctx, alice, "Onboarding", "")
	require.NoError(t, err)

	_, err = f.perms.Grant(ctx, wf.ID, "bob", models.RoleViewer)
	require.NoError(t, err)

	require.NoError(t, f.perms.Revoke(ctx, wf.ID, "bob"))
}
