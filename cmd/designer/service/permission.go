package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/common/logger"
)

// PermissionService is the permission gate: it decides whether a user
// may perform a role-gated action on a workflow, and manages grants.
type PermissionService struct {
	perms PermissionStore
	tx    TxRunner
	log   *logger.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(perms PermissionStore, tx TxRunner, log *logger.Logger) *PermissionService {
	return &PermissionService{
		perms: perms,
		tx:    tx,
		log:   log,
	}
}

// Authorize checks the caller's stored role against the required role.
// It is read-only and must run before any mutation in the request.
// A missing permission record and an insufficient role both come back
// as Denied; the message never reveals whether the workflow exists.
func (s *PermissionService) Authorize(ctx context.Context, userID string, workflowID uuid.UUID, required models.Role) (*models.Permission, error) {
	perm, err := s.perms.Get(ctx, workflowID, userID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, apperr.Denied("access denied to this workflow")
	}
	if err != nil {
		return nil, err
	}

	if !perm.Role.AtLeast(required) {
		return nil, apperr.Denied("%s access required", required)
	}

	return perm, nil
}

// List returns every grant on a workflow
func (s *PermissionService) List(ctx context.Context, workflowID uuid.UUID) ([]*models.Permission, error) {
	return s.perms.ListByWorkflow(ctx, workflowID)
}

// Grant gives a user a role on a workflow, or changes an existing
// grant. Demoting the last Admin is rejected: a workflow must never
// be left without an Admin.
func (s *PermissionService) Grant(ctx context.Context, workflowID uuid.UUID, userID string, role models.Role) (*models.Permission, error) {
	if !role.Valid() {
		return nil, apperr.Invalid("unknown role %q", role)
	}

	var out *models.Permission
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.perms.Get(ctx, workflowID, userID)
		if apperr.IsKind(err, apperr.KindNotFound) {
			now := time.Now().UTC()
			p := &models.Permission{
				ID:         uuid.New(),
				WorkflowID: workflowID,
				UserID:     userID,
				Role:       role,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.perms.Create(ctx, p); err != nil {
				return err
			}
			out = p
			return nil
		}
		if err != nil {
			return err
		}

		if existing.Role == models.RoleAdmin && role != models.RoleAdmin {
			if err := s.guardLastAdmin(ctx, workflowID); err != nil {
				return err
			}
		}

		if err := s.perms.UpdateRole(ctx, workflowID, userID, role); err != nil {
			return err
		}
		existing.Role = role
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("permission granted", "workflow_id", workflowID, "user_id", userID, "role", role)
	return out, nil
}

// Revoke removes a user's grant. Removing the last Admin is rejected.
func (s *PermissionService) Revoke(ctx context.Context, workflowID uuid.UUID, userID string) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.perms.Get(ctx, workflowID, userID)
		if err != nil {
			return err
		}

		if existing.Role == models.RoleAdmin {
			if err := s.guardLastAdmin(ctx, workflowID); err != nil {
				return err
			}
		}

		return s.perms.Delete(ctx, workflowID, userID)
	})
	if err != nil {
		return err
	}

	s.log.Info("permission revoked", "workflow_id", workflowID, "user_id", userID)
	return nil
}

func (s *PermissionService) guardLastAdmin(ctx context.Context, workflowID uuid.UUID) error {
	admins, err := s.perms.CountAdmins(ctx, workflowID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return apperr.Conflict("workflow must keep at least one Admin")
	}
	return nil
}
