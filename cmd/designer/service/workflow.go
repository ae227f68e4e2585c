package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/common/logger"
)

// maxVersionRetries bounds the count-and-create retry loop. Version
// numbers are derived from the existing count, so two concurrent
// creations can collide on the unique index; the loser re-reads the
// count and tries again.
const maxVersionRetries = 3

// WorkflowService is the version manager: it owns version numbering,
// the current-version pointer, the publish invariant and the workflow
// status state machine (Draft -> Published -> Draft ... -> Archived).
type WorkflowService struct {
	workflows WorkflowStore
	versions  VersionStore
	perms     PermissionStore
	nodes     NodeStore
	conns     ConnectionStore
	tx        TxRunner
	log       *logger.Logger
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(
	workflows WorkflowStore,
	versions VersionStore,
	perms PermissionStore,
	nodes NodeStore,
	conns ConnectionStore,
	tx TxRunner,
	log *logger.Logger,
) *WorkflowService {
	return &WorkflowService{
		workflows: workflows,
		versions:  versions,
		perms:     perms,
		nodes:     nodes,
		conns:     conns,
		tx:        tx,
		log:       log,
	}
}

// WorkflowUpdate carries a partial metadata edit; nil fields are untouched
type WorkflowUpdate struct {
	Title       *string
	Description *string
}

// Create makes a new workflow with its initial version and an Admin
// grant for the creator, in one transaction. A workflow must never
// exist without at least one Admin.
func (s *WorkflowService) Create(ctx context.Context, ident models.Identity, title, description string) (*models.Workflow, error) {
	now := time.Now().UTC()
	wf := &models.Workflow{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      models.StatusDraft,
		CreatedBy:   ident.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.workflows.Create(ctx, wf); err != nil {
			return err
		}

		version := &models.WorkflowVersion{
			ID:            uuid.New(),
			WorkflowID:    wf.ID,
			VersionNumber: 1,
			CreatedBy:     ident.UserID,
			CreatedAt:     now,
		}
		if err := s.versions.Create(ctx, version); err != nil {
			return err
		}

		wf.CurrentVersionID = &version.ID
		if err := s.workflows.Update(ctx, wf); err != nil {
			return err
		}

		return s.perms.Create(ctx, &models.Permission{
			ID:         uuid.New(),
			WorkflowID: wf.ID,
			UserID:     ident.UserID,
			Role:       models.RoleAdmin,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("workflow created", "workflow_id", wf.ID, "user_id", ident.UserID)
	return wf, nil
}

// Get retrieves a workflow
func (s *WorkflowService) Get(ctx context.Context, workflowID uuid.UUID) (*models.Workflow, error) {
	return s.workflows.GetByID(ctx, workflowID)
}

// List retrieves the workflows the caller holds any permission on
func (s *WorkflowService) List(ctx context.Context, ident models.Identity, filter models.WorkflowFilter) ([]*models.Workflow, int, error) {
	return s.workflows.ListForUser(ctx, ident.UserID, filter)
}

// Edit applies a metadata edit. Editing a Published workflow is a
// branching edit: a new draft version is created first and the
// workflow drops back to Draft. Draft and Archived workflows are
// edited in place.
func (s *WorkflowService) Edit(ctx context.Context, ident models.Identity, workflowID uuid.UUID, update WorkflowUpdate) (*models.Workflow, error) {
	var out *models.Workflow

	err := s.retryOnConflict(func() error {
		return s.tx.InTx(ctx, func(ctx context.Context) error {
			wf, err := s.workflows.GetByID(ctx, workflowID)
			if err != nil {
				return err
			}

			if wf.IsPublished() {
				if _, err := s.insertNextVersion(ctx, wf, "", ident.UserID); err != nil {
					return err
				}
			}

			if update.Title != nil {
				wf.Title = *update.Title
			}
			if update.Description != nil {
				wf.Description = *update.Description
			}

			if err := s.workflows.Update(ctx, wf); err != nil {
				return err
			}
			out = wf
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// CreateVersion allocates the next version explicitly, repoints the
// workflow at it and resets the status to Draft
func (s *WorkflowService) CreateVersion(ctx context.Context, ident models.Identity, workflowID uuid.UUID, changeNote string) (*models.WorkflowVersion, error) {
	var out *models.WorkflowVersion

	err := s.retryOnConflict(func() error {
		return s.tx.InTx(ctx, func(ctx context.Context) error {
			wf, err := s.workflows.GetByID(ctx, workflowID)
			if err != nil {
				return err
			}

			version, err := s.insertNextVersion(ctx, wf, changeNote, ident.UserID)
			if err != nil {
				return err
			}

			if err := s.workflows.Update(ctx, wf); err != nil {
				return err
			}
			out = version
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("version created",
		"workflow_id", workflowID,
		"version_number", out.VersionNumber,
		"user_id", ident.UserID,
	)
	return out, nil
}

// ListVersions retrieves a workflow's versions, newest first
func (s *WorkflowService) ListVersions(ctx context.Context, workflowID uuid.UUID) ([]*models.WorkflowVersion, error) {
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}
	return s.versions.ListByWorkflow(ctx, workflowID)
}

// GetVersion retrieves one version of a workflow
func (s *WorkflowService) GetVersion(ctx context.Context, workflowID, versionID uuid.UUID) (*models.WorkflowVersion, error) {
	return s.versions.GetByID(ctx, workflowID, versionID)
}

// Publish makes the given version the single published version of its
// workflow. The unpublish-then-publish-then-repoint sequence is one
// transaction: a partial failure must not leave two versions published
// or the workflow pointing at an unpublished current version. The
// workflow row is locked first so concurrent publishes serialize; under
// read committed the loser would otherwise unpublish against a stale
// snapshot and leave two versions published.
func (s *WorkflowService) Publish(ctx context.Context, ident models.Identity, workflowID, versionID uuid.UUID) (*models.WorkflowVersion, error) {
	var out *models.WorkflowVersion

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		wf, err := s.workflows.GetByIDForUpdate(ctx, workflowID)
		if err != nil {
			return err
		}
		if wf.IsArchived() {
			return apperr.Conflict("archived workflows cannot be published")
		}

		version, err := s.versions.GetByID(ctx, workflowID, versionID)
		if err != nil {
			return err
		}

		if version.IsPublished {
			return apperr.AlreadyInState("version is already published")
		}

		if err := s.versions.UnpublishAll(ctx, wf.ID); err != nil {
			return err
		}
		if err := s.versions.SetPublished(ctx, version.ID, true); err != nil {
			return err
		}

		wf.Status = models.StatusPublished
		wf.CurrentVersionID = &version.ID
		if err := s.workflows.Update(ctx, wf); err != nil {
			return err
		}

		version.IsPublished = true
		out = version
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("version published",
		"workflow_id", workflowID,
		"version_number", out.VersionNumber,
		"user_id", ident.UserID,
	)
	return out, nil
}

// Archive soft-deletes a workflow. The current-version pointer and the
// published flags are untouched; archived workflows stay readable.
func (s *WorkflowService) Archive(ctx context.Context, ident models.Identity, workflowID uuid.UUID) (*models.Workflow, error) {
	wf, err := s.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	wf.Status = models.StatusArchived
	if err := s.workflows.Update(ctx, wf); err != nil {
		return nil, err
	}

	s.log.Info("workflow archived", "workflow_id", workflowID, "user_id", ident.UserID)
	return wf, nil
}

// Duplicate copies a workflow: fresh id, "(Copy)" title, Draft status,
// a new version 1 carrying a deep copy of the source's current graph,
// and an Admin grant for the duplicating user. The source workflow is
// untouched.
func (s *WorkflowService) Duplicate(ctx context.Context, ident models.Identity, workflowID uuid.UUID) (*models.Workflow, error) {
	now := time.Now().UTC()
	var out *models.Workflow

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		src, err := s.workflows.GetByID(ctx, workflowID)
		if err != nil {
			return err
		}

		copyWf := &models.Workflow{
			ID:          uuid.New(),
			Title:       src.Title + " (Copy)",
			Description: src.Description,
			Status:      models.StatusDraft,
			CreatedBy:   ident.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.workflows.Create(ctx, copyWf); err != nil {
			return err
		}

		version := &models.WorkflowVersion{
			ID:            uuid.New(),
			WorkflowID:    copyWf.ID,
			VersionNumber: 1,
			CreatedBy:     ident.UserID,
			CreatedAt:     now,
		}
		if err := s.versions.Create(ctx, version); err != nil {
			return err
		}

		copyWf.CurrentVersionID = &version.ID
		if err := s.workflows.Update(ctx, copyWf); err != nil {
			return err
		}

		if err := s.perms.Create(ctx, &models.Permission{
			ID:         uuid.New(),
			WorkflowID: copyWf.ID,
			UserID:     ident.UserID,
			Role:       models.RoleAdmin,
			CreatedAt:  now,
			UpdatedAt:  now,
		}); err != nil {
			return err
		}

		if src.CurrentVersionID != nil {
			if err := s.copyGraph(ctx, *src.CurrentVersionID, version.ID, now); err != nil {
				return err
			}
		}

		out = copyWf
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("workflow duplicated",
		"source_workflow_id", workflowID,
		"workflow_id", out.ID,
		"user_id", ident.UserID,
	)
	return out, nil
}

// insertNextVersion allocates count+1 for wf and repoints it at the
// new draft version. The caller persists wf and owns retrying: inside
// an aborted transaction a conflicting insert cannot be retried in
// place.
func (s *WorkflowService) insertNextVersion(ctx context.Context, wf *models.Workflow, changeNote, creator string) (*models.WorkflowVersion, error) {
	count, err := s.versions.CountByWorkflow(ctx, wf.ID)
	if err != nil {
		return nil, err
	}

	version := &models.WorkflowVersion{
		ID:            uuid.New(),
		WorkflowID:    wf.ID,
		VersionNumber: count + 1,
		ChangeNote:    changeNote,
		CreatedBy:     creator,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.versions.Create(ctx, version); err != nil {
		return nil, err
	}

	wf.Status = models.StatusDraft
	wf.CurrentVersionID = &version.ID
	return version, nil
}

// retryOnConflict re-runs fn when it loses the version-number race,
// bounded to maxVersionRetries attempts
func (s *WorkflowService) retryOnConflict(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxVersionRetries; attempt++ {
		err = fn()
		if err == nil || !apperr.IsKind(err, apperr.KindConflict) {
			return err
		}
		s.log.Warn("version number conflict, retrying", "attempt", attempt)
	}
	return err
}

// copyGraph clones every node and connection of srcVersionID into
// dstVersionID, remapping node ids
func (s *WorkflowService) copyGraph(ctx context.Context, srcVersionID, dstVersionID uuid.UUID, now time.Time) error {
	nodes, err := s.nodes.ListByVersion(ctx, srcVersionID)
	if err != nil {
		return err
	}

	idMap := make(map[uuid.UUID]uuid.UUID, len(nodes))
	for _, n := range nodes {
		clone := *n
		clone.ID = uuid.New()
		clone.VersionID = dstVersionID
		clone.CreatedAt = now
		clone.UpdatedAt = now
		if n.Task != nil {
			task := *n.Task
			task.TaskData = append(json.RawMessage(nil), n.Task.TaskData...)
			clone.Task = &task
		}
		if n.Decision != nil {
			decision := *n.Decision
			clone.Decision = &decision
		}
		if err := s.nodes.Create(ctx, &clone); err != nil {
			return err
		}
		idMap[n.ID] = clone.ID
	}

	connections, err := s.conns.ListByVersion(ctx, srcVersionID)
	if err != nil {
		return err
	}

	for _, c := range connections {
		clone := *c
		clone.ID = uuid.New()
		clone.VersionID = dstVersionID
		clone.FromNodeID = idMap[c.FromNodeID]
		clone.ToNodeID = idMap[c.ToNodeID]
		clone.CreatedAt = now
		if err := s.conns.Create(ctx, &clone); err != nil {
			return err
		}
	}

	return nil
}
