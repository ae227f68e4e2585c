package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/common/logger"
)

// In-memory fakes for the store interfaces. They enforce the same
// uniqueness invariants as the Postgres schema so conflict paths are
// exercised for real.

type memState struct {
	mu        sync.Mutex
	workflows map[uuid.UUID]models.Workflow
	versions  map[uuid.UUID]models.WorkflowVersion
	perms     map[uuid.UUID]map[string]models.Permission
	nodes     map[uuid.UUID]models.Node
	conns     map[uuid.UUID]models.Connection
	taskTypes map[uuid.UUID]models.TaskType

	// ops records the store calls that matter for ordering assertions
	ops []string
}

func newMemState() *memState {
	return &memState{
		workflows: make(map[uuid.UUID]models.Workflow),
		versions:  make(map[uuid.UUID]models.WorkflowVersion),
		perms:     make(map[uuid.UUID]map[string]models.Permission),
		nodes:     make(map[uuid.UUID]models.Node),
		conns:     make(map[uuid.UUID]models.Connection),
		taskTypes: make(map[uuid.UUID]models.TaskType),
	}
}

type memTx struct{}

func (memTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memWorkflows struct{ s *memState }

func (m *memWorkflows) Create(ctx context.Context, w *models.Workflow) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.workflows[w.ID] = *w
	return nil
}

func (m *memWorkflows) GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	w, ok := m.s.workflows[id]
	if !ok {
		return nil, apperr.NotFound("workflow not found")
	}
	out := w
	return &out, nil
}

func (m *memWorkflows) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	m.s.mu.Lock()
	m.s.ops = append(m.s.ops, "lock_workflow")
	m.s.mu.Unlock()
	return m.GetByID(ctx, id)
}

func (m *memWorkflows) Update(ctx context.Context, w *models.Workflow) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.workflows[w.ID]; !ok {
		return apperr.NotFound("workflow not found")
	}
	m.s.workflows[w.ID] = *w
	return nil
}

func (m *memWorkflows) ListForUser(ctx context.Context, userID string, filter models.WorkflowFilter) ([]*models.Workflow, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Workflow
	for id, w := range m.s.workflows {
		if _, ok := m.s.perms[id][userID]; !ok {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		if filter.Owner != "" && w.CreatedBy != filter.Owner {
			continue
		}
		item := w
		out = append(out, &item)
	}
	return out, len(out), nil
}

type memVersions struct {
	s *memState

	// conflictsLeft forces the next N creates to fail with Conflict,
	// simulating a lost count-then-insert race
	conflictsLeft int
	createCalls   int
}

func (m *memVersions) Create(ctx context.Context, v *models.WorkflowVersion) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.createCalls++
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return apperr.Conflict("version number %d already exists", v.VersionNumber)
	}
	for _, existing := range m.s.versions {
		if existing.WorkflowID == v.WorkflowID && existing.VersionNumber == v.VersionNumber {
			return apperr.Conflict("version number %d already exists", v.VersionNumber)
		}
	}
	m.s.versions[v.ID] = *v
	return nil
}

func (m *memVersions) GetByID(ctx context.Context, workflowID, versionID uuid.UUID) (*models.WorkflowVersion, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	v, ok := m.s.versions[versionID]
	if !ok || v.WorkflowID != workflowID {
		return nil, apperr.NotFound("version not found")
	}
	out := v
	return &out, nil
}

func (m *memVersions) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.WorkflowVersion, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.WorkflowVersion
	for _, v := range m.s.versions {
		if v.WorkflowID == workflowID {
			item := v
			out = append(out, &item)
		}
	}
	return out, nil
}

func (m *memVersions) CountByWorkflow(ctx context.Context, workflowID uuid.UUID) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	count := 0
	for _, v := range m.s.versions {
		if v.WorkflowID == workflowID {
			count++
		}
	}
	return count, nil
}

func (m *memVersions) UnpublishAll(ctx context.Context, workflowID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.ops = append(m.s.ops, "unpublish_all")
	for id, v := range m.s.versions {
		if v.WorkflowID == workflowID && v.IsPublished {
			v.IsPublished = false
			m.s.versions[id] = v
		}
	}
	return nil
}

func (m *memVersions) SetPublished(ctx context.Context, versionID uuid.UUID, published bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.ops = append(m.s.ops, "set_published")
	v, ok := m.s.versions[versionID]
	if !ok {
		return apperr.NotFound("version not found")
	}
	if published {
		// Mirror the partial unique index on (workflow_id) WHERE is_published
		for id, other := range m.s.versions {
			if id != versionID && other.WorkflowID == v.WorkflowID && other.IsPublished {
				return apperr.Conflict("another version of this workflow is already published")
			}
		}
	}
	v.IsPublished = published
	m.s.versions[versionID] = v
	return nil
}

type memPerms struct{ s *memState }

func (m *memPerms) Create(ctx context.Context, p *models.Permission) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.perms[p.WorkflowID] == nil {
		m.s.perms[p.WorkflowID] = make(map[string]models.Permission)
	}
	if _, ok := m.s.perms[p.WorkflowID][p.UserID]; ok {
		return apperr.Conflict("user already has a permission on this workflow")
	}
	m.s.perms[p.WorkflowID][p.UserID] = *p
	return nil
}

func (m *memPerms) Get(ctx context.Context, workflowID uuid.UUID, userID string) (*models.Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.perms[workflowID][userID]
	if !ok {
		return nil, apperr.NotFound("permission not found")
	}
	out := p
	return &out, nil
}

func (m *memPerms) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Permission
	for _, p := range m.s.perms[workflowID] {
		item := p
		out = append(out, &item)
	}
	return out, nil
}

func (m *memPerms) UpdateRole(ctx context.Context, workflowID uuid.UUID, userID string, role models.Role) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.perms[workflowID][userID]
	if !ok {
		return apperr.NotFound("permission not found")
	}
	p.Role = role
	m.s.perms[workflowID][userID] = p
	return nil
}

func (m *memPerms) Delete(ctx context.Context, workflowID uuid.UUID, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.perms[workflowID][userID]; !ok {
		return apperr.NotFound("permission not found")
	}
	delete(m.s.perms[workflowID], userID)
	return nil
}

func (m *memPerms) CountAdmins(ctx context.Context, workflowID uuid.UUID) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	count := 0
	for _, p := range m.s.perms[workflowID] {
		if p.Role == models.RoleAdmin {
			count++
		}
	}
	return count, nil
}

type memNodes struct{ s *memState }

func (m *memNodes) Create(ctx context.Context, n *models.Node) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.nodes[n.ID] = *n
	return nil
}

func (m *memNodes) GetByID(ctx context.Context, versionID, nodeID uuid.UUID) (*models.Node, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n, ok := m.s.nodes[nodeID]
	if !ok || n.VersionID != versionID {
		return nil, apperr.NotFound("node not found")
	}
	out := n
	return &out, nil
}

func (m *memNodes) ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.Node, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Node
	for _, n := range m.s.nodes {
		if n.VersionID == versionID {
			item := n
			out = append(out, &item)
		}
	}
	return out, nil
}

func (m *memNodes) Update(ctx context.Context, n *models.Node) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.nodes[n.ID]
	if !ok || existing.VersionID != n.VersionID {
		return apperr.NotFound("node not found")
	}
	m.s.nodes[n.ID] = *n
	return nil
}

func (m *memNodes) Delete(ctx context.Context, versionID, nodeID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n, ok := m.s.nodes[nodeID]
	if !ok || n.VersionID != versionID {
		return apperr.NotFound("node not found")
	}
	delete(m.s.nodes, nodeID)
	return nil
}

type memConns struct{ s *memState }

func (m *memConns) Create(ctx context.Context, c *models.Connection) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.conns {
		if existing.VersionID == c.VersionID &&
			existing.FromNodeID == c.FromNodeID &&
			existing.ToNodeID == c.ToNodeID {
			return apperr.Conflict("connection between these nodes already exists")
		}
	}
	m.s.conns[c.ID] = *c
	return nil
}

func (m *memConns) GetByID(ctx context.Context, versionID, connectionID uuid.UUID) (*models.Connection, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.conns[connectionID]
	if !ok || c.VersionID != versionID {
		return nil, apperr.NotFound("connection not found")
	}
	out := c
	return &out, nil
}

func (m *memConns) ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.Connection, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Connection
	for _, c := range m.s.conns {
		if c.VersionID == versionID {
			item := c
			out = append(out, &item)
		}
	}
	return out, nil
}

func (m *memConns) Delete(ctx context.Context, versionID, connectionID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.conns[connectionID]
	if !ok || c.VersionID != versionID {
		return apperr.NotFound("connection not found")
	}
	delete(m.s.conns, connectionID)
	return nil
}

func (m *memConns) DeleteByNode(ctx context.Context, versionID, nodeID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, c := range m.s.conns {
		if c.VersionID == versionID && (c.FromNodeID == nodeID || c.ToNodeID == nodeID) {
			delete(m.s.conns, id)
		}
	}
	return nil
}

type memTaskTypes struct{ s *memState }

func (m *memTaskTypes) Create(ctx context.Context, t *models.TaskType) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.taskTypes {
		if existing.Name == t.Name {
			return apperr.Conflict("task type name %q already exists", t.Name)
		}
	}
	m.s.taskTypes[t.ID] = *t
	return nil
}

func (m *memTaskTypes) GetByID(ctx context.Context, id uuid.UUID) (*models.TaskType, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t, ok := m.s.taskTypes[id]
	if !ok {
		return nil, apperr.NotFound("task type not found")
	}
	out := t
	return &out, nil
}

func (m *memTaskTypes) List(ctx context.Context, activeOnly bool) ([]*models.TaskType, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.TaskType
	for _, t := range m.s.taskTypes {
		if activeOnly && !t.IsActive {
			continue
		}
		item := t
		out = append(out, &item)
	}
	return out, nil
}

func (m *memTaskTypes) Update(ctx context.Context, t *models.TaskType) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.taskTypes[t.ID]; !ok {
		return apperr.NotFound("task type not found")
	}
	m.s.taskTypes[t.ID] = *t
	return nil
}

// fixture bundles the fakes and services under test
type fixture struct {
	state     *memState
	versions  *memVersions
	workflows *WorkflowService
	perms     *PermissionService
	graph     *GraphService
	taskTypes *TaskTypeService
}

func newFixture() *fixture {
	state := newMemState()
	log := logger.New("error", "json")

	wfStore := &memWorkflows{s: state}
	versionStore := &memVersions{s: state}
	permStore := &memPerms{s: state}
	nodeStore := &memNodes{s: state}
	connStore := &memConns{s: state}
	taskTypeStore := &memTaskTypes{s: state}

	return &fixture{
		state:     state,
		versions:  versionStore,
		workflows: NewWorkflowService(wfStore, versionStore, permStore, nodeStore, connStore, memTx{}, log),
		perms:     NewPermissionService(permStore, memTx{}, log),
		graph:     NewGraphService(versionStore, nodeStore, connStore, taskTypeStore, memTx{}, log),
		taskTypes: NewTaskTypeService(taskTypeStore, nil, 0, log),
	}
}

func identity(userID string) models.Identity {
	return models.Identity{UserID: userID, Role: "user"}
}
