package container

import (
	"fmt"

	"github.com/flowforge/flowforge/cmd/designer/repository"
	"github.com/flowforge/flowforge/cmd/designer/service"
	"github.com/flowforge/flowforge/common/bootstrap"
)

// Container holds all initialized repositories and services
// (singleton pattern - everything is created once at startup)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	WorkflowRepo   *repository.WorkflowRepository
	VersionRepo    *repository.VersionRepository
	PermissionRepo *repository.PermissionRepository
	NodeRepo       *repository.NodeRepository
	ConnectionRepo *repository.ConnectionRepository
	TaskTypeRepo   *repository.TaskTypeRepository

	// Services
	PermissionService *service.PermissionService
	WorkflowService   *service.WorkflowService
	GraphService      *service.GraphService
	TaskTypeService   *service.TaskTypeService
}

// NewContainer wires repositories and services from the bootstrapped
// components
func NewContainer(components *bootstrap.Components) (*Container, error) {
	if components.DB == nil {
		return nil, fmt.Errorf("container requires a database connection")
	}

	c := &Container{
		Components: components,
	}

	// Repositories
	c.WorkflowRepo = repository.NewWorkflowRepository(components.DB)
	c.VersionRepo = repository.NewVersionRepository(components.DB)
	c.PermissionRepo = repository.NewPermissionRepository(components.DB)
	c.NodeRepo = repository.NewNodeRepository(components.DB)
	c.ConnectionRepo = repository.NewConnectionRepository(components.DB)
	c.TaskTypeRepo = repository.NewTaskTypeRepository(components.DB)

	// Services
	c.PermissionService = service.NewPermissionService(
		c.PermissionRepo,
		components.DB,
		components.Logger,
	)
	c.WorkflowService = service.NewWorkflowService(
		c.WorkflowRepo,
		c.VersionRepo,
		c.PermissionRepo,
		c.NodeRepo,
		c.ConnectionRepo,
		components.DB,
		components.Logger,
	)
	c.GraphService = service.NewGraphService(
		c.VersionRepo,
		c.NodeRepo,
		c.ConnectionRepo,
		c.TaskTypeRepo,
		components.DB,
		components.Logger,
	)
	c.TaskTypeService = service.NewTaskTypeService(
		c.TaskTypeRepo,
		components.Cache,
		components.Config.Cache.DefaultTTL,
		components.Logger,
	)

	return c, nil
}
