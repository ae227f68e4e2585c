package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/common/cache"
	"github.com/flowforge/flowforge/common/logger"
)

const activeTaskTypesCacheKey = "task_types:active"

// TaskTypeService manages the task type catalog. The active list is
// read on every designer palette load, so it sits behind the cache;
// any catalog mutation invalidates it.
type TaskTypeService struct {
	taskTypes TaskTypeStore
	cache     cache.Cache
	cacheTTL  time.Duration
	log       *logger.Logger
}

// NewTaskTypeService creates a new task type service. cache may be nil.
func NewTaskTypeService(taskTypes TaskTypeStore, c cache.Cache, cacheTTL time.Duration, log *logger.Logger) *TaskTypeService {
	return &TaskTypeService{
		taskTypes: taskTypes,
		cache:     c,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// TaskTypeUpdate carries a partial catalog edit; nil fields are untouched
type TaskTypeUpdate struct {
	Name        *string
	Description *string
	FieldSchema []models.FieldDef
	Icon        *string
	IsActive    *bool
}

// List retrieves task types, optionally only active ones
func (s *TaskTypeService) List(ctx context.Context, activeOnly bool) ([]*models.TaskType, error) {
	if activeOnly && s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, activeTaskTypesCacheKey); err == nil && ok {
			var types []*models.TaskType
			if err := json.Unmarshal(data, &types); err == nil {
				return types, nil
			}
			// Corrupt entry: fall through to the store
		}
	}

	types, err := s.taskTypes.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	if activeOnly && s.cache != nil {
		if data, err := json.Marshal(types); err == nil {
			if err := s.cache.Set(ctx, activeTaskTypesCacheKey, data, s.cacheTTL); err != nil {
				s.log.Warn("failed to cache task types", "error", err)
			}
		}
	}

	return types, nil
}

// Get retrieves a task type
func (s *TaskTypeService) Get(ctx context.Context, id uuid.UUID) (*models.TaskType, error) {
	return s.taskTypes.GetByID(ctx, id)
}

// Create adds a task type to the catalog
func (s *TaskTypeService) Create(ctx context.Context, name, description, icon string, fields []models.FieldDef) (*models.TaskType, error) {
	if err := validateFieldDefs(fields); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	taskType := &models.TaskType{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		FieldSchema: fields,
		Icon:        icon,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskTypes.Create(ctx, taskType); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("task type created", "task_type_id", taskType.ID, "name", name)
	return taskType, nil
}

// Update applies a partial edit to a task type
func (s *TaskTypeService) Update(ctx context.Context, id uuid.UUID, update TaskTypeUpdate) (*models.TaskType, error) {
	taskType, err := s.taskTypes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		taskType.Name = *update.Name
	}
	if update.Description != nil {
		taskType.Description = *update.Description
	}
	if update.FieldSchema != nil {
		if err := validateFieldDefs(update.FieldSchema); err != nil {
			return nil, err
		}
		taskType.FieldSchema = update.FieldSchema
	}
	if update.Icon != nil {
		taskType.Icon = *update.Icon
	}
	if update.IsActive != nil {
		taskType.IsActive = *update.IsActive
	}

	if taskType.Name == "" {
		return nil, apperr.Invalid("task type name is required")
	}

	if err := s.taskTypes.Update(ctx, taskType); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return taskType, nil
}

// Deactivate soft-disables a task type. It is never deleted: historical
// task nodes keep referencing it.
func (s *TaskTypeService) Deactivate(ctx context.Context, id uuid.UUID) (*models.TaskType, error) {
	inactive := false
	return s.Update(ctx, id, TaskTypeUpdate{IsActive: &inactive})
}

func (s *TaskTypeService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, activeTaskTypesCacheKey); err != nil {
		s.log.Warn("failed to invalidate task type cache", "error", err)
	}
}
