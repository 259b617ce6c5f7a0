package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	housekeepingerrors "roomsync/internal/housekeeping/errors"
	"roomsync/pkg/model"

	"github.com/google/uuid"
)

type memoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*model.HousekeepingTask
}

func NewMemoryTaskRepository() TaskRepository {
	return &memoryTaskRepository{tasks: make(map[string]*model.HousekeepingTask)}
}

func (r *memoryTaskRepository) Create(_ context.Context, task *model.HousekeepingTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	task.UpdatedAt = task.CreatedAt
	r.tasks[task.ID] = task.Clone()
	return nil
}

func (r *memoryTaskRepository) FindByID(_ context.Context, id string) (*model.HousekeepingTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, housekeepingerrors.ErrNotFound
	}
	return task.Clone(), nil
}

func (r *memoryTaskRepository) Find(_ context.Context, filter model.TaskFilter) ([]*model.HousekeepingTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.HousekeepingTask, 0)
	for _, task := range r.tasks {
		if filter.RoomID != "" && task.RoomID != filter.RoomID {
			continue
		}
		if filter.ActiveOnly && !task.Status.IsActive() {
			continue
		}
		if !filter.ActiveOnly && len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, task.Status) {
			continue
		}
		out = append(out, task.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryTaskRepository) Update(_ context.Context, task *model.HousekeepingTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return housekeepingerrors.ErrNotFound
	}
	task.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.tasks[task.ID] = task.Clone()
	return nil
}
