package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

// TasksRepo keeps tasks in process memory. Every method runs under one lock,
// so readers never observe a half-applied update.
type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func clone(t task.Task) task.Task {
	t.Tags = slices.Clone(t.Tags)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	t, err := t.Normalize()
	if err != nil {
		return task.Task{}, err
	}

	r.mu.Lock()
	r.items[t.ID] = clone(t)
	r.mu.Unlock()

	return clone(t), nil
}

// owned must be called with the lock held.
func (r *TasksRepo) owned(ownerID, id string) (task.Task, bool) {
	t, ok := r.items[id]
	if !ok || t.OwnerID != ownerID {
		return task.Task{}, false
	}
	return t, true
}

func (r *TasksRepo) GetByID(_ context.Context, ownerID, id string) (task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.owned(ownerID, id)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return clone(t), nil
}

func (r *TasksRepo) List(_ context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	r.mu.RLock()
	mine := make([]task.Task, 0)
	for _, t := range r.items {
		if t.OwnerID == ownerID {
			mine = append(mine, clone(t))
		}
	}
	r.mu.RUnlock()

	return task.Apply(mine, filter), nil
}

func (r *TasksRepo) Update(_ context.Context, ownerID, id string, req task.UpdateTaskRequest, now time.Time) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.owned(ownerID, id)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	merged, err := t.Merge(req, now)
	if err != nil {
		return task.Task{}, err
	}

	r.items[id] = clone(merged)
	return clone(merged), nil
}

func (r *TasksRepo) SetCompleted(_ context.Context, ownerID, id string, completed bool, now time.Time) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.owned(ownerID, id)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	if t.Completed != completed {
		t.Completed = completed
		t.UpdatedAt = now.UTC().Truncate(time.Microsecond)
		r.items[id] = t
	}

	return clone(t), nil
}

func (r *TasksRepo) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owned(ownerID, id); !ok {
		return task.ErrNotFound
	}

	delete(r.items, id)
	return nil
}
