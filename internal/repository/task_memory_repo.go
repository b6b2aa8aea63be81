package repository

import (
	"context"
	"sort"
	"sync"

	"taskora/internal/domain"

	"github.com/google/uuid"
)

type memoryTask struct {
	task domain.Task
	seq  uint64
}

// MemoryTaskRepository keeps tasks in process memory. Title uniqueness is
// checked under the same lock as the write.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	seq   uint64
	tasks map[string]*memoryTask
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[string]*memoryTask)}
}

func (r *MemoryTaskRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryTaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	// copy under the lock; Update mutates entries in place
	r.mu.RLock()
	entries := make([]memoryTask, 0, len(r.tasks))
	for _, e := range r.tasks {
		entries = append(entries, *e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})

	res := make([]*domain.Task, 0, len(entries))
	for i := range entries {
		res = append(res, &entries[i].task)
	}
	return res, nil
}

func (r *MemoryTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t := e.task
	return &t, nil
}

func (r *MemoryTaskRepository) TitleTaken(ctx context.Context, titleKey, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.titleTakenLocked(titleKey, excludeID), nil
}

func (r *MemoryTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.titleTakenLocked(domain.TitleKey(t.Title), "") {
		return domain.ErrDuplicateTitle
	}

	r.seq++
	t.ID = uuid.NewString()
	r.tasks[t.ID] = &memoryTask{task: *t, seq: r.seq}
	return nil
}

func (r *MemoryTaskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if patch.Title != nil && r.titleTakenLocked(domain.TitleKey(*patch.Title), id) {
		return nil, domain.ErrDuplicateTitle
	}

	patch.Apply(&e.task)
	t := e.task
	return &t, nil
}

func (r *MemoryTaskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) titleTakenLocked(titleKey, excludeID string) bool {
	for id, e := range r.tasks {
		if id != excludeID && domain.TitleKey(e.task.Title) == titleKey {
			return true
		}
	}
	return false
}
