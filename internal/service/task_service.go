package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskora/internal/domain"
)

// TaskStore is implemented by every repository backend. Implementations
// return domain.ErrTaskNotFound and domain.ErrDuplicateTitle; any other error
// is treated as a store failure.
type TaskStore interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	TitleTaken(ctx context.Context, titleKey, excludeID string) (bool, error)
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher receives an event after each committed mutation.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.TaskEvent)
}

var ErrStoreNil = errors.New("task store is nil")

type CreateTaskInput struct {
	Title       string
	Description string
	Status      string // empty means pending
}

// UpdateTaskInput holds the fields present in a partial update.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
}

type TaskService struct {
	store  TaskStore
	events EventPublisher
	now    func() time.Time
}

// NewTaskService wires a store and an optional publisher (nil disables events).
func NewTaskService(store TaskStore, events EventPublisher) (*TaskService, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	return &TaskService{store: store, events: events, now: time.Now}, nil
}

// SetClock replaces the time source used for createdAt/updatedAt.
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TaskService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	return s.store.List(ctx)
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.store.GetByID(ctx, id)
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrTitleRequired
	}

	status := domain.StatusPending
	if in.Status != "" {
		parsed, err := domain.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	if err := s.ensureTitleFree(ctx, title, ""); err != nil {
		return nil, err
	}

	now := s.timestamp()
	task := &domain.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventTaskCreated, task.ID, task)
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, in UpdateTaskInput) (*domain.Task, error) {
	var patch domain.TaskPatch

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, domain.ErrTitleRequired
		}
		if err := s.ensureTitleFree(ctx, title, id); err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		patch.Description = &desc
	}
	if in.Status != nil {
		status, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
	}
	patch.UpdatedAt = s.timestamp()

	task, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventTaskUpdated, task.ID, task)
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, domain.EventTaskDeleted, id, nil)
	return nil
}

// ensureTitleFree is the friendly pre-check; stores enforce the same rule
// atomically on write.
func (s *TaskService) ensureTitleFree(ctx context.Context, title, excludeID string) error {
	taken, err := s.store.TitleTaken(ctx, domain.TitleKey(title), excludeID)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrDuplicateTitle
	}
	return nil
}

// timestamp is UTC with millisecond precision, the finest every store keeps.
func (s *TaskService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *TaskService) publish(ctx context.Context, typ domain.EventType, id string, task *domain.Task) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, domain.TaskEvent{Type: typ, TaskID: id, Task: task, At: s.timestamp()})
}
