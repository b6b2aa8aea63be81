package handlers

import (
	"context"

	"taskora/internal/domain"
	"taskora/internal/service"
)

type TaskService interface {
	ListTasks(ctx context.Context) ([]*domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	CreateTask(ctx context.Context, in service.CreateTaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, in service.UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}
