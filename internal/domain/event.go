package domain

import "time"

type EventType string

const (
	EventTaskCreated EventType = "task.created"
	EventTaskUpdated EventType = "task.updated"
	EventTaskDeleted EventType = "task.deleted"
)

// TaskEvent is pushed to event feed subscribers after a mutation commits.
type TaskEvent struct {
	Type   EventType `json:"type"`
	TaskID string    `json:"taskId"`
	Task   *Task     `json:"task,omitempty"`
	At     time.Time `json:"at"`
}
