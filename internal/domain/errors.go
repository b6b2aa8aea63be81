package domain

import "errors"

// ErrValidation is matched by every input validation failure.
var ErrValidation = errors.New("validation failed")

var (
	ErrTitleRequired  error = &validationError{msg: "Title is required"}
	ErrInvalidStatus  error = &validationError{msg: "Status must be one of: pending, in-progress, completed"}
	ErrDuplicateTitle       = errors.New("A task with this title already exists.")
	ErrTaskNotFound         = errors.New("Task not found")
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }
