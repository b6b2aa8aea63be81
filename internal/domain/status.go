package domain

import "strings"

// Status is the closed set of task states. The zero value is not a valid status.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusInProgress
	StatusCompleted
)

var statusNames = map[Status]string{
	StatusPending:    "pending",
	StatusInProgress: "in-progress",
	StatusCompleted:  "completed",
}

// Statuses lists every valid status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "in-progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	}
	return 0, ErrInvalidStatus
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Label is the human form, e.g. "in progress".
func (s Status) Label() string {
	return strings.ReplaceAll(s.String(), "-", " ")
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidStatus
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
