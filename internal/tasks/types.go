package tasks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFoundOrForbidden matches both ErrNotFound and ErrForbidden.
	ErrNotFoundOrForbidden = errors.New("task not found or forbidden")

	// ErrNotFound is returned when the task does not exist.
	ErrNotFound = fmt.Errorf("task not found: %w", ErrNotFoundOrForbidden)

	// ErrForbidden is returned when the requester does not own the task.
	ErrForbidden = fmt.Errorf("task owned by another user: %w", ErrNotFoundOrForbidden)

	// ErrEmptyText is returned when the task text is blank after trimming.
	ErrEmptyText = errors.New("task text is required")
)

// MaxTextLength is the longest task text stored, in characters.
const MaxTextLength = 200

// Priority ranks tasks; higher values sort first.
type Priority int

// Priority levels.
const (
	PriorityLow    Priority = 1
	PriorityNormal Priority = 2
	PriorityUrgent Priority = 3
)

// Valid reports whether p is one of the defined levels.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// ParsePriority parses a form value. Anything that is not 1, 2 or 3 yields
// PriorityNormal.
func ParsePriority(s string) Priority {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Priority(n).Valid() {
		return PriorityNormal
	}
	return Priority(n)
}

// DoneMode selects what completing a task does.
type DoneMode int

const (
	// DoneSet always marks the task done.
	DoneSet DoneMode = iota
	// DoneToggle flips the done flag.
	DoneToggle
)

// ParseDoneMode parses "set" or "toggle".
func ParseDoneMode(s string) (DoneMode, error) {
	switch s {
	case "", "set":
		return DoneSet, nil
	case "toggle":
		return DoneToggle, nil
	default:
		return DoneSet, fmt.Errorf("unknown done mode %q", s)
	}
}

func (m DoneMode) String() string {
	if m == DoneToggle {
		return "toggle"
	}
	return "set"
}

// Task is a to-do item.
type Task struct {
	ID       uint     `json:"id"`
	Text     string   `json:"text"`
	Done     bool     `json:"done"`
	DueDate  *string  `json:"due_date"`
	Priority Priority `json:"priority"`
	OwnerID  uint     `json:"owner_id"`
}

// AddRequest holds the fields of a new task.
type AddRequest struct {
	OwnerID  uint
	Text     string
	DueDate  string
	Priority Priority
}

// UpdateRequest replaces the editable fields of a task.
type UpdateRequest struct {
	Text     string
	DueDate  string
	Priority Priority
}

// Stats summarises one user's progress.
type Stats struct {
	Total           int64 `json:"total"`
	Completed       int64 `json:"completed"`
	PercentComplete int64 `json:"percent_complete"`
}

// Overview holds counts across all users.
type Overview struct {
	Users     int64 `json:"users"`
	Tasks     int64 `json:"tasks"`
	Completed int64 `json:"completed"`
}
