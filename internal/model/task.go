package model

import "time"

// Status is the closed set of workflow states a task can be in. Values
// outside the four enumerants can arrive from the backend; grouping code
// must treat them as unclassified rather than fail.
type Status string

const (
	StatusBacklog Status = "BACKLOG"
	StatusTodo    Status = "TODO"
	StatusDoing   Status = "DOING"
	StatusDone    Status = "DONE"
)

// Statuses returns the known statuses in fixed board-column order.
func Statuses() []Status {
	return []Status{StatusBacklog, StatusTodo, StatusDoing, StatusDone}
}

// Known reports whether s is one of the four enumerated statuses.
func (s Status) Known() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

// Label returns the human-readable column label for s.
func (s Status) Label() string {
	switch s {
	case StatusBacklog:
		return "Backlog"
	case StatusTodo:
		return "To Do"
	case StatusDoing:
		return "Doing"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// Priority is the closed set of task priority levels.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Priorities returns the known priorities from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// Known reports whether p is one of the four enumerated priorities.
func (p Priority) Known() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Label returns the human-readable label for p.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return string(p)
	}
}

// Task is a single work item belonging to exactly one project.
type Task struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// ProjectID is the owning project's identifier.
	ProjectID string `json:"project_id"`

	// Title is the human-readable summary.
	Title string `json:"title"`

	// Description is optional free text.
	Description string `json:"description"`

	// Status is the workflow state (see Status).
	Status Status `json:"status"`

	// Priority is the priority level (see Priority).
	Priority Priority `json:"priority"`

	// Assignee is the assigned user, nil when unassigned.
	Assignee *User `json:"assignee,omitempty"`

	// CreatedAt and UpdatedAt are server-assigned timestamps.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssigneeID returns the assignee's id, or "" when unassigned.
func (t Task) AssigneeID() string {
	if t.Assignee == nil {
		return ""
	}
	return t.Assignee.ID
}
