package model

import "time"

// Project is a grouping container for tasks, owned by a backend user.
// The client holds cache-only copies; identifiers and timestamps are
// always server-assigned.
type Project struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// Name is the human-readable project name.
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description"`

	// TaskCount is a server-computed denormalization. It may briefly
	// disagree with len(Tasks) right after a mutation, until the next
	// refetch.
	TaskCount int `json:"task_count"`

	// Owner is the user who created the project. May be nil when the
	// query did not select it.
	Owner *User `json:"owner,omitempty"`

	// Tasks is the project's task list in server-returned order. Only
	// populated by the single-project query.
	Tasks []Task `json:"tasks,omitempty"`

	// CreatedAt and UpdatedAt are server-assigned timestamps.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DescriptionOrFallback returns the description, or a fixed placeholder
// when none was provided.
func (p Project) DescriptionOrFallback() string {
	if p.Description == "" {
		return "No description provided"
	}
	return p.Description
}
