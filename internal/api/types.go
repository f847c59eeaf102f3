package api

import (
	"time"

	"github.com/nhle/mini-jira/internal/model"
)

// Wire representations of backend entities. Field names follow the
// GraphQL schema (camelCase); timestamps arrive as ISO strings and are
// parsed leniently since they are display-only on the client.

type wireUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	FullName   string `json:"fullName"`
	IsActive   bool   `json:"isActive"`
	DateJoined string `json:"dateJoined"`
}

type wireProjectRef struct {
	ID string `json:"id"`
}

type wireTask struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Priority    string          `json:"priority"`
	Assignee    *wireUser       `json:"assignee"`
	Project     *wireProjectRef `json:"project"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

type wireProject struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	TaskCount   int        `json:"taskCount"`
	Owner       *wireUser  `json:"owner"`
	Tasks       []wireTask `json:"tasks"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
}

// timeLayouts are tried in order when parsing backend timestamps. The
// backend emits RFC 3339 with fractional seconds; naive datetimes
// (no offset) have been observed as well.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseTime parses an ISO timestamp, returning the zero time when the
// value is empty or unrecognized.
func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (w *wireUser) toModel() *model.User {
	if w == nil {
		return nil
	}
	return &model.User{
		ID:         w.ID,
		Email:      w.Email,
		FirstName:  w.FirstName,
		LastName:   w.LastName,
		FullName:   w.FullName,
		IsActive:   w.IsActive,
		DateJoined: parseTime(w.DateJoined),
	}
}

func (w wireTask) toModel() model.Task {
	t := model.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Status:      model.Status(w.Status),
		Priority:    model.Priority(w.Priority),
		Assignee:    w.Assignee.toModel(),
		CreatedAt:   parseTime(w.CreatedAt),
		UpdatedAt:   parseTime(w.UpdatedAt),
	}
	if w.Project != nil {
		t.ProjectID = w.Project.ID
	}
	return t
}

func (w wireProject) toModel() model.Project {
	p := model.Project{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		TaskCount:   w.TaskCount,
		Owner:       w.Owner.toModel(),
		CreatedAt:   parseTime(w.CreatedAt),
		UpdatedAt:   parseTime(w.UpdatedAt),
	}
	for _, t := range w.Tasks {
		task := t.toModel()
		if task.ProjectID == "" {
			task.ProjectID = w.ID
		}
		p.Tasks = append(p.Tasks, task)
	}
	return p
}

func tasksToModel(wire []wireTask) []model.Task {
	tasks := make([]model.Task, 0, len(wire))
	for _, w := range wire {
		tasks = append(tasks, w.toModel())
	}
	return tasks
}

func projectsToModel(wire []wireProject) []model.Project {
	projects := make([]model.Project, 0, len(wire))
	for _, w := range wire {
		projects = append(projects, w.toModel())
	}
	return projects
}

// TokenResult is the payload of the tokenAuth and refreshToken mutations.
type TokenResult struct {
	Token            string
	RefreshExpiresIn int64
}
