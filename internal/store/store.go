package store

import (
	"context"

	"github.com/nhle/mini-jira/internal/model"
)

// Store is the local entity cache holding the last-fetched server state,
// keyed by entity id. Views render cached rows immediately while a
// network refresh runs; every write here mirrors a confirmed server
// response, never an optimistic local edit.
type Store interface {
	// ReplaceProjects swaps the cached project list wholesale. The
	// list query is never merged with prior cache state, so projects
	// deleted on the server do not linger.
	ReplaceProjects(ctx context.Context, projects []model.Project) error

	// GetProjects returns the cached project list with owners resolved.
	GetProjects(ctx context.Context) ([]model.Project, error)

	// UpsertProject inserts or replaces a single project row.
	UpsertProject(ctx context.Context, project model.Project) error

	// GetProject returns one cached project with its task list in
	// server order, or nil when not cached.
	GetProject(ctx context.Context, id string) (*model.Project, error)

	// ReplaceProjectTasks swaps the cached task set of one project.
	ReplaceProjectTasks(ctx context.Context, projectID string, tasks []model.Task) error

	// UpsertUsers inserts or replaces user rows by id.
	UpsertUsers(ctx context.Context, users []model.User) error

	// GetUsers returns all cached users ordered by email.
	GetUsers(ctx context.Context) ([]model.User, error)

	// Reset wipes the entire cache. Called on sign-out so a new
	// session never observes the previous user's entities.
	Reset(ctx context.Context) error

	// Close releases the underlying database.
	Close() error
}
