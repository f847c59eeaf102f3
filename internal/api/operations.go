package api

import (
	"context"

	"github.com/nhle/mini-jira/internal/model"
)

// nilUUID is the assignee sentinel used to clear an assignment: the
// backend drops the assignee when the id does not resolve to a user.
const nilUUID = "00000000-0000-0000-0000-000000000000"

// Me returns the profile of the signed-in user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var payload struct {
		Me *wireUser `json:"me"`
	}
	if err := c.do(ctx, queryMe, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Me == nil {
		return nil, &AuthError{Message: "no signed-in user"}
	}
	return payload.Me.toModel(), nil
}

// Users returns all known users, used to populate assignee selectors.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var payload struct {
		Users []wireUser `json:"users"`
	}
	if err := c.do(ctx, queryUsers, nil, &payload); err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(payload.Users))
	for i := range payload.Users {
		users = append(users, *payload.Users[i].toModel())
	}
	return users, nil
}

// CreateUser registers a new account. A success=false response is
// returned as a *MutationError carrying the server's message.
func (c *Client) CreateUser(
	ctx context.Context,
	email, password, firstName, lastName string,
) (*model.User, error) {
	variables := map[string]any{
		"email":    email,
		"password": password,
	}
	if firstName != "" {
		variables["firstName"] = firstName
	}
	if lastName != "" {
		variables["lastName"] = lastName
	}

	var payload struct {
		CreateUser *struct {
			User    *wireUser `json:"user"`
			Success bool      `json:"success"`
			Message string    `json:"message"`
		} `json:"createUser"`
	}
	if err := c.do(ctx, mutationCreateUser, variables, &payload); err != nil {
		return nil, err
	}
	if payload.CreateUser == nil || !payload.CreateUser.Success {
		msg := "registration failed"
		if payload.CreateUser != nil && payload.CreateUser.Message != "" {
			msg = payload.CreateUser.Message
		}
		return nil, &MutationError{Message: msg}
	}
	return payload.CreateUser.User.toModel(), nil
}

// TokenAuth exchanges credentials for a session token.
func (c *Client) TokenAuth(
	ctx context.Context,
	email, password string,
) (TokenResult, error) {
	variables := map[string]any{
		"email":    email,
		"password": password,
	}

	var payload struct {
		TokenAuth *struct {
			Token            string `json:"token"`
			RefreshExpiresIn int64  `json:"refreshExpiresIn"`
		} `json:"tokenAuth"`
	}
	if err := c.do(ctx, mutationTokenAuth, variables, &payload); err != nil {
		return TokenResult{}, err
	}
	if payload.TokenAuth == nil || payload.TokenAuth.Token == "" {
		return TokenResult{}, &MutationError{Message: "login failed"}
	}
	return TokenResult{
		Token:            payload.TokenAuth.Token,
		RefreshExpiresIn: payload.TokenAuth.RefreshExpiresIn,
	}, nil
}

// VerifyToken asks the backend to validate a token.
func (c *Client) VerifyToken(ctx context.Context, token string) error {
	variables := map[string]any{"token": token}

	var payload struct {
		VerifyToken *struct {
			Payload map[string]any `json:"payload"`
		} `json:"verifyToken"`
	}
	if err := c.do(ctx, mutationVerifyToken, variables, &payload); err != nil {
		return err
	}
	if payload.VerifyToken == nil {
		return &AuthError{Message: "token rejected"}
	}
	return nil
}

// RefreshToken exchanges a still-refreshable token for a new one.
func (c *Client) RefreshToken(
	ctx context.Context,
	token string,
) (TokenResult, error) {
	variables := map[string]any{"token": token}

	var payload struct {
		RefreshToken *struct {
			Token            string `json:"token"`
			RefreshExpiresIn int64  `json:"refreshExpiresIn"`
		} `json:"refreshToken"`
	}
	if err := c.do(ctx, mutationRefreshToken, variables, &payload); err != nil {
		return TokenResult{}, err
	}
	if payload.RefreshToken == nil || payload.RefreshToken.Token == "" {
		return TokenResult{}, &AuthError{Message: "token refresh rejected"}
	}
	return TokenResult{
		Token:            payload.RefreshToken.Token,
		RefreshExpiresIn: payload.RefreshToken.RefreshExpiresIn,
	}, nil
}

// AllProjects returns every project with its owner. Each call replaces
// any cached list wholesale; results are never merged with prior state.
func (c *Client) AllProjects(ctx context.Context) ([]model.Project, error) {
	var payload struct {
		AllProjects []wireProject `json:"allProjects"`
	}
	if err := c.do(ctx, queryAllProjects, nil, &payload); err != nil {
		return nil, err
	}
	return projectsToModel(payload.AllProjects), nil
}

// MyProjects returns the projects owned by the signed-in user.
func (c *Client) MyProjects(ctx context.Context) ([]model.Project, error) {
	var payload struct {
		MyProjects []wireProject `json:"myProjects"`
	}
	if err := c.do(ctx, queryMyProjects, nil, &payload); err != nil {
		return nil, err
	}
	return projectsToModel(payload.MyProjects), nil
}

// Project returns one project with its nested task list, or (nil, nil)
// when no project exists with that id.
func (c *Client) Project(ctx context.Context, id string) (*model.Project, error) {
	variables := map[string]any{"id": id}

	var payload struct {
		Project *wireProject `json:"project"`
	}
	if err := c.do(ctx, queryProject, variables, &payload); err != nil {
		return nil, err
	}
	if payload.Project == nil {
		return nil, nil
	}
	project := payload.Project.toModel()
	return &project, nil
}

// projectMutationPayload is shared by createProject and updateProject.
type projectMutationPayload struct {
	Project *wireProject `json:"project"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
}

func (p *projectMutationPayload) result(fallback string) (*model.Project, error) {
	if p == nil || !p.Success {
		msg := fallback
		if p != nil && p.Message != "" {
			msg = p.Message
		}
		return nil, &MutationError{Message: msg}
	}
	if p.Project == nil {
		return nil, &MutationError{Message: fallback}
	}
	project := p.Project.toModel()
	return &project, nil
}

// CreateProject creates a project owned by the signed-in user.
func (c *Client) CreateProject(
	ctx context.Context,
	name, description string,
) (*model.Project, error) {
	variables := map[string]any{
		"name":        name,
		"description": description,
	}

	var payload struct {
		CreateProject *projectMutationPayload `json:"createProject"`
	}
	if err := c.do(ctx, mutationCreateProject, variables, &payload); err != nil {
		return nil, err
	}
	return payload.CreateProject.result("project creation failed")
}

// UpdateProject updates the name and/or description of a project. Nil
// fields are left unchanged.
func (c *Client) UpdateProject(
	ctx context.Context,
	id string,
	name, description *string,
) (*model.Project, error) {
	variables := map[string]any{"id": id}
	if name != nil {
		variables["name"] = *name
	}
	if description != nil {
		variables["description"] = *description
	}

	var payload struct {
		UpdateProject *projectMutationPayload `json:"updateProject"`
	}
	if err := c.do(ctx, mutationUpdateProject, variables, &payload); err != nil {
		return nil, err
	}
	return payload.UpdateProject.result("project update failed")
}

// DeleteProject removes a project and all its tasks.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	variables := map[string]any{"id": id}

	var payload struct {
		DeleteProject *struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		} `json:"deleteProject"`
	}
	if err := c.do(ctx, mutationDeleteProject, variables, &payload); err != nil {
		return err
	}
	if payload.DeleteProject == nil || !payload.DeleteProject.Success {
		msg := "project deletion failed"
		if payload.DeleteProject != nil && payload.DeleteProject.Message != "" {
			msg = payload.DeleteProject.Message
		}
		return &MutationError{Message: msg}
	}
	return nil
}

// AllTasks returns every task across all projects.
func (c *Client) AllTasks(ctx context.Context) ([]model.Task, error) {
	var payload struct {
		AllTasks []wireTask `json:"allTasks"`
	}
	if err := c.do(ctx, queryAllTasks, nil, &payload); err != nil {
		return nil, err
	}
	return tasksToModel(payload.AllTasks), nil
}

// TasksByProject returns the tasks belonging to one project.
func (c *Client) TasksByProject(
	ctx context.Context,
	projectID string,
) ([]model.Task, error) {
	variables := map[string]any{"projectId": projectID}

	var payload struct {
		TasksByProject []wireTask `json:"tasksByProject"`
	}
	if err := c.do(ctx, queryTasksByProject, variables, &payload); err != nil {
		return nil, err
	}
	return tasksToModel(payload.TasksByProject), nil
}

// TasksByStatus returns all tasks in the given workflow state.
func (c *Client) TasksByStatus(
	ctx context.Context,
	status model.Status,
) ([]model.Task, error) {
	variables := map[string]any{"status": string(status)}

	var payload struct {
		TasksByStatus []wireTask `json:"tasksByStatus"`
	}
	if err := c.do(ctx, queryTasksByStatus, variables, &payload); err != nil {
		return nil, err
	}
	return tasksToModel(payload.TasksByStatus), nil
}

// Task returns one task by id, or (nil, nil) when it does not exist.
func (c *Client) Task(ctx context.Context, id string) (*model.Task, error) {
	variables := map[string]any{"id": id}

	var payload struct {
		Task *wireTask `json:"task"`
	}
	if err := c.do(ctx, queryTask, variables, &payload); err != nil {
		return nil, err
	}
	if payload.Task == nil {
		return nil, nil
	}
	task := payload.Task.toModel()
	return &task, nil
}

// MyTasks returns the tasks assigned to the signed-in user.
func (c *Client) MyTasks(ctx context.Context) ([]model.Task, error) {
	var payload struct {
		MyTasks []wireTask `json:"myTasks"`
	}
	if err := c.do(ctx, queryMyTasks, nil, &payload); err != nil {
		return nil, err
	}
	return tasksToModel(payload.MyTasks), nil
}

// taskMutationPayload is shared by createTask and updateTask.
type taskMutationPayload struct {
	Task    *wireTask `json:"task"`
	Success bool      `json:"success"`
	Message string    `json:"message"`
}

func (p *taskMutationPayload) result(fallback string) (*model.Task, error) {
	if p == nil || !p.Success {
		msg := fallback
		if p != nil && p.Message != "" {
			msg = p.Message
		}
		return nil, &MutationError{Message: msg}
	}
	if p.Task == nil {
		return nil, &MutationError{Message: fallback}
	}
	task := p.Task.toModel()
	return &task, nil
}

// CreateTaskInput holds the fields of a new task. AssigneeID may be
// empty for an unassigned task.
type CreateTaskInput struct {
	ProjectID   string
	Title       string
	Description string
	Status      model.Status
	Priority    model.Priority
	AssigneeID  string
}

// CreateTask creates a task in the given project.
func (c *Client) CreateTask(
	ctx context.Context,
	input CreateTaskInput,
) (*model.Task, error) {
	variables := map[string]any{
		"projectId": input.ProjectID,
		"title":     input.Title,
	}
	if input.Description != "" {
		variables["description"] = input.Description
	}
	if input.Status != "" {
		variables["status"] = string(input.Status)
	}
	if input.Priority != "" {
		variables["priority"] = string(input.Priority)
	}
	if input.AssigneeID != "" {
		variables["assigneeId"] = input.AssigneeID
	}

	var payload struct {
		CreateTask *taskMutationPayload `json:"createTask"`
	}
	if err := c.do(ctx, mutationCreateTask, variables, &payload); err != nil {
		return nil, err
	}
	return payload.CreateTask.result("task creation failed")
}

// TaskChanges holds a partial task update. Nil fields are left
// unchanged; an AssigneeID pointing at the empty string clears the
// assignment.
type TaskChanges struct {
	Title       *string
	Description *string
	Status      *model.Status
	Priority    *model.Priority
	AssigneeID  *string
}

// UpdateTask applies a partial update to one task.
func (c *Client) UpdateTask(
	ctx context.Context,
	id string,
	changes TaskChanges,
) (*model.Task, error) {
	variables := map[string]any{"id": id}
	if changes.Title != nil {
		variables["title"] = *changes.Title
	}
	if changes.Description != nil {
		variables["description"] = *changes.Description
	}
	if changes.Status != nil {
		variables["status"] = string(*changes.Status)
	}
	if changes.Priority != nil {
		variables["priority"] = string(*changes.Priority)
	}
	if changes.AssigneeID != nil {
		if *changes.AssigneeID == "" {
			variables["assigneeId"] = nilUUID
		} else {
			variables["assigneeId"] = *changes.AssigneeID
		}
	}

	var payload struct {
		UpdateTask *taskMutationPayload `json:"updateTask"`
	}
	if err := c.do(ctx, mutationUpdateTask, variables, &payload); err != nil {
		return nil, err
	}
	return payload.UpdateTask.result("task update failed")
}

// DeleteTask removes one task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	variables := map[string]any{"id": id}

	var payload struct {
		DeleteTask *struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		} `json:"deleteTask"`
	}
	if err := c.do(ctx, mutationDeleteTask, variables, &payload); err != nil {
		return err
	}
	if payload.DeleteTask == nil || !payload.DeleteTask.Success {
		msg := "task deletion failed"
		if payload.DeleteTask != nil && payload.DeleteTask.Message != "" {
			msg = payload.DeleteTask.Message
		}
		return &MutationError{Message: msg}
	}
	return nil
}

// String pointer helper for partial updates.
func StringPtr(s string) *string { return &s }

// StatusPtr returns a pointer to s for partial updates.
func StatusPtr(s model.Status) *model.Status { return &s }

// PriorityPtr returns a pointer to p for partial updates.
func PriorityPtr(p model.Priority) *model.Priority { return &p }

// ErrorMessage extracts a display string from an operation error,
// substituting fallback for empty messages.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
