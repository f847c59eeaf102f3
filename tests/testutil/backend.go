package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// BackendUser is an account row held by the fake backend.
type BackendUser struct {
	ID        string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// BackendProject is a project row held by the fake backend.
type BackendProject struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	CreatedAt   time.Time
}

// BackendTask is a task row held by the fake backend.
type BackendTask struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeID  string
	CreatedAt   time.Time
}

// Backend is an in-memory GraphQL backend served over httptest. It
// implements the same operations, envelope shapes, and error messages
// as the real API so client tests can exercise full request paths.
type Backend struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.Mutex
	users        map[string]*BackendUser
	projects     map[string]*BackendProject
	tasks        map[string]*BackendTask
	tokens       map[string]string // token -> user id
	projectOrder []string
	taskOrder    []string
}

// NewBackend starts a fake backend and registers its shutdown with the
// test's cleanup.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		t:        t,
		users:    map[string]*BackendUser{},
		projects: map[string]*BackendProject{},
		tasks:    map[string]*BackendTask{},
		tokens:   map[string]string{},
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the GraphQL endpoint URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// AddUser seeds an account and returns it.
func (b *Backend) AddUser(email, password, firstName, lastName string) BackendUser {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := &BackendUser{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}
	b.users[u.ID] = u
	return *u
}

// TokenFor mints a valid session token for the user with the given
// email. Fails the test when no such user exists.
func (b *Backend) TokenFor(email string) string {
	b.t.Helper()

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.userByEmail(email)
	if u == nil {
		b.t.Fatalf("no seeded user with email %q", email)
	}
	token := "tok-" + uuid.NewString()
	b.tokens[token] = u.ID
	return token
}

// ExpireToken invalidates a previously minted token. Subsequent
// authenticated calls with it fail like an expired JWT.
func (b *Backend) ExpireToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// AddProject seeds a project and returns it.
func (b *Backend) AddProject(name, description, ownerID string) BackendProject {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := &BackendProject{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
	}
	b.projects[p.ID] = p
	b.projectOrder = append(b.projectOrder, p.ID)
	return *p
}

// RemoveProject deletes a seeded project and its tasks, simulating a
// deletion performed by another session.
func (b *Backend) RemoveProject(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeProjectLocked(id)
}

// AddTask seeds a task and returns it.
func (b *Backend) AddTask(projectID, title, status, priority, assigneeID string) BackendTask {
	b.mu.Lock()
	defer b.mu.Unlock()

	task := &BackendTask{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Title:       title,
		Status:      status,
		Priority:    priority,
		AssigneeID:  assigneeID,
		CreatedAt:   time.Now().UTC(),
	}
	b.tasks[task.ID] = task
	b.taskOrder = append(b.taskOrder, task.ID)
	return *task
}

// Task returns a copy of a task row, or nil when absent.
func (b *Backend) Task(id string) *BackendTask {
	b.mu.Lock()
	defer b.mu.Unlock()

	task, ok := b.tasks[id]
	if !ok {
		return nil
	}
	copied := *task
	return &copied
}

// Project returns a copy of a project row, or nil when absent.
func (b *Backend) Project(id string) *BackendProject {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.projects[id]
	if !ok {
		return nil
	}
	copied := *p
	return &copied
}

func (b *Backend) userByEmail(email string) *BackendUser {
	for _, u := range b.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (b *Backend) removeProjectLocked(id string) {
	delete(b.projects, id)
	for i, pid := range b.projectOrder {
		if pid == id {
			b.projectOrder = append(b.projectOrder[:i], b.projectOrder[i+1:]...)
			break
		}
	}
	var keptOrder []string
	for _, tid := range b.taskOrder {
		if task, ok := b.tasks[tid]; ok && task.ProjectID == id {
			delete(b.tasks, tid)
			continue
		}
		keptOrder = append(keptOrder, tid)
	}
	b.taskOrder = keptOrder
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (b *Backend) handle(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	caller := b.callerLocked(r)

	switch {
	case strings.Contains(req.Query, "createUser("):
		b.handleCreateUser(w, req.Variables)
	case strings.Contains(req.Query, "tokenAuth("):
		b.handleTokenAuth(w, req.Variables)
	case strings.Contains(req.Query, "verifyToken("):
		b.handleVerifyToken(w, req.Variables)
	case strings.Contains(req.Query, "refreshToken("):
		b.handleRefreshToken(w, req.Variables)

	default:
		if caller == nil {
			writeErrors(w, "You do not have permission to perform this action")
			return
		}
		b.handleAuthenticated(w, req, caller)
	}
}

func (b *Backend) handleAuthenticated(w http.ResponseWriter, req graphqlRequest, caller *BackendUser) {
	switch {
	case strings.Contains(req.Query, "query GetMe"):
		writeData(w, map[string]any{"me": b.userJSON(caller.ID)})

	case strings.Contains(req.Query, "query GetUsers"):
		users := []any{}
		for _, u := range b.users {
			users = append(users, b.userJSON(u.ID))
		}
		writeData(w, map[string]any{"users": users})

	case strings.Contains(req.Query, "allProjects"):
		projects := []any{}
		for _, id := range b.projectOrder {
			projects = append(projects, b.projectJSON(id, false))
		}
		writeData(w, map[string]any{"allProjects": projects})

	case strings.Contains(req.Query, "myProjects"):
		projects := []any{}
		for _, id := range b.projectOrder {
			if b.projects[id].OwnerID == caller.ID {
				projects = append(projects, b.projectJSON(id, false))
			}
		}
		writeData(w, map[string]any{"myProjects": projects})

	case strings.Contains(req.Query, "query GetProject("):
		id, _ := req.Variables["id"].(string)
		writeData(w, map[string]any{"project": b.projectJSON(id, true)})

	case strings.Contains(req.Query, "createProject("):
		b.handleCreateProject(w, req.Variables, caller)

	case strings.Contains(req.Query, "updateProject("):
		b.handleUpdateProject(w, req.Variables)

	case strings.Contains(req.Query, "deleteProject("):
		id, _ := req.Variables["id"].(string)
		if _, ok := b.projects[id]; !ok {
			writeData(w, map[string]any{"deleteProject": map[string]any{
				"success": false,
				"message": "Project not found",
			}})
			return
		}
		b.removeProjectLocked(id)
		writeData(w, map[string]any{"deleteProject": map[string]any{
			"success": true,
			"message": "Project deleted",
		}})

	case strings.Contains(req.Query, "tasksByProject("):
		projectID, _ := req.Variables["projectId"].(string)
		tasks := []any{}
		for _, id := range b.taskOrder {
			if b.tasks[id].ProjectID == projectID {
				tasks = append(tasks, b.taskJSON(id))
			}
		}
		writeData(w, map[string]any{"tasksByProject": tasks})

	case strings.Contains(req.Query, "tasksByStatus("):
		status, _ := req.Variables["status"].(string)
		tasks := []any{}
		for _, id := range b.taskOrder {
			if b.tasks[id].Status == status {
				tasks = append(tasks, b.taskJSON(id))
			}
		}
		writeData(w, map[string]any{"tasksByStatus": tasks})

	case strings.Contains(req.Query, "allTasks"):
		tasks := []any{}
		for _, id := range b.taskOrder {
			tasks = append(tasks, b.taskJSON(id))
		}
		writeData(w, map[string]any{"allTasks": tasks})

	case strings.Contains(req.Query, "myTasks"):
		tasks := []any{}
		for _, id := range b.taskOrder {
			if b.tasks[id].AssigneeID == caller.ID {
				tasks = append(tasks, b.taskJSON(id))
			}
		}
		writeData(w, map[string]any{"myTasks": tasks})

	case strings.Contains(req.Query, "query GetTask("):
		id, _ := req.Variables["id"].(string)
		writeData(w, map[string]any{"task": b.taskJSON(id)})

	case strings.Contains(req.Query, "createTask("):
		b.handleCreateTask(w, req.Variables)

	case strings.Contains(req.Query, "updateTask("):
		b.handleUpdateTask(w, req.Variables)

	case strings.Contains(req.Query, "deleteTask("):
		id, _ := req.Variables["id"].(string)
		task, ok := b.tasks[id]
		if !ok {
			writeData(w, map[string]any{"deleteTask": map[string]any{
				"success": false,
				"message": "Task not found",
			}})
			return
		}
		delete(b.tasks, id)
		for i, tid := range b.taskOrder {
			if tid == task.ID {
				b.taskOrder = append(b.taskOrder[:i], b.taskOrder[i+1:]...)
				break
			}
		}
		writeData(w, map[string]any{"deleteTask": map[string]any{
			"success": true,
			"message": "Task deleted",
		}})

	default:
		writeErrors(w, "Cannot query unknown field")
	}
}

func (b *Backend) callerLocked(r *http.Request) *BackendUser {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "JWT ") {
		return nil
	}
	userID, ok := b.tokens[strings.TrimPrefix(header, "JWT ")]
	if !ok {
		return nil
	}
	return b.users[userID]
}

func (b *Backend) handleCreateUser(w http.ResponseWriter, vars map[string]any) {
	email, _ := vars["email"].(string)
	password, _ := vars["password"].(string)
	firstName, _ := vars["firstName"].(string)
	lastName, _ := vars["lastName"].(string)

	if b.userByEmail(email) != nil {
		writeData(w, map[string]any{"createUser": map[string]any{
			"user":    nil,
			"success": false,
			"message": "A user with this email already exists",
		}})
		return
	}

	u := &BackendUser{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}
	b.users[u.ID] = u
	writeData(w, map[string]any{"createUser": map[string]any{
		"user":    b.userJSON(u.ID),
		"success": true,
		"message": "User created successfully",
	}})
}

func (b *Backend) handleTokenAuth(w http.ResponseWriter, vars map[string]any) {
	email, _ := vars["email"].(string)
	password, _ := vars["password"].(string)

	u := b.userByEmail(email)
	if u == nil || u.Password != password {
		writeErrors(w, "Please enter valid credentials")
		return
	}

	token := "tok-" + uuid.NewString()
	b.tokens[token] = u.ID
	writeData(w, map[string]any{"tokenAuth": map[string]any{
		"token":            token,
		"payload":          map[string]any{"email": u.Email},
		"refreshExpiresIn": time.Now().Add(7 * 24 * time.Hour).Unix(),
	}})
}

func (b *Backend) handleVerifyToken(w http.ResponseWriter, vars map[string]any) {
	token, _ := vars["token"].(string)
	userID, ok := b.tokens[token]
	if !ok {
		writeErrors(w, "Error decoding signature")
		return
	}
	writeData(w, map[string]any{"verifyToken": map[string]any{
		"payload": map[string]any{"email": b.users[userID].Email},
	}})
}

func (b *Backend) handleRefreshToken(w http.ResponseWriter, vars map[string]any) {
	token, _ := vars["token"].(string)
	userID, ok := b.tokens[token]
	if !ok {
		writeErrors(w, "Signature has expired")
		return
	}
	fresh := "tok-" + uuid.NewString()
	b.tokens[fresh] = userID
	writeData(w, map[string]any{"refreshToken": map[string]any{
		"token":            fresh,
		"payload":          map[string]any{"email": b.users[userID].Email},
		"refreshExpiresIn": time.Now().Add(7 * 24 * time.Hour).Unix(),
	}})
}

func (b *Backend) handleCreateProject(w http.ResponseWriter, vars map[string]any, caller *BackendUser) {
	name, _ := vars["name"].(string)
	description, _ := vars["description"].(string)

	if strings.TrimSpace(name) == "" {
		writeData(w, map[string]any{"createProject": map[string]any{
			"project": nil,
			"success": false,
			"message": "Project name is required",
		}})
		return
	}

	p := &BackendProject{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		OwnerID:     caller.ID,
		CreatedAt:   time.Now().UTC(),
	}
	b.projects[p.ID] = p
	b.projectOrder = append(b.projectOrder, p.ID)
	writeData(w, map[string]any{"createProject": map[string]any{
		"project": b.projectJSON(p.ID, false),
		"success": true,
		"message": "Project created",
	}})
}

func (b *Backend) handleUpdateProject(w http.ResponseWriter, vars map[string]any) {
	id, _ := vars["id"].(string)
	p, ok := b.projects[id]
	if !ok {
		writeData(w, map[string]any{"updateProject": map[string]any{
			"project": nil,
			"success": false,
			"message": "Project not found",
		}})
		return
	}
	if name, ok := vars["name"].(string); ok {
		p.Name = name
	}
	if description, ok := vars["description"].(string); ok {
		p.Description = description
	}
	writeData(w, map[string]any{"updateProject": map[string]any{
		"project": b.projectJSON(id, false),
		"success": true,
		"message": "Project updated",
	}})
}

func (b *Backend) handleCreateTask(w http.ResponseWriter, vars map[string]any) {
	projectID, _ := vars["projectId"].(string)
	title, _ := vars["title"].(string)

	if _, ok := b.projects[projectID]; !ok {
		writeData(w, map[string]any{"createTask": map[string]any{
			"task":    nil,
			"success": false,
			"message": "Project not found",
		}})
		return
	}

	task := &BackendTask{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Title:     title,
		Status:    "TODO",
		Priority:  "MEDIUM",
		CreatedAt: time.Now().UTC(),
	}
	if description, ok := vars["description"].(string); ok {
		task.Description = description
	}
	if status, ok := vars["status"].(string); ok {
		task.Status = status
	}
	if priority, ok := vars["priority"].(string); ok {
		task.Priority = priority
	}
	if assigneeID, ok := vars["assigneeId"].(string); ok {
		if _, exists := b.users[assigneeID]; exists {
			task.AssigneeID = assigneeID
		}
	}
	b.tasks[task.ID] = task
	b.taskOrder = append(b.taskOrder, task.ID)
	writeData(w, map[string]any{"createTask": map[string]any{
		"task":    b.taskJSON(task.ID),
		"success": true,
		"message": "Task created",
	}})
}

func (b *Backend) handleUpdateTask(w http.ResponseWriter, vars map[string]any) {
	id, _ := vars["id"].(string)
	task, ok := b.tasks[id]
	if !ok {
		writeData(w, map[string]any{"updateTask": map[string]any{
			"task":    nil,
			"success": false,
			"message": "Task not found",
		}})
		return
	}
	if title, ok := vars["title"].(string); ok {
		task.Title = title
	}
	if description, ok := vars["description"].(string); ok {
		task.Description = description
	}
	if status, ok := vars["status"].(string); ok {
		task.Status = status
	}
	if priority, ok := vars["priority"].(string); ok {
		task.Priority = priority
	}
	if assigneeID, ok := vars["assigneeId"].(string); ok {
		// An id that does not resolve to a user clears the assignment,
		// matching the real backend's treatment of unknown assignees.
		if _, exists := b.users[assigneeID]; exists {
			task.AssigneeID = assigneeID
		} else {
			task.AssigneeID = ""
		}
	}
	writeData(w, map[string]any{"updateTask": map[string]any{
		"task":    b.taskJSON(id),
		"success": true,
		"message": "Task updated",
	}})
}

func (b *Backend) userJSON(id string) map[string]any {
	u, ok := b.users[id]
	if !ok {
		return nil
	}
	fullName := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"firstName":  u.FirstName,
		"lastName":   u.LastName,
		"fullName":   fullName,
		"isActive":   true,
		"dateJoined": time.Now().UTC().Format(time.RFC3339),
	}
}

func (b *Backend) taskJSON(id string) map[string]any {
	task, ok := b.tasks[id]
	if !ok {
		return nil
	}
	out := map[string]any{
		"id":          task.ID,
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"priority":    task.Priority,
		"createdAt":   task.CreatedAt.Format(time.RFC3339),
		"updatedAt":   task.CreatedAt.Format(time.RFC3339),
		"project":     map[string]any{"id": task.ProjectID},
	}
	if task.AssigneeID != "" {
		out["assignee"] = b.userJSON(task.AssigneeID)
	} else {
		out["assignee"] = nil
	}
	return out
}

func (b *Backend) projectJSON(id string, withTasks bool) map[string]any {
	p, ok := b.projects[id]
	if !ok {
		return nil
	}

	taskCount := 0
	tasks := []any{}
	for _, tid := range b.taskOrder {
		if b.tasks[tid].ProjectID == id {
			taskCount++
			if withTasks {
				tasks = append(tasks, b.taskJSON(tid))
			}
		}
	}

	out := map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"taskCount":   taskCount,
		"createdAt":   p.CreatedAt.Format(time.RFC3339),
		"updatedAt":   p.CreatedAt.Format(time.RFC3339),
		"owner":       b.userJSON(p.OwnerID),
	}
	if withTasks {
		out["tasks"] = tasks
	}
	return out
}

func writeData(w http.ResponseWriter, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeErrors(w http.ResponseWriter, messages ...string) {
	errs := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		errs = append(errs, map[string]any{"message": msg})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":   nil,
		"errors": errs,
	})
}
