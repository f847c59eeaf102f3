package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mini-jira/internal/api"
	"github.com/nhle/mini-jira/internal/keys"
	"github.com/nhle/mini-jira/internal/model"
	"github.com/nhle/mini-jira/internal/store"
	"github.com/nhle/mini-jira/internal/sync"
	"github.com/nhle/mini-jira/internal/theme"
)

// Mutator is the slice of the API client the board uses. The project
// itself arrives through the poller.
type Mutator interface {
	Users(ctx context.Context) ([]model.User, error)
	CreateTask(ctx context.Context, input api.CreateTaskInput) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, changes api.TaskChanges) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// BackMsg signals the parent to return to the project list.
type BackMsg struct{}

// RefreshRequestMsg asks the parent to trigger an immediate poll cycle.
type RefreshRequestMsg struct{}

// AuthFailedMsg signals the parent that the backend rejected the
// session.
type AuthFailedMsg struct {
	Err error
}

type boardMode int

const (
	modeBoard boardMode = iota
	modeCreate
	modeStatus
	modeAssignee
	modeConfirmDelete
)

type cachedProjectMsg struct {
	project *model.Project
}

type usersLoadedMsg struct {
	users []model.User
	err   error
}

type mutationDoneMsg struct {
	err error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title      string
	desc       string
	status     model.Status
	priority   model.Priority
	assigneeID string
	confirm    bool
}

// Model is the Bubble Tea model for the per-project kanban board.
type Model struct {
	client Mutator
	cache  store.Store
	keys   *keys.KeyMap

	projectID    string
	project      *model.Project
	columns      []Column
	unclassified int
	users        []model.User

	loading  bool
	fetched  bool
	notFound bool
	errMsg   string

	colIdx  int
	taskIdx int

	mode         boardMode
	form         *huh.Form
	fb           *formBindings
	mutating     bool
	targetTaskID string

	width  int
	height int
}

// New creates a new board model.
func New(client Mutator, cache store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		client: client,
		cache:  cache,
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start resets the board for projectID and kicks off the cached read
// and the one-time user list fetch. The project itself is delivered by
// the parent's poller.
func (m *Model) Start(projectID string) tea.Cmd {
	m.projectID = projectID
	m.project = nil
	m.columns = nil
	m.unclassified = 0
	m.loading = true
	m.fetched = false
	m.notFound = false
	m.errMsg = ""
	m.colIdx = 0
	m.taskIdx = 0
	m.mode = modeBoard
	m.mutating = false
	return tea.Batch(m.loadCachedProject(), m.loadUsers())
}

// ProjectID returns the id of the project being displayed.
func (m Model) ProjectID() string {
	return m.projectID
}

// Editing reports whether a form currently has keyboard focus, so the
// parent can suppress global single-letter shortcuts.
func (m Model) Editing() bool {
	return m.mode != modeBoard
}

// Update handles messages for the board view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case cachedProjectMsg:
		// Cached state renders only until the first poll answers.
		if !m.fetched && msg.project != nil {
			m.setProject(msg.project)
			m.loading = false
		}
		return m, nil

	case sync.ProjectResultMsg:
		if msg.ProjectID != m.projectID {
			return m, nil
		}
		m.fetched = true
		m.loading = false
		if msg.Err != nil {
			if api.IsAuthError(msg.Err) {
				return m, func() tea.Msg { return AuthFailedMsg{Err: msg.Err} }
			}
			// No retry affordance here: the next poll cycle is the
			// retry.
			m.errMsg = api.ErrorMessage(msg.Err, "Failed to load project")
			return m, nil
		}
		m.errMsg = ""
		if msg.Project == nil {
			m.notFound = true
			m.project = nil
			m.columns = nil
			return m, nil
		}
		m.notFound = false
		m.setProject(msg.Project)
		return m, nil

	case usersLoadedMsg:
		if msg.err == nil {
			m.users = msg.users
		}
		return m, nil

	case mutationDoneMsg:
		m.mutating = false
		m.mode = modeBoard
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m, func() tea.Msg { return AuthFailedMsg{Err: msg.err} }
			}
			m.errMsg = api.ErrorMessage(msg.err, "Operation failed")
			return m, nil
		}
		// Refetch instead of patching locally: the visible state is
		// always the server's confirmed state.
		return m, func() tea.Msg { return RefreshRequestMsg{} }

	case tea.KeyMsg:
		if m.mode == modeBoard {
			return m.handleBoardKey(msg)
		}
	}

	if m.mode != modeBoard {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m *Model) setProject(p *model.Project) {
	m.project = p
	columns, unclassified := GroupTasks(p.Tasks)
	m.columns = columns
	m.unclassified = len(unclassified)
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.colIdx >= len(m.columns) {
		m.colIdx = 0
	}
	if len(m.columns) == 0 {
		m.taskIdx = 0
		return
	}
	if n := len(m.columns[m.colIdx].Tasks); m.taskIdx >= n {
		if n == 0 {
			m.taskIdx = 0
		} else {
			m.taskIdx = n - 1
		}
	}
}

func (m Model) selectedTask() *model.Task {
	if m.colIdx >= len(m.columns) {
		return nil
	}
	tasks := m.columns[m.colIdx].Tasks
	if m.taskIdx >= len(tasks) {
		return nil
	}
	return &tasks[m.taskIdx]
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.Right):
		if len(m.columns) > 0 {
			m.colIdx = (m.colIdx + 1) % len(m.columns)
			m.taskIdx = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Left):
		if len(m.columns) > 0 {
			m.colIdx--
			if m.colIdx < 0 {
				m.colIdx = len(m.columns) - 1
			}
			m.taskIdx = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if n := m.columnLen(); n > 0 {
			m.taskIdx = (m.taskIdx + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n := m.columnLen(); n > 0 {
			m.taskIdx--
			if m.taskIdx < 0 {
				m.taskIdx = n - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, func() tea.Msg { return RefreshRequestMsg{} }

	case key.Matches(msg, m.keys.New):
		if m.project == nil {
			return m, nil
		}
		m.fb.title = ""
		m.fb.desc = ""
		m.fb.status = model.StatusTodo
		m.fb.priority = model.PriorityMedium
		m.fb.assigneeID = ""
		m.form = m.buildCreateForm()
		m.mode = modeCreate
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Status):
		task := m.selectedTask()
		if task == nil {
			return m, nil
		}
		m.targetTaskID = task.ID
		m.fb.status = task.Status
		m.form = m.buildStatusForm()
		m.mode = modeStatus
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Assignee):
		task := m.selectedTask()
		if task == nil {
			return m, nil
		}
		m.targetTaskID = task.ID
		m.fb.assigneeID = task.AssigneeID()
		m.form = m.buildAssigneeForm()
		m.mode = modeAssignee
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		task := m.selectedTask()
		if task == nil {
			return m, nil
		}
		m.targetTaskID = task.ID
		m.fb.confirm = false
		m.form = m.buildConfirmForm(task.Title)
		m.mode = modeConfirmDelete
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) columnLen() int {
	if m.colIdx >= len(m.columns) {
		return 0
	}
	return len(m.columns[m.colIdx].Tasks)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeBoard
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted && !m.mutating {
		return m.submitForm()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeBoard
		return m, nil
	}
	return m, cmd
}

func (m Model) submitForm() (Model, tea.Cmd) {
	client := m.client
	fb := *m.fb
	taskID := m.targetTaskID

	switch m.mode {
	case modeCreate:
		title := strings.TrimSpace(fb.title)
		if title == "" {
			// A blank title never reaches the network; the form stays
			// open.
			m.form = m.buildCreateForm()
			return m, m.form.Init()
		}
		m.mutating = true
		input := api.CreateTaskInput{
			ProjectID:   m.projectID,
			Title:       title,
			Description: fb.desc,
			Status:      fb.status,
			Priority:    fb.priority,
			AssigneeID:  fb.assigneeID,
		}
		return m, func() tea.Msg {
			_, err := client.CreateTask(context.Background(), input)
			return mutationDoneMsg{err: err}
		}

	case modeStatus:
		m.mutating = true
		status := fb.status
		return m, func() tea.Msg {
			_, err := client.UpdateTask(context.Background(), taskID, api.TaskChanges{
				Status: &status,
			})
			return mutationDoneMsg{err: err}
		}

	case modeAssignee:
		m.mutating = true
		assigneeID := fb.assigneeID
		return m, func() tea.Msg {
			_, err := client.UpdateTask(context.Background(), taskID, api.TaskChanges{
				AssigneeID: &assigneeID,
			})
			return mutationDoneMsg{err: err}
		}

	case modeConfirmDelete:
		if !fb.confirm {
			m.mode = modeBoard
			return m, nil
		}
		m.mutating = true
		return m, func() tea.Msg {
			err := client.DeleteTask(context.Background(), taskID)
			return mutationDoneMsg{err: err}
		}
	}

	m.mode = modeBoard
	return m, nil
}

func (m Model) statusOptions() []huh.Option[model.Status] {
	options := make([]huh.Option[model.Status], 0, 4)
	for _, s := range model.Statuses() {
		options = append(options, huh.NewOption(s.Label(), s))
	}
	return options
}

func (m Model) priorityOptions() []huh.Option[model.Priority] {
	options := make([]huh.Option[model.Priority], 0, 4)
	for _, p := range model.Priorities() {
		options = append(options, huh.NewOption(p.Label(), p))
	}
	return options
}

func (m Model) assigneeOptions() []huh.Option[string] {
	options := []huh.Option[string]{huh.NewOption("Unassigned", "")}
	for _, u := range m.users {
		user := u
		options = append(options, huh.NewOption(user.DisplayName(), user.ID))
	}
	return options
}

// validateTaskTitle rejects titles that are empty after trimming.
func validateTaskTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

func (m Model) buildCreateForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Task title...").
				Value(&m.fb.title).
				Validate(validateTaskTitle),
			huh.NewText().
				Title("Description").
				Placeholder("Optional description").
				Value(&m.fb.desc),
			huh.NewSelect[model.Status]().
				Title("Status").
				Options(m.statusOptions()...).
				Value(&m.fb.status),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(m.priorityOptions()...).
				Value(&m.fb.priority),
			huh.NewSelect[string]().
				Title("Assignee").
				Options(m.assigneeOptions()...).
				Value(&m.fb.assigneeID),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildStatusForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.Status]().
				Title("Status").
				Options(m.statusOptions()...).
				Value(&m.fb.status),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildAssigneeForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Assignee").
				Options(m.assigneeOptions()...).
				Value(&m.fb.assigneeID),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm(title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete task %q?", title)).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// View renders the board.
func (m Model) View() string {
	if m.mode != modeBoard && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	padded := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch {
	case m.loading:
		return padded.Render(theme.HelpStyle.Render("Loading project..."))

	case m.errMsg != "" && m.project == nil:
		return padded.Render(theme.ErrorStyle.Render("Error: " + m.errMsg))

	case m.notFound:
		return padded.Render(theme.ErrorStyle.Render("Project not found"))

	case m.project == nil:
		return padded.Render("")
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	b.WriteString(titleStyle.Render(m.project.Name))
	b.WriteString(theme.HelpStyle.Render(
		fmt.Sprintf("  %d tasks", len(m.project.Tasks)),
	))
	b.WriteString("\n")
	if m.project.Description != "" {
		b.WriteString(theme.HelpStyle.Render(m.project.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	rendered := make([]string, 0, len(m.columns))
	for i, col := range m.columns {
		rendered = append(rendered, m.renderColumn(col, i == m.colIdx))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render("Error: " + m.errMsg))
		b.WriteString("\n")
	}
	if m.unclassified > 0 {
		b.WriteString(theme.HelpStyle.Render(
			fmt.Sprintf("%d unclassified task(s) not shown", m.unclassified),
		))
		b.WriteString("\n")
	}

	return padded.Render(b.String())
}

func (m Model) renderColumn(col Column, selected bool) string {
	var b strings.Builder

	header := theme.StatusStyle(col.Status).Render(col.Status.Label()) +
		theme.HelpStyle.Render(fmt.Sprintf(" %d", len(col.Tasks)))
	b.WriteString(header)
	b.WriteString("\n")

	if len(col.Tasks) == 0 {
		b.WriteString(theme.HelpStyle.Render("No tasks"))
	}

	for i, task := range col.Tasks {
		b.WriteString(m.renderTask(task, selected && i == m.taskIdx))
		b.WriteString("\n")
	}

	style := theme.ColumnStyle
	if selected {
		style = theme.SelectedColumnStyle
	}
	return style.Width(m.columnWidth()).Render(b.String())
}

func (m Model) renderTask(task model.Task, selected bool) string {
	var b strings.Builder

	b.WriteString(theme.PriorityStyle(task.Priority).Render(task.Priority.Label()))
	b.WriteString("\n")
	b.WriteString(task.Title)
	if task.Assignee != nil {
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render(task.Assignee.DisplayName()))
	}

	style := theme.CardStyle
	if selected {
		style = theme.SelectedCardStyle
	}
	return style.Width(m.columnWidth() - 4).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) columnWidth() int {
	w := (m.width - 12) / 4
	if w < 18 {
		w = 18
	}
	return w
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) loadCachedProject() tea.Cmd {
	cache := m.cache
	id := m.projectID
	return func() tea.Msg {
		project, err := cache.GetProject(context.Background(), id)
		if err != nil {
			return cachedProjectMsg{}
		}
		return cachedProjectMsg{project: project}
	}
}

// loadUsers fetches the user list once per board entry, falling back to
// cached users when the backend is unreachable.
func (m Model) loadUsers() tea.Cmd {
	client := m.client
	cache := m.cache
	return func() tea.Msg {
		users, err := client.Users(context.Background())
		if err == nil {
			_ = cache.UpsertUsers(context.Background(), users)
			return usersLoadedMsg{users: users}
		}
		cached, cacheErr := cache.GetUsers(context.Background())
		if cacheErr != nil {
			return usersLoadedMsg{err: err}
		}
		return usersLoadedMsg{users: cached, err: err}
	}
}
