package projects

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
	"github.com/nhle/mini-jira/internal/theme"
)

// Lister is the slice of the API client the project list uses.
type Lister interface {
	AllProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, name, description string) (*model.Project, error)
}

// ProjectSelectedMsg signals the parent to open the board for a project.
type ProjectSelectedMsg struct {
	ID string
}

// AuthFailedMsg signals the parent that the backend rejected the
// session.
type AuthFailedMsg struct {
	Err error
}

type listMode int

const (
	modeList listMode = iota
	modeCreate
)

type cachedProjectsMsg struct {
	projects []model.Project
}

type projectsFetchedMsg struct {
	projects []model.Project
	err      error
}

type projectCreatedMsg struct {
	err error
}

type formBindings struct {
	name        string
	description string
}

// Model is the Bubble Tea model for the project list view. It renders
// cached projects immediately while a network fetch replaces the list
// in the background.
type Model struct {
	client      Lister
	cache       store.Store
	keys        *keys.KeyMap
	mode        listMode
	projects    []model.Project
	selectedIdx int
	loading     bool
	fetched     bool
	errMsg      string
	form        *huh.Form
	fb          *formBindings
	creating    bool
	width       int
	height      int
}

// New creates a new project list model.
func New(client Lister, cache store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		client: client,
		cache:  cache,
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start kicks off the cached read and the network fetch. Called by the
// parent when routing to this view.
func (m *Model) Start() tea.Cmd {
	m.mode = modeList
	m.loading = true
	m.fetched = false
	m.errMsg = ""
	return tea.Batch(m.loadCached(), m.fetch())
}

// Projects returns the currently rendered project list.
func (m Model) Projects() []model.Project {
	return m.projects
}

// Editing reports whether a form currently has keyboard focus, so the
// parent can suppress global single-letter shortcuts.
func (m Model) Editing() bool {
	return m.mode != modeList
}

// Update handles messages for the project list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case cachedProjectsMsg:
		// Cache render only counts until the network answers.
		if !m.fetched && len(msg.projects) > 0 {
			m.projects = msg.projects
			m.loading = false
		}
		return m, nil

	case projectsFetchedMsg:
		m.fetched = true
		m.loading = false
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m, func() tea.Msg { return AuthFailedMsg{Err: msg.err} }
			}
			m.errMsg = api.ErrorMessage(msg.err, "Failed to load projects")
			return m, nil
		}
		m.errMsg = ""
		m.projects = msg.projects
		if m.selectedIdx >= len(m.projects) {
			m.selectedIdx = 0
		}
		return m, nil

	case projectCreatedMsg:
		m.creating = false
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m, func() tea.Msg { return AuthFailedMsg{Err: msg.err} }
			}
			m.errMsg = api.ErrorMessage(msg.err, "Failed to create project")
			m.mode = modeList
			return m, nil
		}
		// Refetch rather than inserting locally, so the list always
		// reflects confirmed server state.
		m.mode = modeList
		m.fb.name = ""
		m.fb.description = ""
		return m, m.fetch()

	case tea.KeyMsg:
		if m.mode == modeList {
			return m.handleListKey(msg)
		}
	}

	if m.mode == modeCreate {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.projects)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.projects) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.projects) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if m.selectedIdx < len(m.projects) {
			id := m.projects[m.selectedIdx].ID
			return m, func() tea.Msg { return ProjectSelectedMsg{ID: id} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.errMsg = ""
		return m, m.fetch()

	case key.Matches(msg, m.keys.New):
		m.fb.name = ""
		m.fb.description = ""
		m.form = m.buildCreateForm()
		m.mode = modeCreate
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted && !m.creating {
		name := strings.TrimSpace(m.fb.name)
		if name == "" {
			// A blank name never reaches the network; the form stays
			// open.
			m.form = m.buildCreateForm()
			return m, m.form.Init()
		}
		m.creating = true
		description := m.fb.description
		client := m.client
		return m, func() tea.Msg {
			_, err := client.CreateProject(context.Background(), name, description)
			return projectCreatedMsg{err: err}
		}
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// validateProjectName rejects names that are empty after trimming.
func validateProjectName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func (m Model) buildCreateForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project Name").
				Placeholder("Project name").
				Value(&m.fb.name).
				Validate(validateProjectName),
			huh.NewText().
				Title("Description").
				Placeholder("Description (optional)").
				Value(&m.fb.description),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// View renders the project list.
func (m Model) View() string {
	if m.mode == modeCreate {
		return m.viewForm()
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	b.WriteString(titleStyle.Render(
		fmt.Sprintf("Projects (%d)", len(m.projects)),
	))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(theme.HelpStyle.Render("Loading projects..."))

	case m.errMsg != "" && len(m.projects) == 0:
		b.WriteString(theme.ErrorStyle.Render("Error: " + m.errMsg))
		b.WriteString("\n\n")
		b.WriteString(theme.HelpStyle.Render("r try again"))

	case len(m.projects) == 0:
		b.WriteString(theme.HelpStyle.Render("No projects yet."))
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render(
			"Create your first project to get started! Press 'n'.",
		))

	default:
		if m.errMsg != "" {
			b.WriteString(theme.ErrorStyle.Render("Error: " + m.errMsg))
			b.WriteString("\n\n")
		}
		for i, p := range m.projects {
			b.WriteString(m.renderCard(p, i == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(
		"enter open | n new project | r refresh | ctrl+o sign out | q quit",
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) renderCard(p model.Project, selected bool) string {
	var b strings.Builder

	nameStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	b.WriteString(nameStyle.Render(p.Name))
	b.WriteString(theme.HelpStyle.Render(
		fmt.Sprintf("  %d tasks", p.TaskCount),
	))
	b.WriteString("\n")
	b.WriteString(p.DescriptionOrFallback())
	b.WriteString("\n")

	created := ""
	if !p.CreatedAt.IsZero() {
		created = "  " + p.CreatedAt.Format("Jan 2, 2006")
	}
	b.WriteString(theme.HelpStyle.Render(p.Owner.DisplayName() + created))

	style := theme.CardStyle
	if selected {
		style = theme.SelectedCardStyle
	}
	return style.Width(m.cardWidth()).Render(b.String())
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Create New Project") + "\n" + m.form.View()
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) cardWidth() int {
	w := m.width - 8
	if w < 30 {
		w = 30
	}
	if w > 90 {
		w = 90
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

func (m Model) loadCached() tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		projects, err := cache.GetProjects(context.Background())
		if err != nil {
			return cachedProjectsMsg{}
		}
		return cachedProjectsMsg{projects: projects}
	}
}

func (m Model) fetch() tea.Cmd {
	client := m.client
	cache := m.cache
	return func() tea.Msg {
		projects, err := client.AllProjects(context.Background())
		if err != nil {
			return projectsFetchedMsg{err: err}
		}
		// The list query replaces the cached list wholesale so deleted
		// projects do not linger.
		if err := cache.ReplaceProjects(context.Background(), projects); err != nil {
			return projectsFetchedMsg{err: err}
		}
		return projectsFetchedMsg{projects: projects}
	}
}
