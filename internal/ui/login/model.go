package login

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mini-jira/internal/api"
	"github.com/nhle/mini-jira/internal/model"
	"github.com/nhle/mini-jira/internal/theme"
)

// Authenticator is the slice of the API client the login view uses.
type Authenticator interface {
	TokenAuth(ctx context.Context, email, password string) (api.TokenResult, error)
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*model.User, error)
}

// TokenWriter persists a freshly issued session token.
type TokenWriter interface {
	Set(token string) error
}

// LoginSuccessMsg signals the parent that a token was obtained and
// persisted.
type LoginSuccessMsg struct {
	Email string
}

// Mode selects between the two mutually exclusive form variants.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeRegister
)

type loginResultMsg struct {
	email string
	err   error
}

type registerResultMsg struct {
	err error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email     string
	password  string
	firstName string
	lastName  string
}

// Model is the Bubble Tea model for the sign-in/register view.
type Model struct {
	client     Authenticator
	tokens     TokenWriter
	mode       Mode
	form       *huh.Form
	fb         *formBindings
	submitting bool
	errMsg     string
	successMsg string
	width      int
	height     int
}

// New creates a new login view model.
func New(client Authenticator, tokens TokenWriter, width, height int) Model {
	return Model{
		client: client,
		tokens: tokens,
		mode:   ModeSignIn,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start builds the form for the current mode. Called by the parent
// when routing to this view.
func (m *Model) Start() tea.Cmd {
	m.submitting = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Mode returns the current form mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Email returns the current email field value.
func (m Model) Email() string {
	return m.fb.email
}

// Password returns the current password field value.
func (m Model) Password() string {
	return m.fb.password
}

// Submitting reports whether an authentication operation is in flight.
// While true, further submissions are ignored.
func (m Model) Submitting() bool {
	return m.submitting
}

// ToggleMode switches between sign-in and register, clearing transient
// messages. Field values are retained. A toggle while a submission is
// pending is ignored.
func (m *Model) ToggleMode() tea.Cmd {
	if m.submitting {
		return nil
	}
	if m.mode == ModeSignIn {
		m.mode = ModeRegister
	} else {
		m.mode = ModeSignIn
	}
	m.errMsg = ""
	m.successMsg = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+t" {
			cmd := m.ToggleMode()
			return m, cmd
		}

	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = api.ErrorMessage(msg.err, "Login failed")
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, func() tea.Msg { return LoginSuccessMsg{Email: msg.email} }

	case registerResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = api.ErrorMessage(msg.err, "Registration failed")
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		// Back to sign-in with the password cleared; the email is
		// kept so the new account can log in immediately.
		m.successMsg = "Account created successfully! Please log in."
		m.mode = ModeSignIn
		m.fb.password = ""
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted && !m.submitting {
		return m.submit()
	}

	return m, cmd
}

// submit fires the operation for the current mode. Only one submission
// may be in flight at a time.
func (m Model) submit() (Model, tea.Cmd) {
	m.submitting = true
	m.errMsg = ""
	m.successMsg = ""

	client := m.client
	tokens := m.tokens
	fb := *m.fb

	if m.mode == ModeRegister {
		return m, func() tea.Msg {
			_, err := client.CreateUser(
				context.Background(),
				fb.email, fb.password, fb.firstName, fb.lastName,
			)
			return registerResultMsg{err: err}
		}
	}

	return m, func() tea.Msg {
		result, err := client.TokenAuth(context.Background(), fb.email, fb.password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		if err := tokens.Set(result.Token); err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{email: fb.email}
	}
}

func (m Model) buildForm() *huh.Form {
	required := func(label string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", label)
			}
			return nil
		}
	}

	fields := []huh.Field{}
	if m.mode == ModeRegister {
		fields = append(fields,
			huh.NewInput().
				Title("First Name").
				Placeholder("John").
				Value(&m.fb.firstName),
			huh.NewInput().
				Title("Last Name").
				Placeholder("Doe").
				Value(&m.fb.lastName),
		)
	}
	fields = append(fields,
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&m.fb.email).
			Validate(required("email")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(required("password")),
	)

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

// View renders the login card.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := "Welcome Back"
	subtitle := "Sign in to continue to Mini Jira"
	footer := "ctrl+t switch to register | enter submit"
	if m.mode == ModeRegister {
		title = "Create Account"
		subtitle = "Sign up to get started"
		footer = "ctrl+t switch to sign in | enter submit"
	}

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(subtitle))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
		b.WriteString("\n\n")
	}
	if m.successMsg != "" {
		b.WriteString(theme.SuccessStyle.Render(m.successMsg))
		b.WriteString("\n\n")
	}

	if m.submitting {
		b.WriteString(theme.HelpStyle.Render("Processing..."))
	} else if m.form != nil {
		b.WriteString(m.form.View())
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render(footer))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 10
	if h < 8 {
		h = 8
	}
	return h
}
