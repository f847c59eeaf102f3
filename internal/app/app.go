package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mini-jira/internal/api"
	"github.com/nhle/mini-jira/internal/keys"
	"github.com/nhle/mini-jira/internal/session"
	"github.com/nhle/mini-jira/internal/store"
	appsync "github.com/nhle/mini-jira/internal/sync"
	"github.com/nhle/mini-jira/internal/ui"
	"github.com/nhle/mini-jira/internal/ui/board"
	helpview "github.com/nhle/mini-jira/internal/ui/help"
	loginview "github.com/nhle/mini-jira/internal/ui/login"
	projectsview "github.com/nhle/mini-jira/internal/ui/projects"
)

// refreshWindow is how close to expiry a stored token must be before
// startup attempts a proactive refresh instead of a plain verify.
const refreshWindow = 2 * time.Minute

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewProjects
	ViewBoard
	ViewHelp
)

// sessionCheckedMsg carries the result of the startup token check.
type sessionCheckedMsg struct {
	email    string
	signedIn bool
}

// signedOutMsg reports that the session and cache were cleared.
type signedOutMsg struct{}

// Model is the root Bubble Tea model that manages view routing, the
// session, and the board poller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	client       *api.Client
	tokens       *session.Store
	cache        store.Store
	keys         *keys.KeyMap
	poller       *appsync.Poller

	loginView    loginview.Model
	projectsView projectsview.Model
	boardView    board.Model
	helpView     helpview.Model

	email string
	ready bool
}

// New creates the root application model.
func New(
	client *api.Client,
	tokens *session.Store,
	cache store.Store,
	poller *appsync.Poller,
) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView:  ViewLogin,
		client:       client,
		tokens:       tokens,
		cache:        cache,
		keys:         k,
		poller:       poller,
		loginView:    loginview.New(client, tokens, 80, 24),
		projectsView: projectsview.New(client, cache, k, 80, 24),
		boardView:    board.New(client, cache, k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
	}
}

// Init checks the stored session before the first view renders.
func (m Model) Init() tea.Cmd {
	return m.checkSession()
}

// checkSession decides the initial view from the stored token. A token
// close to expiry is refreshed; otherwise it is verified against the
// backend. Transport failures do not sign the user out: the cache makes
// the project list usable offline and the backend re-judges the token
// on the next authenticated call.
func (m Model) checkSession() tea.Cmd {
	tokens := m.tokens
	client := m.client
	return func() tea.Msg {
		token, err := tokens.Get()
		if err != nil {
			return sessionCheckedMsg{}
		}

		claims, err := session.ParseClaims(token)
		if err != nil {
			_ = tokens.Clear()
			return sessionCheckedMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if claims.ExpiresWithin(refreshWindow) {
			result, err := client.RefreshToken(ctx, token)
			if err != nil {
				if api.IsAuthError(err) {
					_ = tokens.Clear()
					return sessionCheckedMsg{}
				}
				return sessionCheckedMsg{email: claims.Email, signedIn: true}
			}
			if err := tokens.Set(result.Token); err == nil {
				if fresh, err := session.ParseClaims(result.Token); err == nil {
					claims = fresh
				}
			}
			return sessionCheckedMsg{email: claims.Email, signedIn: true}
		}

		if err := client.VerifyToken(ctx, token); err != nil {
			if api.IsAuthError(err) {
				_ = tokens.Clear()
				return sessionCheckedMsg{}
			}
		}
		return sessionCheckedMsg{email: claims.Email, signedIn: true}
	}
}

// signOut clears the token and the cache, stops polling, and routes
// back to the login view.
func (m *Model) signOut() tea.Cmd {
	m.poller.Stop()
	m.email = ""
	m.currentView = ViewLogin

	tokens := m.tokens
	cache := m.cache
	startCmd := m.loginView.Start()
	clearCmd := func() tea.Msg {
		_ = tokens.Clear()
		_ = cache.Reset(context.Background())
		return signedOutMsg{}
	}
	return tea.Batch(startCmd, clearCmd)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.projectsView.SetSize(contentWidth, contentHeight)
		m.boardView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can size themselves.
		return m.updateActiveView(msg)

	case sessionCheckedMsg:
		if msg.signedIn {
			m.email = msg.email
			m.currentView = ViewProjects
			return m, m.projectsView.Start()
		}
		m.currentView = ViewLogin
		return m, m.loginView.Start()

	case signedOutMsg:
		return m, nil

	case loginview.LoginSuccessMsg:
		m.email = msg.Email
		m.currentView = ViewProjects
		return m, m.projectsView.Start()

	case projectsview.ProjectSelectedMsg:
		m.currentView = ViewBoard
		startCmd := m.boardView.Start(msg.ID)
		pollCmd := m.poller.Start(msg.ID)
		return m, tea.Batch(startCmd, pollCmd)

	case projectsview.AuthFailedMsg:
		return m, m.signOut()

	case board.AuthFailedMsg:
		return m, m.signOut()

	case board.BackMsg:
		m.poller.Stop()
		m.currentView = ViewProjects
		return m, m.projectsView.Start()

	case board.RefreshRequestMsg:
		m.poller.RefreshNow()
		return m, nil

	case appsync.ProjectResultMsg:
		// Forward to the board and re-arm the listener. Results for a
		// project the user already left are ignored by the board.
		var cmd tea.Cmd
		m.boardView, cmd = m.boardView.Update(msg)
		return m, tea.Batch(cmd, m.poller.WaitForNextResult())

	case tea.KeyMsg:
		if handled, model, cmd := m.handleGlobalKey(msg); handled {
			return model, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that apply regardless of the active
// view. Single-letter shortcuts are suppressed while a form has focus
// so typed text is not intercepted.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return true, m, tea.Quit
	}

	editing := m.editing()

	if msg.String() == "ctrl+o" && m.currentView != ViewLogin && !editing {
		return true, m, m.signOut()
	}

	if msg.String() == "?" && !editing && m.currentView != ViewLogin {
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil
	}

	if msg.String() == "q" && !editing {
		switch m.currentView {
		case ViewProjects:
			m.poller.Stop()
			return true, m, tea.Quit
		case ViewHelp:
			m.currentView = m.previousView
			return true, m, nil
		}
	}

	if msg.String() == "esc" && m.currentView == ViewHelp {
		m.currentView = m.previousView
		return true, m, nil
	}

	return false, m, nil
}

// editing reports whether the active view has a form with keyboard
// focus.
func (m Model) editing() bool {
	switch m.currentView {
	case ViewLogin:
		return true
	case ViewProjects:
		return m.projectsView.Editing()
	case ViewBoard:
		return m.boardView.Editing()
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewProjects:
		m.projectsView, cmd = m.projectsView.Update(msg)
	case ViewBoard:
		m.boardView, cmd = m.boardView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Mini Jira", m.accountStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewProjects:
		return m.projectsView.View()
	case ViewBoard:
		return m.boardView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// accountStatus is the right-hand side of the header: the signed-in
// account, with a live-sync marker while a board is open.
func (m Model) accountStatus() string {
	if m.email == "" {
		return "signed out"
	}
	if m.currentView == ViewBoard {
		return m.email + " • syncing"
	}
	return m.email
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter submit | ctrl+t switch mode | ctrl+c quit"
	case ViewProjects:
		return "enter open | n new | r refresh | ? help | ctrl+o sign out | q quit"
	case ViewBoard:
		return "h/l column | j/k task | n new | s status | a assignee | d delete | esc back | ? help"
	case ViewHelp:
		return "? close help | esc back"
	default:
		return ""
	}
}
