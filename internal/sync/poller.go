package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mini-jira/internal/model"
	"github.com/nhle/mini-jira/internal/store"
)

// Fetcher retrieves one project with its task list from the backend.
// Satisfied by *api.Client.
type Fetcher interface {
	Project(ctx context.Context, id string) (*model.Project, error)
}

// ProjectResultMsg is a tea.Msg sent each time a poll cycle completes.
// Project is nil with a nil Err when the backend reports no such
// project.
type ProjectResultMsg struct {
	ProjectID string
	Project   *model.Project
	Err       error
}

// fetchTimeout is the maximum time allowed for a single poll fetch.
const fetchTimeout = 30 * time.Second

// Poller refetches a single project on a fixed interval so edits made
// by other sessions surface without a push channel. There is no
// cancellation of an in-flight fetch when a new cycle starts; the cache
// keeps whichever result lands last.
type Poller struct {
	client   Fetcher
	cache    store.Store
	interval time.Duration

	mu        gosync.Mutex
	running   bool
	stopCh    chan struct{}
	triggerCh chan struct{}
	resultCh  chan ProjectResultMsg
}

// New creates a Poller with the given fetcher, entity cache, and
// interval.
func New(client Fetcher, cache store.Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		client:   client,
		cache:    cache,
		interval: interval,
	}
}

// Start begins polling projectID and returns a command that delivers
// the first result. The initial fetch happens immediately. Starting an
// already-running poller restarts it against the new project.
func (p *Poller) Start(projectID string) tea.Cmd {
	p.mu.Lock()
	if p.running {
		close(p.stopCh)
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.triggerCh = make(chan struct{}, 1)
	p.resultCh = make(chan ProjectResultMsg, 4)
	stopCh := p.stopCh
	triggerCh := p.triggerCh
	resultCh := p.resultCh
	p.mu.Unlock()

	go p.poll(projectID, stopCh, triggerCh, resultCh)

	return waitForResult(resultCh)
}

// Stop halts the polling goroutine. Safe to call when not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// RefreshNow triggers an immediate poll cycle, used after mutations so
// the visible state converges on the server's confirmed state without
// waiting out the interval.
func (p *Poller) RefreshNow() {
	p.mu.Lock()
	triggerCh := p.triggerCh
	running := p.running
	p.mu.Unlock()

	if !running {
		return
	}
	select {
	case triggerCh <- struct{}{}:
	default:
		// A refresh is already queued.
	}
}

// WaitForNextResult returns a command that waits for the next poll
// result. Call it after processing each ProjectResultMsg to keep
// listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	p.mu.Lock()
	resultCh := p.resultCh
	p.mu.Unlock()

	if resultCh == nil {
		return nil
	}
	return waitForResult(resultCh)
}

func (p *Poller) poll(
	projectID string,
	stopCh chan struct{},
	triggerCh chan struct{},
	resultCh chan ProjectResultMsg,
) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetch(projectID, resultCh)

	for {
		select {
		case <-stopCh:
			// Closing releases any pending waitForResult command; the
			// poll goroutine is the only sender on resultCh.
			close(resultCh)
			return
		case <-ticker.C:
			p.fetch(projectID, resultCh)
		case <-triggerCh:
			p.fetch(projectID, resultCh)
		}
	}
}

func (p *Poller) fetch(projectID string, resultCh chan ProjectResultMsg) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	project, err := p.client.Project(ctx, projectID)

	// Mirror the confirmed server state into the cache. A cache write
	// failure is non-fatal for display: the fetched project still
	// reaches the view.
	if err == nil && project != nil && p.cache != nil {
		_ = p.cache.UpsertProject(ctx, *project)
		_ = p.cache.ReplaceProjectTasks(ctx, project.ID, project.Tasks)
	}

	msg := ProjectResultMsg{ProjectID: projectID, Project: project, Err: err}
	select {
	case resultCh <- msg:
	default:
		// Drop if the channel is full to avoid blocking the poller.
	}
}

func waitForResult(resultCh chan ProjectResultMsg) tea.Cmd {
	return func() tea.Msg {
		result, ok := <-resultCh
		if !ok {
			return nil
		}
		return result
	}
}
