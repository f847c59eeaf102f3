package sync

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mini-jira/internal/api"
	"github.com/nhle/mini-jira/tests/testutil"
)

// longInterval keeps the ticker out of the way so tests only observe
// the initial fetch and explicit triggers.
const longInterval = time.Hour

func newPollerFixture(t *testing.T) (*testutil.Backend, *Poller) {
	t.Helper()

	b := testutil.NewBackend(t)
	b.AddUser("jane@example.com", "hunter2", "Jane", "Doe")
	token := b.TokenFor("jane@example.com")

	client := api.NewClient(b.URL(), staticTokens{token: token}, 5*time.Second)
	cache := testutil.NewTestStore(t)
	p := New(client, cache, longInterval)
	t.Cleanup(p.Stop)
	return b, p
}

type staticTokens struct {
	token string
}

func (s staticTokens) Get() (string, error) {
	return s.token, nil
}

func TestPollerDeliversInitialResult(t *testing.T) {
	b, p := newPollerFixture(t)
	owner := b.AddUser("owner@example.com", "pw", "", "")
	project := b.AddProject("Alpha", "desc", owner.ID)
	b.AddTask(project.ID, "task one", "TODO", "MEDIUM", "")

	cmd := p.Start(project.ID)
	msg, ok := cmd().(ProjectResultMsg)
	if !ok {
		t.Fatal("expected a ProjectResultMsg from the start command")
	}
	if msg.Err != nil {
		t.Fatalf("unexpected fetch error: %v", msg.Err)
	}
	if msg.Project == nil || msg.Project.Name != "Alpha" {
		t.Fatalf("unexpected project %+v", msg.Project)
	}
	if len(msg.Project.Tasks) != 1 {
		t.Errorf("expected 1 task, got %d", len(msg.Project.Tasks))
	}
}

func TestPollerMirrorsResultIntoCache(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddUser("jane@example.com", "hunter2", "Jane", "Doe")
	token := b.TokenFor("jane@example.com")
	owner := b.AddUser("owner@example.com", "pw", "", "")
	project := b.AddProject("Alpha", "", owner.ID)
	b.AddTask(project.ID, "task one", "DOING", "HIGH", "")

	client := api.NewClient(b.URL(), staticTokens{token: token}, 5*time.Second)
	cache := testutil.NewTestStore(t)
	p := New(client, cache, longInterval)
	t.Cleanup(p.Stop)

	cmd := p.Start(project.ID)
	if msg := cmd().(ProjectResultMsg); msg.Err != nil {
		t.Fatalf("unexpected fetch error: %v", msg.Err)
	}

	cached, err := cache.GetProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("reading cache: %v", err)
	}
	if cached == nil {
		t.Fatal("expected the fetched project to be cached")
	}
	if len(cached.Tasks) != 1 || cached.Tasks[0].Title != "task one" {
		t.Errorf("tasks not mirrored: %+v", cached.Tasks)
	}
}

func TestRefreshNowPicksUpRemoteChanges(t *testing.T) {
	b, p := newPollerFixture(t)
	owner := b.AddUser("owner@example.com", "pw", "", "")
	project := b.AddProject("Alpha", "", owner.ID)

	cmd := p.Start(project.ID)
	first := cmd().(ProjectResultMsg)
	if first.Err != nil {
		t.Fatalf("unexpected fetch error: %v", first.Err)
	}
	if len(first.Project.Tasks) != 0 {
		t.Fatalf("expected empty board, got %d tasks", len(first.Project.Tasks))
	}

	// Another session creates a task; an explicit refresh must surface
	// it without waiting for the interval.
	b.AddTask(project.ID, "late arrival", "TODO", "MEDIUM", "")
	p.RefreshNow()

	next := p.WaitForNextResult()().(ProjectResultMsg)
	if next.Err != nil {
		t.Fatalf("unexpected fetch error: %v", next.Err)
	}
	if len(next.Project.Tasks) != 1 || next.Project.Tasks[0].Title != "late arrival" {
		t.Errorf("refresh did not pick up the new task: %+v", next.Project.Tasks)
	}
}

func TestPollerReportsMissingProject(t *testing.T) {
	_, p := newPollerFixture(t)

	cmd := p.Start("00000000-0000-0000-0000-00000000dead")
	msg := cmd().(ProjectResultMsg)
	if msg.Err != nil {
		t.Fatalf("a missing project is not an error: %v", msg.Err)
	}
	if msg.Project != nil {
		t.Errorf("expected nil project, got %+v", msg.Project)
	}
}

func TestStopReleasesPendingWait(t *testing.T) {
	b, p := newPollerFixture(t)
	owner := b.AddUser("owner@example.com", "pw", "", "")
	project := b.AddProject("Alpha", "", owner.ID)

	cmd := p.Start(project.ID)
	_ = cmd()

	pending := p.WaitForNextResult()
	done := make(chan tea.Msg, 1)
	go func() { done <- pending() }()

	p.Stop()

	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("expected a nil message after stop, got %#v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait command still blocked after stop")
	}
}

func TestStopIsSafeToRepeat(t *testing.T) {
	b, p := newPollerFixture(t)
	owner := b.AddUser("owner@example.com", "pw", "", "")
	project := b.AddProject("Alpha", "", owner.ID)

	cmd := p.Start(project.ID)
	_ = cmd()

	p.Stop()
	p.Stop()
	// A trigger after stop must not panic or block.
	p.RefreshNow()
}
