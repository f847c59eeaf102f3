package projects

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/huh"

	"github.com/nhle/mini-jira/internal/api"
	"github.com/nhle/mini-jira/internal/keys"
	"github.com/nhle/mini-jira/internal/model"
	"github.com/nhle/mini-jira/tests/testutil"
)

type fakeLister struct {
	projects    []model.Project
	createCalls int
	err         error
}

func (f *fakeLister) AllProjects(ctx context.Context) ([]model.Project, error) {
	return f.projects, f.err
}

func (f *fakeLister) CreateProject(ctx context.Context, name, description string) (*model.Project, error) {
	f.createCalls++
	if f.err != nil {
		return nil, f.err
	}
	p := model.Project{ID: "created", Name: name, Description: description}
	f.projects = append(f.projects, p)
	return &p, nil
}

func newList(t *testing.T, lister *fakeLister) Model {
	t.Helper()
	return New(lister, testutil.NewTestStore(t), keys.DefaultKeyMap(), 100, 30)
}

func TestCachedProjectsRenderUntilFetchAnswers(t *testing.T) {
	m := newList(t, &fakeLister{})
	_ = (&m).Start()

	cached := []model.Project{{ID: "p1", Name: "From Cache"}}
	m, _ = m.Update(cachedProjectsMsg{projects: cached})

	if m.loading {
		t.Error("cached rows should end the loading state")
	}
	if len(m.Projects()) != 1 || m.Projects()[0].Name != "From Cache" {
		t.Errorf("cached projects not rendered: %+v", m.Projects())
	}

	fresh := []model.Project{
		{ID: "p1", Name: "From Server"},
		{ID: "p2", Name: "Brand New"},
	}
	m, _ = m.Update(projectsFetchedMsg{projects: fresh})
	if len(m.Projects()) != 2 || m.Projects()[0].Name != "From Server" {
		t.Errorf("network result should replace the cached list: %+v", m.Projects())
	}

	// A cache read that lands after the network answer is stale.
	m, _ = m.Update(cachedProjectsMsg{projects: cached})
	if len(m.Projects()) != 2 {
		t.Error("a late cache read must not override the fetched list")
	}
}

func TestFetchErrorKeepsCachedList(t *testing.T) {
	m := newList(t, &fakeLister{})
	_ = (&m).Start()
	m, _ = m.Update(cachedProjectsMsg{projects: []model.Project{{ID: "p1", Name: "Cached"}}})

	m, _ = m.Update(projectsFetchedMsg{err: errors.New("connection refused")})

	if len(m.Projects()) != 1 {
		t.Error("a failed fetch must not drop the cached rows")
	}
	if m.errMsg == "" {
		t.Error("the fetch error should be surfaced")
	}
}

func TestAuthErrorEmitsAuthFailedMsg(t *testing.T) {
	m := newList(t, &fakeLister{})
	_ = (&m).Start()

	_, cmd := m.Update(projectsFetchedMsg{
		err: &api.AuthError{Message: "Signature has expired"},
	})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(AuthFailedMsg); !ok {
		t.Error("expected an AuthFailedMsg for a rejected session")
	}
}

func TestFetchReplacesCacheWholesale(t *testing.T) {
	lister := &fakeLister{projects: []model.Project{
		{ID: "p1", Name: "Alpha"},
		{ID: "p2", Name: "Beta"},
	}}
	m := newList(t, lister)

	msg := m.fetch()()
	if fetched, ok := msg.(projectsFetchedMsg); !ok || fetched.err != nil {
		t.Fatalf("unexpected fetch result: %#v", msg)
	}

	// The server no longer returns p2.
	lister.projects = []model.Project{{ID: "p1", Name: "Alpha"}}
	if fetched := m.fetch()().(projectsFetchedMsg); fetched.err != nil {
		t.Fatalf("unexpected fetch error: %v", fetched.err)
	}

	cached, err := m.cache.GetProjects(context.Background())
	if err != nil {
		t.Fatalf("reading cache: %v", err)
	}
	if len(cached) != 1 || cached[0].ID != "p1" {
		t.Errorf("deleted project lingers in the cache: %+v", cached)
	}
}

func TestWhitespaceOnlyNameNeverCreates(t *testing.T) {
	if err := validateProjectName("   "); err == nil {
		t.Error("a whitespace-only name should fail validation")
	}
	if err := validateProjectName("Alpha"); err != nil {
		t.Errorf("a real name should pass validation: %v", err)
	}

	lister := &fakeLister{}
	m := newList(t, lister)
	_ = (&m).Start()
	m.fb.name = "   "
	m.form = m.buildCreateForm()
	m.mode = modeCreate
	m.form.State = huh.StateCompleted

	m, _ = m.updateForm(struct{}{})
	if lister.createCalls != 0 {
		t.Errorf("a blank name reached the client: %d calls", lister.createCalls)
	}
	if m.mode != modeCreate {
		t.Error("the form should stay open")
	}
	if m.creating {
		t.Error("no create should be in flight")
	}

	// A real name submits, trimmed.
	m.fb.name = "  Alpha  "
	m.form = m.buildCreateForm()
	m.form.State = huh.StateCompleted
	m, cmd := m.updateForm(struct{}{})
	if cmd == nil {
		t.Fatal("expected a create command")
	}
	_ = cmd()
	if lister.createCalls != 1 {
		t.Fatalf("expected one create call, got %d", lister.createCalls)
	}
	if got := lister.projects[len(lister.projects)-1].Name; got != "Alpha" {
		t.Errorf("expected the trimmed name, got %q", got)
	}
}

func TestProjectCreatedRefetches(t *testing.T) {
	m := newList(t, &fakeLister{})
	_ = (&m).Start()
	m.mode = modeCreate
	m.creating = true
	m.fb.name = "New Project"

	m, cmd := m.Update(projectCreatedMsg{})
	if m.mode != modeList {
		t.Error("creation should return to the list")
	}
	if m.fb.name != "" {
		t.Error("form fields should clear after a successful create")
	}
	if cmd == nil {
		t.Error("a successful create should trigger a refetch")
	}
}
