package store

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/mini-jira/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

func testOwner() *model.User {
	return &model.User{
		ID:       "owner-1",
		Email:    "owner@example.com",
		FullName: "Project Owner",
		IsActive: true,
	}
}

func TestReplaceProjectsIsWholesale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := testOwner()

	first := []model.Project{
		{ID: "p1", Name: "Alpha", Owner: owner, CreatedAt: time.Now().UTC()},
		{ID: "p2", Name: "Beta", Owner: owner, CreatedAt: time.Now().UTC()},
	}
	if err := s.ReplaceProjects(ctx, first); err != nil {
		t.Fatalf("seeding projects: %v", err)
	}

	// The server no longer returns p2: it must not linger in the cache.
	second := []model.Project{
		{ID: "p1", Name: "Alpha Renamed", Owner: owner, CreatedAt: time.Now().UTC()},
	}
	if err := s.ReplaceProjects(ctx, second); err != nil {
		t.Fatalf("replacing projects: %v", err)
	}

	projects, err := s.GetProjects(ctx)
	if err != nil {
		t.Fatalf("reading projects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project after replace, got %d", len(projects))
	}
	if projects[0].ID != "p1" || projects[0].Name != "Alpha Renamed" {
		t.Errorf("unexpected project %+v", projects[0])
	}
	if projects[0].Owner == nil || projects[0].Owner.FullName != "Project Owner" {
		t.Errorf("owner not resolved: %+v", projects[0].Owner)
	}
}

func TestGetProjectMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)

	p, err := s.GetProject(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for uncached project, got %+v", p)
	}
}

func TestReplaceProjectTasksPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertProject(ctx, model.Project{ID: "p1", Name: "Alpha"}); err != nil {
		t.Fatalf("seeding project: %v", err)
	}

	assignee := &model.User{ID: "u1", Email: "dev@example.com"}
	tasks := []model.Task{
		{ID: "t3", Title: "third", Status: model.StatusDone, Priority: model.PriorityLow},
		{ID: "t1", Title: "first", Status: model.StatusTodo, Priority: model.PriorityHigh, Assignee: assignee},
		{ID: "t2", Title: "second", Status: model.StatusTodo, Priority: model.PriorityMedium},
	}
	if err := s.ReplaceProjectTasks(ctx, "p1", tasks); err != nil {
		t.Fatalf("replacing tasks: %v", err)
	}

	p, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("reading project: %v", err)
	}
	if p == nil {
		t.Fatal("expected cached project")
	}
	if len(p.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(p.Tasks))
	}

	// Server order, not id or status order.
	for i, want := range []string{"t3", "t1", "t2"} {
		if p.Tasks[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, p.Tasks[i].ID)
		}
	}
	if p.Tasks[1].Assignee == nil || p.Tasks[1].Assignee.Email != "dev@example.com" {
		t.Errorf("assignee not resolved: %+v", p.Tasks[1].Assignee)
	}
}

func TestReplaceProjectTasksDropsRemovedTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertProject(ctx, model.Project{ID: "p1", Name: "Alpha"}); err != nil {
		t.Fatalf("seeding project: %v", err)
	}
	if err := s.ReplaceProjectTasks(ctx, "p1", []model.Task{
		{ID: "t1", Title: "keep", Status: model.StatusTodo},
		{ID: "t2", Title: "drop", Status: model.StatusTodo},
	}); err != nil {
		t.Fatalf("seeding tasks: %v", err)
	}

	if err := s.ReplaceProjectTasks(ctx, "p1", []model.Task{
		{ID: "t1", Title: "keep", Status: model.StatusDoing},
	}); err != nil {
		t.Fatalf("replacing tasks: %v", err)
	}

	p, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("reading project: %v", err)
	}
	if len(p.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(p.Tasks))
	}
	if p.Tasks[0].Status != model.StatusDoing {
		t.Errorf("expected updated status DOING, got %s", p.Tasks[0].Status)
	}
}

func TestUpsertUsersByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	users := []model.User{
		{ID: "u1", Email: "b@example.com"},
		{ID: "u2", Email: "a@example.com"},
	}
	if err := s.UpsertUsers(ctx, users); err != nil {
		t.Fatalf("upserting users: %v", err)
	}

	// Re-upserting the same id replaces rather than duplicates.
	if err := s.UpsertUsers(ctx, []model.User{
		{ID: "u1", Email: "b@example.com", FullName: "Renamed"},
	}); err != nil {
		t.Fatalf("re-upserting user: %v", err)
	}

	got, err := s.GetUsers(ctx)
	if err != nil {
		t.Fatalf("reading users: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 users, got %d", len(got))
	}
	// Ordered by email.
	if got[0].ID != "u2" || got[1].ID != "u1" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[1].FullName != "Renamed" {
		t.Errorf("upsert did not replace: %+v", got[1])
	}
}

func TestResetWipesEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceProjects(ctx, []model.Project{
		{ID: "p1", Name: "Alpha", Owner: testOwner()},
	}); err != nil {
		t.Fatalf("seeding projects: %v", err)
	}
	if err := s.ReplaceProjectTasks(ctx, "p1", []model.Task{
		{ID: "t1", Title: "task", Status: model.StatusTodo},
	}); err != nil {
		t.Fatalf("seeding tasks: %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("resetting cache: %v", err)
	}

	projects, err := s.GetProjects(ctx)
	if err != nil {
		t.Fatalf("reading projects: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("expected empty project list, got %d", len(projects))
	}
	users, err := s.GetUsers(ctx)
	if err != nil {
		t.Fatalf("reading users: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected empty user list, got %d", len(users))
	}
}
