package board

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/huh"

	"github.com/nhle/mini-jira/internal/api"
	"github.com/nhle/mini-jira/internal/keys"
	"github.com/nhle/mini-jira/internal/model"
	"github.com/nhle/mini-jira/internal/sync"
	"github.com/nhle/mini-jira/tests/testutil"
)

type fakeMutator struct {
	createCalls []api.CreateTaskInput
	updateCalls []api.TaskChanges
	deleteCalls []string
	err         error
}

func (f *fakeMutator) Users(ctx context.Context) ([]model.User, error) {
	return nil, f.err
}

func (f *fakeMutator) CreateTask(ctx context.Context, input api.CreateTaskInput) (*model.Task, error) {
	f.createCalls = append(f.createCalls, input)
	return &model.Task{ID: "new", Title: input.Title}, f.err
}

func (f *fakeMutator) UpdateTask(ctx context.Context, id string, changes api.TaskChanges) (*model.Task, error) {
	f.updateCalls = append(f.updateCalls, changes)
	return &model.Task{ID: id}, f.err
}

func (f *fakeMutator) DeleteTask(ctx context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.err
}

func newBoard(t *testing.T) Model {
	t.Helper()
	return New(&fakeMutator{}, testutil.NewTestStore(t), keys.DefaultKeyMap(), 120, 40)
}

func pollResult(projectID string, tasks ...model.Task) sync.ProjectResultMsg {
	return sync.ProjectResultMsg{
		ProjectID: projectID,
		Project: &model.Project{
			ID:    projectID,
			Name:  "Alpha",
			Tasks: tasks,
		},
	}
}

func TestBoardAppliesPollResult(t *testing.T) {
	m := newBoard(t)
	_ = (&m).Start("p1")

	m, _ = m.Update(pollResult("p1",
		model.Task{ID: "t1", Status: model.StatusTodo},
		model.Task{ID: "t2", Status: model.StatusDone},
		model.Task{ID: "t3", Status: model.Status("ARCHIVED")},
	))

	if m.loading {
		t.Error("board should not be loading after a poll result")
	}
	if len(m.columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(m.columns))
	}
	placed := 0
	for _, col := range m.columns {
		placed += len(col.Tasks)
	}
	if placed != 2 {
		t.Errorf("expected 2 placed tasks, got %d", placed)
	}
	if m.unclassified != 1 {
		t.Errorf("expected 1 unclassified task, got %d", m.unclassified)
	}
}

func TestBoardIgnoresResultForOtherProject(t *testing.T) {
	m := newBoard(t)
	_ = (&m).Start("p1")
	m, _ = m.Update(pollResult("p1", model.Task{ID: "t1", Status: model.StatusTodo}))

	// A stale result for a project the user already left must not
	// disturb the visible board.
	m, _ = m.Update(pollResult("p2",
		model.Task{ID: "x1", Status: model.StatusDone},
		model.Task{ID: "x2", Status: model.StatusDone},
	))

	if m.project == nil || m.project.ID != "p1" {
		t.Fatalf("board switched to the wrong project: %+v", m.project)
	}
	if len(m.project.Tasks) != 1 {
		t.Errorf("task list was replaced by a stale result")
	}
}

func TestBoardReportsMissingProject(t *testing.T) {
	m := newBoard(t)
	_ = (&m).Start("p1")

	m, _ = m.Update(sync.ProjectResultMsg{ProjectID: "p1"})

	if !m.notFound {
		t.Error("a nil project with nil error should mark the board as not found")
	}
}

func TestBoardAuthFailureEmitsAuthFailedMsg(t *testing.T) {
	m := newBoard(t)
	_ = (&m).Start("p1")

	_, cmd := m.Update(sync.ProjectResultMsg{
		ProjectID: "p1",
		Err:       &api.AuthError{Message: "Signature has expired"},
	})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(AuthFailedMsg); !ok {
		t.Error("expected an AuthFailedMsg for a rejected session")
	}
}

func TestBoardKeepsProjectOnTransientError(t *testing.T) {
	m := newBoard(t)
	_ = (&m).Start("p1")
	m, _ = m.Update(pollResult("p1", model.Task{ID: "t1", Status: model.StatusTodo}))

	m, _ = m.Update(sync.ProjectResultMsg{
		ProjectID: "p1",
		Err:       errors.New("connection refused"),
	})

	if m.project == nil {
		t.Fatal("transient fetch errors must not drop the rendered board")
	}
	if m.errMsg == "" {
		t.Error("the error should be surfaced")
	}
}

func TestMutationSuccessRequestsRefresh(t *testing.T) {
	m := newBoard(t)
	_ = (&m).Start("p1")
	m.mutating = true

	m, cmd := m.Update(mutationDoneMsg{})
	if m.mutating {
		t.Error("mutation flag should clear")
	}
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(RefreshRequestMsg); !ok {
		t.Error("a successful mutation should request an immediate refetch")
	}
}

func TestMutationFailureShowsMessage(t *testing.T) {
	m := newBoard(t)
	_ = (&m).Start("p1")
	m.mutating = true

	m, cmd := m.Update(mutationDoneMsg{err: &api.MutationError{Message: "Task not found"}})
	if m.errMsg != "Task not found" {
		t.Errorf("expected the server message, got %q", m.errMsg)
	}
	if cmd != nil {
		t.Error("a failed mutation should not trigger a refetch")
	}
}

func TestWhitespaceOnlyTitleNeverCreates(t *testing.T) {
	if err := validateTaskTitle("\t  "); err == nil {
		t.Error("a whitespace-only title should fail validation")
	}
	if err := validateTaskTitle("Fix login"); err != nil {
		t.Errorf("a real title should pass validation: %v", err)
	}

	mutator := &fakeMutator{}
	m := New(mutator, testutil.NewTestStore(t), keys.DefaultKeyMap(), 120, 40)
	_ = (&m).Start("p1")
	m, _ = m.Update(pollResult("p1"))

	m.fb.title = "   "
	m.form = m.buildCreateForm()
	m.mode = modeCreate
	m.form.State = huh.StateCompleted

	m, _ = m.updateForm(struct{}{})
	if len(mutator.createCalls) != 0 {
		t.Errorf("a blank title reached the client: %d calls", len(mutator.createCalls))
	}
	if m.mode != modeCreate {
		t.Error("the form should stay open")
	}
	if m.mutating {
		t.Error("no mutation should be in flight")
	}

	// A real title submits, trimmed.
	m.fb.title = "  Fix login  "
	m.form = m.buildCreateForm()
	m.form.State = huh.StateCompleted
	m, cmd := m.updateForm(struct{}{})
	if cmd == nil {
		t.Fatal("expected a create command")
	}
	_ = cmd()
	if len(mutator.createCalls) != 1 || mutator.createCalls[0].Title != "Fix login" {
		t.Fatalf("expected one trimmed create call, got %+v", mutator.createCalls)
	}
}

func TestCursorClampsWhenColumnShrinks(t *testing.T) {
	m := newBoard(t)
	_ = (&m).Start("p1")
	m, _ = m.Update(pollResult("p1",
		model.Task{ID: "t1", Status: model.StatusTodo},
		model.Task{ID: "t2", Status: model.StatusTodo},
		model.Task{ID: "t3", Status: model.StatusTodo},
	))
	m.colIdx = 1 // TODO column
	m.taskIdx = 2

	// A refetch shows that two tasks were moved away by another session.
	m, _ = m.Update(pollResult("p1", model.Task{ID: "t1", Status: model.StatusTodo}))

	if m.taskIdx != 0 {
		t.Errorf("cursor should clamp to the shrunken column, got %d", m.taskIdx)
	}
	if m.selectedTask() == nil {
		t.Error("a task should remain selectable")
	}
}
