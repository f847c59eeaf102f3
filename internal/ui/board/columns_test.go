package board

import (
	"testing"

	"github.com/nhle/mini-jira/internal/model"
)

func TestGroupTasksFourFixedColumns(t *testing.T) {
	columns, unclassified := GroupTasks(nil)
	if len(columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(columns))
	}
	want := []model.Status{
		model.StatusBacklog, model.StatusTodo, model.StatusDoing, model.StatusDone,
	}
	for i, col := range columns {
		if col.Status != want[i] {
			t.Errorf("column %d: expected %s, got %s", i, want[i], col.Status)
		}
		if len(col.Tasks) != 0 {
			t.Errorf("column %s should be empty, got %d tasks", col.Status, len(col.Tasks))
		}
	}
	if len(unclassified) != 0 {
		t.Errorf("expected no unclassified tasks, got %d", len(unclassified))
	}
}

func TestGroupTasksByExactStatus(t *testing.T) {
	tasks := []model.Task{
		{ID: "t1", Status: model.StatusTodo},
		{ID: "t2", Status: model.StatusDone},
		{ID: "t3", Status: model.StatusTodo},
		{ID: "t4", Status: model.StatusBacklog},
	}

	columns, unclassified := GroupTasks(tasks)
	if len(unclassified) != 0 {
		t.Fatalf("expected no unclassified tasks, got %d", len(unclassified))
	}

	counts := map[model.Status]int{}
	total := 0
	for _, col := range columns {
		counts[col.Status] = len(col.Tasks)
		total += len(col.Tasks)
	}
	if total != len(tasks) {
		t.Errorf("every task must land in exactly one column: %d != %d", total, len(tasks))
	}
	if counts[model.StatusTodo] != 2 || counts[model.StatusDone] != 1 || counts[model.StatusBacklog] != 1 {
		t.Errorf("unexpected distribution: %v", counts)
	}
}

func TestGroupTasksPreservesServerOrderWithinColumn(t *testing.T) {
	tasks := []model.Task{
		{ID: "t9", Status: model.StatusTodo},
		{ID: "t1", Status: model.StatusDoing},
		{ID: "t5", Status: model.StatusTodo},
		{ID: "t2", Status: model.StatusTodo},
	}

	columns, _ := GroupTasks(tasks)
	var todo []model.Task
	for _, col := range columns {
		if col.Status == model.StatusTodo {
			todo = col.Tasks
		}
	}

	want := []string{"t9", "t5", "t2"}
	if len(todo) != len(want) {
		t.Fatalf("expected %d TODO tasks, got %d", len(want), len(todo))
	}
	for i, id := range want {
		if todo[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, todo[i].ID)
		}
	}
}

func TestGroupTasksUnknownStatusIsUnclassified(t *testing.T) {
	tasks := []model.Task{
		{ID: "t1", Status: model.StatusTodo},
		{ID: "t2", Status: model.Status("ARCHIVED")},
		{ID: "t3", Status: model.Status("")},
	}

	columns, unclassified := GroupTasks(tasks)

	total := 0
	for _, col := range columns {
		total += len(col.Tasks)
	}
	if total != 1 {
		t.Errorf("only the known-status task should be placed, got %d", total)
	}
	if len(unclassified) != 2 {
		t.Fatalf("expected 2 unclassified tasks, got %d", len(unclassified))
	}
	if unclassified[0].ID != "t2" || unclassified[1].ID != "t3" {
		t.Errorf("unexpected unclassified set: %+v", unclassified)
	}
}
