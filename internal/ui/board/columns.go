package board

import "github.com/nhle/mini-jira/internal/model"

// Column is one kanban bucket: a fixed status and the tasks bearing it,
// in server-returned order.
type Column struct {
	Status model.Status
	Tasks  []model.Task
}

// GroupTasks partitions tasks into the four fixed columns by exact
// status match. Column order is fixed; no client-side sort is applied
// within a column. Tasks with an unrecognized status appear in no
// column and are returned separately so the view can surface the count
// instead of dropping them silently.
func GroupTasks(tasks []model.Task) ([]Column, []model.Task) {
	statuses := model.Statuses()

	columns := make([]Column, len(statuses))
	index := make(map[model.Status]int, len(statuses))
	for i, s := range statuses {
		columns[i] = Column{Status: s}
		index[s] = i
	}

	var unclassified []model.Task
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			columns[i].Tasks = append(columns[i].Tasks, t)
		} else {
			unclassified = append(unclassified, t)
		}
	}

	return columns, unclassified
}
