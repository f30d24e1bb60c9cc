package report

import (
	"context"
	"encoding/json"
)

// NoDueDate stands in for a task that has no due date.
const NoDueDate = "-1"

type Task struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DueOn       string `json:"due_on"`
	Completed   bool   `json:"completed"`
}

// HasDueDate reports whether the task carries a real due date.
func (t Task) HasDueDate() bool {
	return t.DueOn != "" && t.DueOn != NoDueDate
}

// MarshalJSON writes a missing due date as null instead of the sentinel.
func (t Task) MarshalJSON() ([]byte, error) {
	var dueOn *string
	if t.HasDueDate() {
		dueOn = &t.DueOn
	}
	return json.Marshal(struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		DueOn       *string `json:"due_on"`
		Completed   bool    `json:"completed"`
	}{t.Name, t.Description, dueOn, t.Completed})
}

// Report is built once per run by Classify and only read afterwards.
type Report struct {
	Date        string `json:"date"`
	ProjectName string `json:"project"`
	Completed   []Task `json:"completed"`
	Planned     []Task `json:"planned"`
}

type TaskSource interface {
	Name() string
	ProjectName() string
	FetchTasks(ctx context.Context, since string) ([]Task, error)
}
