package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

type Generator struct {
	Source TaskSource
}

func NewGenerator(source TaskSource) *Generator {
	return &Generator{Source: source}
}

// Generate fetches every task touched since date and classifies it
func (g *Generator) Generate(ctx context.Context, date string) (*Report, error) {
	if g.Source == nil {
		return nil, errors.New("no task source configured")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tasks, err := g.Source.FetchTasks(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks from %s: %w", g.Source.Name(), err)
	}

	return Classify(date, g.Source.ProjectName(), tasks), nil
}

// Classify partitions tasks by their completion flag, keeping fetch order for
// completed tasks and ordering planned tasks by due date.
func Classify(date, projectName string, tasks []Task) *Report {
	r := &Report{
		Date:        date,
		ProjectName: projectName,
		Completed:   []Task{},
		Planned:     []Task{},
	}

	for _, task := range tasks {
		if task.DueOn == "" {
			task.DueOn = NoDueDate
		}
		if task.Completed {
			r.Completed = append(r.Completed, task)
		} else {
			r.Planned = append(r.Planned, task)
		}
	}

	// ISO dates order lexically; tasks without one go last.
	sort.SliceStable(r.Planned, func(i, j int) bool {
		a, b := r.Planned[i], r.Planned[j]
		if a.HasDueDate() != b.HasDueDate() {
			return a.HasDueDate()
		}
		return a.DueOn < b.DueOn
	})

	return r
}

type Stats struct {
	Total     int
	Completed int
	Planned   int
	Omitted   int
}

// Statistics counts what the rendered report will show.
func (g *Generator) Statistics(r *Report) Stats {
	return summarize(r)
}

func summarize(r *Report) Stats {
	stats := Stats{
		Completed: len(r.Completed),
	}
	for _, task := range r.Planned {
		if task.HasDueDate() {
			stats.Planned++
		} else {
			stats.Omitted++
		}
	}
	stats.Total = stats.Completed + stats.Planned + stats.Omitted
	return stats
}
