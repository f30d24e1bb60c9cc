package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

var taskListHeader = []string{
	"#",
	"Task Name",
	"Status",
	"Due Date",
	"Description",
}

// CSV writes one row per task, completed first, then planned.
func (e *Exporter) CSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(taskListHeader); err != nil {
		return nil, err
	}

	for i, row := range taskRows(r) {
		record := append([]string{fmt.Sprintf("%d", i+1)}, row...)
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// taskRows flattens the report without the leading row number.
func taskRows(r *Report) [][]string {
	rows := make([][]string, 0, len(r.Completed)+len(r.Planned))
	for _, task := range r.Completed {
		rows = append(rows, taskRow(task))
	}
	for _, task := range r.Planned {
		rows = append(rows, taskRow(task))
	}
	return rows
}

func taskRow(task Task) []string {
	return []string{
		task.Name,
		taskStatus(task),
		formatDueDate(task),
		normalizeDescription(task.Description),
	}
}

func taskStatus(task Task) string {
	if task.Completed {
		return "completed"
	}
	return "planned"
}

func formatDueDate(task Task) string {
	if !task.HasDueDate() {
		return ""
	}
	return task.DueOn
}

func normalizeDescription(description string) string {
	description = strings.ReplaceAll(description, "\r\n", "\n")
	return strings.TrimSpace(description)
}
