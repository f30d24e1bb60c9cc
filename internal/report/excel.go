package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet   = "Summary"
	completedSheet = "Completed"
	plannedSheet   = "Planned"
)

// Excel builds a workbook with a summary sheet and one sheet per section.
func (e *Exporter) Excel(r *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := e.createSummarySheet(f, r, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to create summary: %w", err)
	}
	if err := e.createTaskSheet(f, completedSheet, r.Completed, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to create sheet for %s: %w", completedSheet, err)
	}
	if err := e.createTaskSheet(f, plannedSheet, r.Planned, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to create sheet for %s: %w", plannedSheet, err)
	}

	if index, err := f.GetSheetIndex(summarySheet); err == nil {
		f.SetActiveSheet(index)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to save excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) createSummarySheet(f *excelize.File, r *Report, headerStyle int) error {
	stats := summarize(r)

	rows := [][]any{
		{"Project", r.ProjectName},
		{"Week of", r.Date},
		{"Completed", stats.Completed},
		{"Planned", stats.Planned},
		{"Without due date", stats.Omitted},
		{"Total", stats.Total},
	}

	for i, row := range rows {
		for col, value := range row {
			if err := f.SetCellValue(summarySheet, cellName(col+1, i+1), value); err != nil {
				return err
			}
		}
	}

	if err := f.SetCellStyle(summarySheet, "A1", cellName(1, len(rows)), headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 20); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 40)
}

func (e *Exporter) createTaskSheet(f *excelize.File, sheetName string, tasks []Task, headerStyle int) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	for col, header := range taskListHeader {
		cell := cellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, task := range tasks {
		row := i + 2
		values := append([]any{i + 1}, stringsToAny(taskRow(task))...)
		for col, value := range values {
			if err := f.SetCellValue(sheetName, cellName(col+1, row), value); err != nil {
				return err
			}
		}
	}

	widths := []struct {
		start, end string
		width      float64
	}{
		{"A", "A", 5},
		{"B", "B", 40},
		{"C", "D", 15},
		{"E", "E", 60},
	}
	for _, w := range widths {
		if err := f.SetColWidth(sheetName, w.start, w.end, w.width); err != nil {
			return err
		}
	}

	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}

func columnLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
