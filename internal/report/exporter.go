package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed "templates"
var templateFS embed.FS

type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatExcel    Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists the accepted --format values.
func Formats() []string {
	return []string{"md", "html", "json", "csv", "xlsx"}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownFormat, s, strings.Join(Formats(), ", "))
}

func (f Format) Extension() string {
	return string(f)
}

// Binary formats are written to files only, never to a terminal.
func (f Format) Binary() bool {
	return f == FormatExcel
}

type Exporter struct {
	OutputDir string
}

func NewExporter(outputDir string) *Exporter {
	return &Exporter{OutputDir: outputDir}
}

// Render serializes r in the requested format. It never mutates r, so
// rendering the same report twice yields the same bytes.
func (e *Exporter) Render(r *Report, format Format) ([]byte, error) {
	if r == nil {
		return nil, errors.New("report has not been generated")
	}

	switch format {
	case FormatMarkdown:
		return e.Markdown(r)
	case FormatHTML:
		return e.HTML(r)
	case FormatJSON:
		return e.JSON(r)
	case FormatCSV:
		return e.CSV(r)
	case FormatExcel:
		return e.Excel(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func (e *Exporter) Markdown(r *Report) ([]byte, error) {
	tmpl, err := texttemplate.New("report.md.tmpl").ParseFS(templateFS, "templates/report.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// HTML converts the markdown rendering and wraps it in a standalone page.
func (e *Exporter) HTML(r *Report) ([]byte, error) {
	md, err := e.Markdown(r)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	converter := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := converter.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	funcMap := template.FuncMap{
		"title": cases.Title(language.English).String,
	}
	tmpl, err := template.New("report.html.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}

	data := map[string]any{
		"Date":        r.Date,
		"ProjectName": r.ProjectName,
		// goldmark escapes raw HTML found in task notes.
		"Body": template.HTML(body.String()),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) JSON(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// FilePath returns where a report for date should be written. A target with
// an extension is taken as the file itself; otherwise it names the directory.
func (e *Exporter) FilePath(date string, format Format, target string) string {
	if target != "" && filepath.Ext(target) != "" {
		return target
	}

	dir := target
	if dir == "" {
		dir = e.OutputDir
	}
	name := fmt.Sprintf("%s-report.%s", strings.ReplaceAll(date, " ", ""), format.Extension())
	return filepath.Join(dir, name)
}

// Write renders r and stores it at FilePath, creating parent directories.
func (e *Exporter) Write(r *Report, format Format, target string) (string, error) {
	data, err := e.Render(r, format)
	if err != nil {
		return "", err
	}

	path := e.FilePath(r.Date, format, target)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
