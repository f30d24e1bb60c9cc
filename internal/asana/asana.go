// Package asana reads workspaces, projects and tasks from the Asana REST API.
package asana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MaxMonteil/kathana/internal/report"
)

var ErrWorkspaceNotFound = errors.New("workspace not found")

// Source walks every active project of one workspace.
type Source struct {
	Client    *Client
	Workspace string

	logger      *slog.Logger
	workspaceID string
}

func NewSource(client *Client, workspace string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		Client:    client,
		Workspace: workspace,
		logger:    logger,
	}
}

var _ report.TaskSource = (*Source)(nil)

func (s *Source) Name() string {
	return "Asana"
}

func (s *Source) ProjectName() string {
	return s.Workspace
}

// WorkspaceID resolves the workspace name once; the first exact match wins.
func (s *Source) WorkspaceID(ctx context.Context) (string, error) {
	if s.workspaceID != "" {
		return s.workspaceID, nil
	}

	s.logger.Info("gathering workspace information", "workspace", s.Workspace)
	workspaces, err := s.Client.Workspaces(ctx)
	if err != nil {
		return "", fmt.Errorf("list workspaces: %w", err)
	}

	for _, w := range workspaces {
		if w.Name == s.Workspace {
			s.workspaceID = w.GID
			return w.GID, nil
		}
	}
	return "", fmt.Errorf("%w: there is no %q workspace", ErrWorkspaceNotFound, s.Workspace)
}

// FetchTasks expands every task of every non-archived project that was
// completed since the given date or is still open.
func (s *Source) FetchTasks(ctx context.Context, since string) ([]report.Task, error) {
	workspaceID, err := s.WorkspaceID(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("gathering projects", "workspace", s.Workspace)
	projects, err := s.Client.Projects(ctx, workspaceID, false)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	tasks := []report.Task{}
	for _, project := range projects {
		s.logger.Info("fetching tasks", "project", project.Name, "since", since)

		compact, err := s.Client.Tasks(ctx, project.GID, since)
		if err != nil {
			return nil, fmt.Errorf("list tasks in %q: %w", project.Name, err)
		}

		for _, ref := range compact {
			s.logger.Debug("fetching task", "gid", ref.GID, "name", ref.Name)
			detail, err := s.Client.Task(ctx, ref.GID)
			if err != nil {
				return nil, fmt.Errorf("fetch task %s: %w", ref.GID, err)
			}
			tasks = append(tasks, toReportTask(detail))
		}
	}

	s.logger.Debug("tasks fetched", "count", len(tasks), "projects", len(projects))
	return tasks, nil
}

func toReportTask(t *Task) report.Task {
	dueOn := report.NoDueDate
	if t.DueOn != nil && *t.DueOn != "" {
		dueOn = *t.DueOn
	}
	return report.Task{
		Name:        t.Name,
		Description: t.Notes,
		DueOn:       dueOn,
		Completed:   t.Completed,
	}
}
