package kathana

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/MaxMonteil/kathana/internal/asana"
	"github.com/MaxMonteil/kathana/internal/config"
	"github.com/MaxMonteil/kathana/internal/email"
	"github.com/MaxMonteil/kathana/internal/report"
)

type Mailer interface {
	Send(ctx context.Context, subject, html string) (*email.Status, error)
}

// Options selects what a run does with the generated report.
type Options struct {
	StartDate   string
	Format      report.Format
	Print       bool
	Write       bool
	WriteTarget string
	Email       bool
}

type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Generator *report.Generator
	Exporter  *report.Exporter
	Mailer    Mailer
	Out       io.Writer

	mailerErr error
}

func New(cfg *config.Config, logger *slog.Logger, out io.Writer) *Application {
	client := asana.NewClient(cfg.Asana.Token,
		asana.WithBaseURL(cfg.Asana.BaseURL),
		asana.RequestsPerMinute(cfg.Asana.RequestsPerMinute),
	)
	source := asana.NewSource(client, cfg.Asana.Workspace, logger)

	app := &Application{
		Config:    cfg,
		Logger:    logger,
		Generator: report.NewGenerator(source),
		Exporter:  report.NewExporter(cfg.Output.Directory),
		Out:       out,
	}

	if err := cfg.ValidateEmail(); err != nil {
		app.mailerErr = err
	} else {
		app.Mailer = email.NewSender(cfg.Email, logger)
	}

	return app
}

func (app *Application) GenerateReport(ctx context.Context, date string) (*report.Report, error) {
	app.Logger.Info("gathering report data", "workspace", app.Generator.Source.ProjectName(), "since", date)

	r, err := app.Generator.Generate(ctx, date)
	if err != nil {
		app.Logger.Error("failed to generate report", "error", err)
		return nil, err
	}

	stats := app.Generator.Statistics(r)
	app.Logger.Info("report generated",
		"total", stats.Total,
		"completed", stats.Completed,
		"planned", stats.Planned,
		"without_due_date", stats.Omitted,
	)
	return r, nil
}

// Deliver prints, writes and emails r as requested. A failed email is
// logged and otherwise ignored.
func (app *Application) Deliver(ctx context.Context, r *report.Report, opts Options) error {
	if opts.Print {
		if opts.Format.Binary() {
			return fmt.Errorf("%s reports cannot be printed, use --write", opts.Format)
		}
		data, err := app.Exporter.Render(r, opts.Format)
		if err != nil {
			return err
		}
		if _, err := app.Out.Write(data); err != nil {
			return fmt.Errorf("failed to print report: %w", err)
		}
	}

	if opts.Write {
		path, err := app.Exporter.Write(r, opts.Format, opts.WriteTarget)
		if err != nil {
			app.Logger.Error("failed to write report", "error", err)
			return err
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		app.Logger.Info("report written", "format", opts.Format, "file", path)
	}

	if opts.Email {
		app.sendEmail(ctx, r)
	}

	return nil
}

func (app *Application) sendEmail(ctx context.Context, r *report.Report) {
	if app.Mailer == nil {
		err := app.mailerErr
		if err == nil {
			err = errors.New("no mailer configured")
		}
		app.Logger.Error("email delivery skipped", "error", err)
		return
	}

	body, err := app.Exporter.HTML(r)
	if err != nil {
		app.Logger.Error("failed to render email body", "error", err)
		return
	}

	subject := app.Config.Email.SubjectFor(r.ProjectName, r.Date)
	status, err := app.Mailer.Send(ctx, subject, string(body))
	if err != nil {
		app.Logger.Error("failed to send report", "error", err)
		return
	}
	if !status.Accepted() {
		app.Logger.Warn("email rejected", "status", status.StatusCode, "body", status.Body)
		return
	}
	app.Logger.Info("email sent", "status", status.StatusCode)
}
