package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MaxMonteil/kathana/internal/config"
	"github.com/MaxMonteil/kathana/internal/kathana"
	"github.com/MaxMonteil/kathana/internal/logging"
	"github.com/MaxMonteil/kathana/internal/report"
)

type options struct {
	format     string
	write      string
	startDate  string
	workspace  string
	configPath string
	to         string
	cc         string
	subject    string
	print      bool
	email      bool
	quiet      bool
	debug      bool
	timestamps bool
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "kathana",
		Short: "Generate a progress report from an Asana workspace",
		Long: `Kathana collects the tasks completed since a start date and the tasks
still planned across every active project of an Asana workspace, and renders
them as a weekly progress report. The report can be printed, written to a
file or emailed through SendGrid.

Credentials come from the environment: ASANA_TOKEN, and SENDGRID_KEY plus
OWNER_EMAIL for --email.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateReport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "md", "Report format: "+strings.Join(report.Formats(), ", "))
	cmd.Flags().StringVarP(&opts.write, "write", "w", "", "Write report to a FILE or DIR (filename defaults to <start_date>-report.<format>, an empty value uses the output dir)")
	cmd.Flags().BoolVarP(&opts.print, "print", "p", false, "Print report to stdout")
	cmd.Flags().BoolVarP(&opts.email, "email", "e", false, "Send report to the configured recipients")
	cmd.Flags().StringVarP(&opts.startDate, "start-date", "s", "", "Date from which to start the report, defaults to last Monday (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress messages")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Log every API step")
	cmd.Flags().BoolVar(&opts.timestamps, "timestamps", false, "Prefix log lines with the time")

	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "Asana workspace name (or ASANA_WORKSPACE)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Comma-separated email recipients (or KATHANA_TO)")
	cmd.Flags().StringVar(&opts.cc, "cc", "", "Comma-separated CC addresses (or KATHANA_CC)")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "Email subject, {workspace} and {date} are expanded")

	return cmd
}

func generateReport(cmd *cobra.Command, opts *options) error {
	startDate, err := config.ResolveStartDate(opts.startDate, time.Now())
	if errors.Is(err, config.ErrInvalidDate) {
		fmt.Fprintf(cmd.OutOrStdout(), "Invalid date format: %s\nExpected: YYYY-MM-DD\n", opts.startDate)
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, opts)

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, runID := logging.WithRun(logging.New(cmd.ErrOrStderr(), logging.Options{
		Quiet:           cfg.Quiet,
		Debug:           opts.debug,
		ReportTimestamp: opts.timestamps,
	}))
	slog.SetDefault(logger)
	logger.Debug("starting run", "run", runID, "start_date", startDate, "format", format)

	if opts.email {
		if err := cfg.ValidateEmail(); err != nil {
			logger.Warn("email delivery disabled", "error", err)
		}
	}

	app := kathana.New(cfg, logger, cmd.OutOrStdout())

	runOpts := kathana.Options{
		StartDate:   startDate,
		Format:      format,
		Print:       opts.print,
		Write:       cmd.Flags().Changed("write"),
		WriteTarget: opts.write,
		Email:       opts.email,
	}
	if !runOpts.Print && !runOpts.Write && !runOpts.Email {
		runOpts.Print = true
	}

	bar := newSpinner("Fetching tasks", cmd.ErrOrStderr(), !cfg.Quiet)
	r, err := app.GenerateReport(cmd.Context(), startDate)
	finishBar(bar)
	if err != nil {
		return err
	}

	return app.Deliver(cmd.Context(), r, runOpts)
}

// applyFlags layers explicitly set flags over file and environment values.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *options) {
	flags := cmd.Flags()
	if flags.Changed("workspace") {
		cfg.Asana.Workspace = opts.workspace
	}
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if flags.Changed("to") {
		cfg.Email.To = config.SplitList(opts.to)
	}
	if flags.Changed("cc") {
		cfg.Email.CC = config.SplitList(opts.cc)
	}
	if flags.Changed("subject") {
		cfg.Email.Subject = opts.subject
	}
	if opts.quiet {
		cfg.Quiet = true
	}
}
