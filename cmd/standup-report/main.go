package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/fang"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/petr-muller/standup/internal/activity"
	"github.com/petr-muller/standup/internal/calendar"
	"github.com/petr-muller/standup/internal/flagutil"
	"github.com/petr-muller/standup/internal/report"
	"github.com/petr-muller/standup/internal/sequence"
	"github.com/petr-muller/standup/internal/service"
	"github.com/petr-muller/standup/internal/settings"
	"github.com/petr-muller/standup/internal/ui"
)

var (
	githubOptions flagutil.GitHubOptions
	outputPath    string
	timezone      string
	delay         time.Duration
	interactive   bool

	date      string
	startDate string
	endDate   string
	notesPath string
)

func main() {
	defaults, err := settings.Load()
	if err != nil {
		logrus.WithError(err).Fatal("cannot load settings")
	}
	if err := defaults.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid settings")
	}
	defaultDelay, _ := defaults.DelayDuration()

	rootCmd := &cobra.Command{
		Use:   "standup-report",
		Short: "Summarize your GitHub activity per calendar day",
		Long: `Standup Report collects your GitHub activity (created issues and PRs,
submitted reviews, comments, commits) over a date range, buckets it per
calendar day in your timezone, and writes an HTML summary.

It provides three modes of operation:

1. Day: report a single calendar day
2. Range: report an inclusive range of calendar days
3. Backfill: parse a legacy notes dump and fetch only the weekdays it misses`,
	}

	// Add global flags
	githubOptions.AddPFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", defaults.Output, "Path of the HTML report to write")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", defaults.Timezone, "IANA timezone name used for day boundaries")
	rootCmd.PersistentFlags().DurationVar(&delay, "delay", defaultDelay, "Delay between consecutive GitHub search queries")
	rootCmd.PersistentFlags().BoolVarP(&interactive, "interactive", "i", false, "Browse the report in a TUI after writing it")

	// Add subcommands
	rootCmd.AddCommand(
		newDayCmd(),
		newRangeCmd(),
		newBackfillCmd(),
	)

	// Use fang to execute the command
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}

func newDayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day <date>",
		Short: "Report activity for a single calendar day",
		Long:  `Report activity for a single calendar day, given as YYYY-MM-DD.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date = args[0]
			return runDay(cmd.Context())
		},
	}

	return cmd
}

func newRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range <start-date> <end-date>",
		Short: "Report activity for an inclusive range of calendar days",
		Long:  `Report activity for each calendar day from start to end, both given as YYYY-MM-DD and included.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate = args[0]
			endDate = args[1]
			return runRange(cmd.Context())
		},
	}

	return cmd
}

func newBackfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill <notes-file>",
		Short: "Merge a legacy notes dump with activity fetched for the days it misses",
		Long: `Parse a legacy notes dump, find the weekdays of its months that have no
note, fetch activity only for those gaps, and merge both sources into one report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notesPath = args[0]
			return runBackfill(cmd.Context())
		},
	}

	return cmd
}

func validateOptions() error {
	if outputPath == "" {
		return fmt.Errorf("--output must not be empty")
	}
	if !calendar.ValidTimezone(timezone) {
		return fmt.Errorf("invalid timezone %q", timezone)
	}
	if delay < 0 {
		return fmt.Errorf("--delay must not be negative")
	}
	return githubOptions.Validate()
}

func createService() (*service.Service, error) {
	if err := validateOptions(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	throttle := sequence.NewThrottle(delay)
	logger := logrus.NewEntry(logrus.StandardLogger())

	client, err := githubOptions.Client(throttle, logger)
	if err != nil {
		return nil, fmt.Errorf("cannot create GitHub client: %w", err)
	}

	aggregator := activity.New(client, throttle, logger)
	return service.New(aggregator, timezone, logger), nil
}

func runDay(ctx context.Context) error {
	svc, err := createService()
	if err != nil {
		return err
	}

	entries, err := svc.Day(ctx, date)
	if err != nil {
		return fmt.Errorf("cannot build report: %w", err)
	}

	return emit(fmt.Sprintf("Standup %s", date), entries)
}

func runRange(ctx context.Context) error {
	svc, err := createService()
	if err != nil {
		return err
	}

	entries, err := svc.Range(ctx, startDate, endDate)
	if err != nil {
		return fmt.Errorf("cannot build report: %w", err)
	}

	return emit(fmt.Sprintf("Standup %s to %s", startDate, endDate), entries)
}

func runBackfill(ctx context.Context) error {
	svc, err := createService()
	if err != nil {
		return err
	}

	entries, err := svc.Backfill(ctx, notesPath)
	if err != nil {
		return fmt.Errorf("cannot build report: %w", err)
	}

	return emit(fmt.Sprintf("Standup backfill from %s", notesPath), entries)
}

func emit(title string, entries []report.Entry) error {
	if err := report.WriteHTML(outputPath, title, entries); err != nil {
		return err
	}
	logrus.Infof("Wrote a report covering %d days to %s", len(entries), outputPath)

	if interactive {
		model := ui.NewModel(title, entries)
		program := tea.NewProgram(model, tea.WithAltScreen())

		if _, err := program.Run(); err != nil {
			return fmt.Errorf("cannot run TUI: %w", err)
		}
	}

	return nil
}
