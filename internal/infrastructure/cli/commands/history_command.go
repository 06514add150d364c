package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/vitals/internal/app"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/infrastructure/cli/helpers"
	"github.com/doeshing/vitals/internal/infrastructure/history"
)

// MaxHistoryAnalysisRecords bounds how many runs `history stats` loads.
const MaxHistoryAnalysisRecords = 100

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded check runs",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryShowCommand(container),
		newHistoryClearCommand(container),
		newHistoryPruneCommand(container),
		newHistoryExportCommand(container),
		newHistoryStatsCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New(ErrInvalidLimit)
			}
			return listHistoryEntries(cmd.Context(), cmd.OutOrStdout(), container, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max runs to show")
	return cmd
}

// newHistoryShowCommand creates the 'history show' subcommand
func newHistoryShowCommand(container *app.Container) *cobra.Command {
	var output outputFlags

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Render the full report of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryRun(cmd.Context(), cmd.OutOrStdout(), container, args[0], &output)
		},
	}

	output.register(cmd)
	return cmd
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clearHistory(cmd.Context(), container); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}
}

// newHistoryPruneCommand creates the 'history prune' subcommand
func newHistoryPruneCommand(container *app.Container) *cobra.Command {
	var retainDays int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			days := retainDays
			if !cmd.Flags().Changed("days") {
				days = configuredRetention(container.Config)
			}
			if days <= 0 {
				return errors.New(ErrInvalidRetainDays)
			}
			return pruneHistory(cmd.Context(), cmd.OutOrStdout(), container, days, time.Now())
		},
	}

	cmd.Flags().IntVar(&retainDays, "days", 0, "Days to retain (default history.retention_days)")
	return cmd
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export recorded reports to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := exportHistory(cmd.Context(), container, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History exported to %s\n", args[0])
			return nil
		},
	}
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pass rates and the most failing checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryStats(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// listHistoryEntries lists recent runs, newest first
func listHistoryEntries(ctx context.Context, out io.Writer, container *app.Container, limit int) error {
	store := container.HistoryStore
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	records, err := store.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(out, "%s | %s | %s | %-7s | %d passed, %d warnings, %d failed, %d errors | %s\n",
			rec.RunID,
			rec.Timestamp.Format(TimestampFormat),
			rec.Mode,
			rec.OverallStatus,
			rec.Passed,
			rec.Warnings,
			rec.Failed,
			rec.Errors,
			humanize.Time(rec.Timestamp))
	}

	return nil
}

// showHistoryRun renders a stored report the same way a live run is rendered
func showHistoryRun(ctx context.Context, out io.Writer, container *app.Container, runID string, output *outputFlags) error {
	store := container.HistoryStore
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	rep, err := store.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	return output.write(out, container.Config, rep)
}

// clearHistory deletes every recorded run
func clearHistory(ctx context.Context, container *app.Container) error {
	if container.HistoryStore == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	if err := container.HistoryStore.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return nil
}

// pruneHistory removes runs older than the retention window
func pruneHistory(ctx context.Context, out io.Writer, container *app.Container, days int, now time.Time) error {
	store := container.HistoryStore
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	cutoff := now.AddDate(0, 0, -days)
	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune old history: %w", err)
	}

	fmt.Fprintf(out, "Removed %d run(s) older than %d days.\n", removed, days)
	return nil
}

// exportHistory exports history to a JSONL file
func exportHistory(ctx context.Context, container *app.Container, path string) error {
	if container.HistoryStore == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	exporter, ok := container.HistoryStore.(history.Exporter)
	if !ok {
		return history.ErrExportUnsupported
	}

	if err := exporter.ExportJSON(ctx, path); err != nil {
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}

	return nil
}

// showHistoryStats displays pass rates and the most failing checks
func showHistoryStats(ctx context.Context, out io.Writer, container *app.Container) error {
	store := container.HistoryStore
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	records, err := store.List(ctx, MaxHistoryAnalysisRecords)
	if err != nil {
		return fmt.Errorf("failed to retrieve history for analysis: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	reports := make([]domain.HealthReport, 0, len(records))
	for _, rec := range records {
		rep, err := store.Load(ctx, rec.RunID)
		if err != nil {
			return fmt.Errorf("failed to load run %s: %w", rec.RunID, err)
		}
		reports = append(reports, rep)
	}

	displayHistoryStatistics(out, helpers.AnalyzeReports(reports))
	return nil
}

// displayHistoryStatistics displays formatted history statistics
func displayHistoryStatistics(out io.Writer, stats helpers.HistoryStatistics) {
	fmt.Fprintf(out, "Runs analyzed: %d\nHealthy runs: %.1f%%\nCheck pass rate: %.1f%%\nFixes applied: %d\n",
		stats.Runs,
		helpers.CalculateSuccessRate(stats.HealthyRuns, stats.Runs),
		helpers.CalculateSuccessRate(stats.Passed, stats.Checks),
		stats.AutoFixed)

	fmt.Fprintln(out, "Overall status:")
	for _, status := range domain.Statuses() {
		if count := stats.ByOverall[status]; count > 0 {
			fmt.Fprintf(out, "  %s: %d\n", status, count)
		}
	}

	if len(stats.Failing) == 0 {
		return
	}
	fmt.Fprintln(out, "Most failing checks:")
	for _, stat := range helpers.CalculateTopCounts(stats.Failing, topFailingChecks) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Key, stat.Count)
	}
}

func configuredRetention(cfg domain.Config) int {
	if cfg.History.RetentionDays > 0 {
		return cfg.History.RetentionDays
	}
	return domain.DefaultHistoryRetainDays
}
