package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/HansBhatia/genderscan/internal/archive"
	"github.com/HansBhatia/genderscan/internal/config"
	"github.com/HansBhatia/genderscan/internal/model"
	"github.com/HansBhatia/genderscan/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command queries the run archive built up by previous runs.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [username]",
		Short: "Query archived runs and per-username verdicts",
		Long: `History queries the local run archive.

Every finished run is mirrored into a SQLite database next to the JSON
checkpoint. This command answers two questions the checkpoint cannot
answer cheaply: what did a given run do, and what happened to a given
username across runs.

Without arguments it lists archived runs, newest first.

Examples:
  # List all archived runs
  genderscan history

  # Show every archived verdict for one username
  genderscan history john_smith

  # Re-print the report of one archived run
  genderscan history --run 2f0c9a4e-8f2d-4f4e-9c6b-1d9f0a3b5c7e

  # Archive-wide counts by status
  genderscan history --totals

  # JSON output for scripting
  genderscan history --totals --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Query selection flags
	cmd.Flags().StringP("run", "r", "",
		"Show the full report of one archived run by its ID")
	cmd.Flags().BoolP("totals", "T", false,
		"Show archive-wide counts by status")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output results in JSON format")

	// Location override, mainly for scripting and tests
	cmd.Flags().String("archive-dir", "",
		"Archive directory (default: the XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	totals, err := cmd.Flags().GetBool("totals")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Validate flag combinations before opening the database.
	// This prevents database lock issues when validation fails.
	if runID != "" && len(args) > 0 {
		return errors.New("--run cannot be combined with a username argument")
	}
	if totals && (runID != "" || len(args) > 0) {
		return errors.New("--totals cannot be combined with --run or a username argument")
	}

	dir, err := cmd.Flags().GetString("archive-dir")
	if err != nil {
		return err
	}
	if dir == "" {
		dir = config.XDGDataDir()
	}

	// Open read-only: the history command never creates an empty archive
	// just to report nothing.
	adb, err := archive.Open(dir, archive.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer adb.Close()

	ctx := context.Background()

	if totals {
		return showTotals(ctx, adb, jsonOutput)
	}
	if runID != "" {
		return showRun(ctx, adb, runID, jsonOutput)
	}
	if len(args) > 0 {
		return showUsernameHistory(ctx, adb, args[0], jsonOutput)
	}
	return listArchivedRuns(ctx, adb, jsonOutput)
}

// runEntry is one archived run in JSON list output.
type runEntry struct {
	// RunID is the run's unique identifier.
	RunID string `json:"run_id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`

	// Attempted is how many usernames the run examined.
	Attempted int `json:"attempted"`

	// MaleFound is how many usernames the run accepted.
	MaleFound int `json:"male_found"`

	// Errors is how many retryable records the run produced.
	Errors int `json:"errors"`

	// ElapsedSeconds is the run's wall-clock duration.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// Drained is true when the run was stopped early at a batch boundary.
	Drained bool `json:"drained"`
}

// listArchivedRuns lists all archived runs, newest first.
func listArchivedRuns(ctx context.Context, adb *archive.DB, jsonOutput bool) error {
	runs, err := adb.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOutput {
		entries := make([]runEntry, 0, len(runs))
		for _, run := range runs {
			entries = append(entries, runEntry{
				RunID:          run.RunID,
				StartedAt:      run.StartedAt,
				FinishedAt:     run.FinishedAt,
				Attempted:      run.Attempted,
				MaleFound:      run.MaleFound,
				Errors:         run.Errors,
				ElapsedSeconds: run.ElapsedSeconds,
				Drained:        run.Drained,
			})
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	if len(runs) == 0 {
		fmt.Println("No archived runs found.")
		fmt.Println("\nUse 'genderscan run --input <file>' to process a username list.")
		return nil
	}

	fmt.Printf("Archived runs (%d):\n\n", len(runs))
	fmt.Printf("  %-36s  %-20s  %-9s  %-6s  %-6s  %s\n", "Run ID", "Started", "Names", "Male", "Errors", "")
	fmt.Println("  " + strings.Repeat("-", 86))

	for _, run := range runs {
		note := ""
		if run.Drained {
			note = "drained"
		}
		fmt.Printf("  %-36s  %-20s  %-9d  %-6d  %-6d  %s\n",
			run.RunID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Attempted,
			run.MaleFound,
			run.Errors,
			note,
		)
	}

	fmt.Println("\nUse 'genderscan history --run <id>' to re-print a run's report.")
	fmt.Println("Use 'genderscan history <username>' to see one username's verdicts.")

	return nil
}

// showRun re-prints the report of one archived run.
func showRun(ctx context.Context, adb *archive.DB, runID string, jsonOutput bool) error {
	summary, err := adb.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if summary == nil {
		return fmt.Errorf("run %s not found (use 'genderscan history' to list runs)", runID)
	}

	if jsonOutput {
		writer := report.NewFullJSONWriter(os.Stdout, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(summary)
		return err
	}

	writer := report.NewSimpleWriter(os.Stdout)
	_, err = writer.Write(summary)
	return err
}

// historyEntry is one archived verdict in JSON username-history output.
type historyEntry struct {
	// RunID is the run that produced this verdict.
	RunID string `json:"run_id"`

	// Username is the examined username.
	Username string `json:"username"`

	// Status is the outcome.
	Status model.Status `json:"status"`

	// Detail is the status detail, possibly empty.
	Detail string `json:"detail,omitempty"`

	// CreatedAt is when the verdict was produced.
	CreatedAt time.Time `json:"created_at"`
}

// showUsernameHistory lists every archived verdict for one username,
// oldest first.
func showUsernameHistory(ctx context.Context, adb *archive.DB, username string, jsonOutput bool) error {
	records, err := adb.UsernameHistory(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to get username history: %w", err)
	}

	if jsonOutput {
		entries := make([]historyEntry, 0, len(records))
		for _, record := range records {
			entries = append(entries, historyEntry{
				RunID:     record.RunID,
				Username:  record.Username,
				Status:    record.Status,
				Detail:    record.Detail,
				CreatedAt: record.CreatedAt,
			})
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	if len(records) == 0 {
		fmt.Printf("No history found for %s\n", username)
		fmt.Println("\nUse 'genderscan run' to process this username.")
		return nil
	}

	fmt.Printf("History for %s (%d records):\n\n", username, len(records))
	fmt.Printf("  %-20s  %-22s  %-36s  %s\n", "Date", "Status", "Run ID", "Detail")
	fmt.Println("  " + strings.Repeat("-", 90))

	for _, record := range records {
		fmt.Printf("  %-20s  %-22s  %-36s  %s\n",
			record.CreatedAt.Format("2006-01-02 15:04:05"),
			record.Status,
			record.RunID,
			record.Detail,
		)
	}

	return nil
}

// totalsOutput is the JSON shape of archive-wide counts.
type totalsOutput struct {
	// Runs is the number of archived runs.
	Runs int `json:"runs"`

	// Records is the number of archived verdicts.
	Records int `json:"records"`

	// Males is the number of accepted verdicts.
	Males int `json:"males"`

	// ByStatus is the per-status verdict count.
	ByStatus map[model.Status]int `json:"by_status"`
}

// showTotals prints archive-wide counts by status.
func showTotals(ctx context.Context, adb *archive.DB, jsonOutput bool) error {
	totals, err := adb.GetTotals(ctx)
	if err != nil {
		return fmt.Errorf("failed to get totals: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(totalsOutput{
			Runs:     totals.Runs,
			Records:  totals.Records,
			Males:    totals.Males,
			ByStatus: totals.ByStatus,
		})
	}

	fmt.Println("Archive totals:")
	fmt.Printf("\n  %-24s  %d\n", "Runs", totals.Runs)
	fmt.Printf("  %-24s  %d\n", "Records", totals.Records)
	fmt.Printf("  %-24s  %d\n", "Accepted male", totals.Males)

	fmt.Println("\nBy status:")
	fmt.Println("  " + strings.Repeat("-", 34))
	for _, status := range model.AllStatuses() {
		fmt.Printf("  %-24s  %d\n", status, totals.ByStatus[status])
	}

	return nil
}
