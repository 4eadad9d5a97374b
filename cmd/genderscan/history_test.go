package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/HansBhatia/genderscan/internal/archive"
	"github.com/HansBhatia/genderscan/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [username]" {
			t.Errorf("expected use 'history [username]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has run flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("run")
		if flag == nil {
			t.Fatal("expected run flag")
		}
		if flag.Shorthand != "r" {
			t.Errorf("expected shorthand 'r', got %q", flag.Shorthand)
		}
	})

	t.Run("has totals flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("totals")
		if flag == nil {
			t.Fatal("expected totals flag")
		}
		if flag.Shorthand != "T" {
			t.Errorf("expected shorthand 'T', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has archive-dir flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("archive-dir") == nil {
			t.Fatal("expected archive-dir flag")
		}
	})
}

// seedArchive creates an archive with one finished run and returns its
// directory and summary.
func seedArchive(t *testing.T) (string, *model.RunSummary) {
	t.Helper()

	dir := t.TempDir()
	adb, err := archive.Open(dir, archive.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer adb.Close()

	summary := model.NewRunSummary()
	summary.InputTotal = 3
	summary.Attempted = 3
	summary.Processed = 2
	summary.Batches = 1
	summary.Add(model.StatusAcceptedMale, 1)
	summary.Add(model.StatusRejectedNotMale, 1)
	summary.Add(model.StatusRejectedGibberish, 1)
	summary.Finish()

	records := []model.RunRecord{
		model.NewRunRecord("john_smith", model.StatusAcceptedMale, ""),
		model.NewRunRecord("emily_rose", model.StatusRejectedNotMale, ""),
		model.NewRunRecord("xx99yy", model.StatusRejectedGibberish, "low vowel ratio"),
	}

	if err := adb.SaveRun(context.Background(), summary, records); err != nil {
		t.Fatalf("failed to seed archive: %v", err)
	}
	return dir, summary
}

// captureStdout runs fn while capturing everything written to stdout.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	r.Close()

	if fnErr != nil {
		t.Fatalf("unexpected error: %v", fnErr)
	}
	return buf.String()
}

// TestRunHistoryCmd tests the history command execution.
func TestRunHistoryCmd(t *testing.T) {
	t.Run("errors when the archive does not exist", func(t *testing.T) {
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"history", "--archive-dir", t.TempDir()})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for missing archive")
		}
		if !strings.Contains(err.Error(), "archive not found") {
			t.Errorf("expected 'archive not found' error, got: %v", err)
		}
	})

	t.Run("rejects --run combined with a username", func(t *testing.T) {
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"history", "--run", "some-id", "john_smith"})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for conflicting arguments")
		}
		if !strings.Contains(err.Error(), "cannot be combined") {
			t.Errorf("expected 'cannot be combined' error, got: %v", err)
		}
	})

	t.Run("rejects --totals combined with a username", func(t *testing.T) {
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"history", "--totals", "john_smith"})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for conflicting arguments")
		}
		if !strings.Contains(err.Error(), "cannot be combined") {
			t.Errorf("expected 'cannot be combined' error, got: %v", err)
		}
	})

	t.Run("lists archived runs", func(t *testing.T) {
		dir, summary := seedArchive(t)

		output := captureStdout(t, func() error {
			rootCmd := NewRootCmd()
			rootCmd.SetArgs([]string{"history", "--archive-dir", dir})
			return rootCmd.Execute()
		})

		if !strings.Contains(output, summary.RunID) {
			t.Errorf("expected output to contain run ID %q, got %q", summary.RunID, output)
		}
	})

	t.Run("shows one username's verdicts", func(t *testing.T) {
		dir, summary := seedArchive(t)

		output := captureStdout(t, func() error {
			rootCmd := NewRootCmd()
			rootCmd.SetArgs([]string{"history", "john_smith", "--archive-dir", dir})
			return rootCmd.Execute()
		})

		if !strings.Contains(output, "accepted_male") {
			t.Errorf("expected output to contain 'accepted_male', got %q", output)
		}
		if !strings.Contains(output, summary.RunID) {
			t.Errorf("expected output to contain the run ID, got %q", output)
		}
	})

	t.Run("reports nothing for an unknown username", func(t *testing.T) {
		dir, _ := seedArchive(t)

		output := captureStdout(t, func() error {
			rootCmd := NewRootCmd()
			rootCmd.SetArgs([]string{"history", "nobody_here", "--archive-dir", dir})
			return rootCmd.Execute()
		})

		if !strings.Contains(output, "No history found") {
			t.Errorf("expected 'No history found' message, got %q", output)
		}
	})

	t.Run("re-prints a run report by ID", func(t *testing.T) {
		dir, summary := seedArchive(t)

		output := captureStdout(t, func() error {
			rootCmd := NewRootCmd()
			rootCmd.SetArgs([]string{"history", "--run", summary.RunID, "--archive-dir", dir})
			return rootCmd.Execute()
		})

		if !strings.Contains(output, summary.RunID) {
			t.Errorf("expected report to contain the run ID, got %q", output)
		}
	})

	t.Run("errors for an unknown run ID", func(t *testing.T) {
		dir, _ := seedArchive(t)

		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"history", "--run", "no-such-run", "--archive-dir", dir})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for unknown run ID")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got: %v", err)
		}
	})

	t.Run("shows archive totals", func(t *testing.T) {
		dir, _ := seedArchive(t)

		output := captureStdout(t, func() error {
			rootCmd := NewRootCmd()
			rootCmd.SetArgs([]string{"history", "--totals", "--archive-dir", dir})
			return rootCmd.Execute()
		})

		if !strings.Contains(output, "Runs") {
			t.Errorf("expected totals to mention runs, got %q", output)
		}
		if !strings.Contains(output, "accepted_male") {
			t.Errorf("expected a per-status row for accepted_male, got %q", output)
		}
	})

	t.Run("outputs totals as JSON", func(t *testing.T) {
		dir, _ := seedArchive(t)

		output := captureStdout(t, func() error {
			rootCmd := NewRootCmd()
			rootCmd.SetArgs([]string{"history", "--totals", "--json", "--archive-dir", dir})
			return rootCmd.Execute()
		})

		var totals struct {
			Runs     int            `json:"runs"`
			Records  int            `json:"records"`
			Males    int            `json:"males"`
			ByStatus map[string]int `json:"by_status"`
		}
		if err := json.Unmarshal([]byte(output), &totals); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}

		if totals.Runs != 1 {
			t.Errorf("expected 1 run, got %d", totals.Runs)
		}
		if totals.Records != 3 {
			t.Errorf("expected 3 records, got %d", totals.Records)
		}
		if totals.Males != 1 {
			t.Errorf("expected 1 male, got %d", totals.Males)
		}
		if totals.ByStatus["accepted_male"] != 1 {
			t.Errorf("expected 1 accepted_male record, got %d", totals.ByStatus["accepted_male"])
		}
	})
}
