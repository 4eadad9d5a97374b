package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/HansBhatia/genderscan/internal/model"
)

// createTestSummary creates a summary with sample data for testing.
// The counters are set by hand so the derived numbers are deterministic.
func createTestSummary() *model.RunSummary {
	summary := model.NewRunSummary()
	summary.StartedAt = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	summary.FinishedAt = summary.StartedAt.Add(14 * time.Second)
	summary.InputTotal = 10
	summary.Duplicates = 1
	summary.AlreadySettled = 2
	summary.Attempted = 7
	summary.Processed = 4
	summary.Batches = 1
	summary.ElapsedSeconds = 14
	summary.PerSecond = 0.5

	summary.Add(model.StatusRejectedGibberish, 2)
	summary.Add(model.StatusRejectedBusiness, 1)
	summary.Add(model.StatusAcceptedMale, 2)
	summary.Add(model.StatusRejectedNotMale, 1)
	summary.Add(model.StatusErrorInstagram, 1)

	return summary
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "GENDERSCAN RUN REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, summary.RunID) {
			t.Error("expected output to contain run ID")
		}
	})

	t.Run("writes input accounting", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "INPUT") {
			t.Error("expected output to contain input section")
		}
		if !strings.Contains(output, "Already settled:") {
			t.Error("expected output to contain already-settled count")
		}
	})

	t.Run("writes outcome counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Accepted Male:") {
			t.Error("expected output to contain accepted male count")
		}
		if !strings.Contains(output, "Error Instagram:") {
			t.Error("expected output to contain error count")
		}
		if !strings.Contains(output, "MALES FOUND:") {
			t.Error("expected output to contain male total")
		}
	})

	t.Run("hides zero-count statuses by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// No verified rejection happened in the sample run.
		if strings.Contains(buf.String(), "Rejected Verified:") {
			t.Error("expected zero-count status to be hidden")
		}
	})

	t.Run("shows zero-count statuses with showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "Rejected Verified:") {
			t.Error("expected zero-count status to be shown")
		}
	})

	t.Run("includes projection when configured", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithProjection(1_000_000))
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "PROJECTION") {
			t.Error("expected output to contain projection section")
		}
		// 1,000,000 usernames at 0.5/s is 555.6 hours.
		if !strings.Contains(output, "555.6 hours") {
			t.Errorf("expected projected hours in output, got:\n%s", output)
		}
	})

	t.Run("omits projection without a volume", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "PROJECTION") {
			t.Error("expected no projection section without a volume")
		}
	})

	t.Run("omits projection for an instant run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithProjection(1_000_000))
		summary := createTestSummary()
		summary.PerSecond = 0

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "PROJECTION") {
			t.Error("expected no projection section when no pace was measured")
		}
	})

	t.Run("handles drained run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		summary := createTestSummary()
		summary.Drained = true

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "DRAINED") {
			t.Error("expected output to indicate the drain")
		}
	})

	t.Run("handles empty run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		summary := model.NewRunSummary()
		summary.Finish()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No records produced") {
			t.Error("expected empty-run message")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Verify it's valid JSON
		var parsed model.RunSummary
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.RunID != summary.RunID {
			t.Errorf("expected run ID %q, got %q", summary.RunID, parsed.RunID)
		}
		if parsed.MaleFound != 2 {
			t.Errorf("expected male count 2, got %d", parsed.MaleFound)
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Compact JSON should be on fewer lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Pretty printed JSON should have multiple lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
	})
}

// TestFullJSONWriter tests the full JSON writer with metadata.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("includes version in output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "0.2.0", WithPrettyPrint())
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed JSONReport
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.Version != "0.2.0" {
			t.Errorf("expected version %q, got %q", "0.2.0", parsed.Version)
		}
		if parsed.Summary == nil || parsed.Summary.MaleFound != 2 {
			t.Errorf("expected wrapped summary with 2 males, got %+v", parsed.Summary)
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		w1 := NewSimpleWriter(&buf1)
		w2 := NewJSONWriter(&buf2)

		multi := NewMultiWriter(w1, w2)
		summary := createTestSummary()

		n, err := multi.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected non-zero bytes written")
		}

		// Check both buffers have content
		if buf1.Len() == 0 {
			t.Error("expected buf1 to have content")
		}
		if buf2.Len() == 0 {
			t.Error("expected buf2 to have content")
		}

		// Verify formats are different
		if strings.Contains(buf1.String(), "{") {
			t.Error("expected buf1 (simple) to not be JSON")
		}
		if !strings.Contains(buf2.String(), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		multi := NewMultiWriter()
		summary := createTestSummary()

		n, err := multi.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 bytes written for empty writers, got %d", n)
		}
	})
}

// TestWithIndent tests the WithIndent JSON option.
func TestWithIndent(t *testing.T) {
	t.Parallel()

	t.Run("uses custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent(">>", "\t"))
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Should have multiple lines with custom formatting
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
		// Check that prefix is used
		if !strings.Contains(output, ">>") {
			t.Error("expected custom prefix '>>' in output")
		}
		// Check that tab indent is used
		if !strings.Contains(output, "\t") {
			t.Error("expected tab indentation in output")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# GenderScan Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, summary.RunID) {
			t.Error("expected output to contain run ID")
		}
	})

	t.Run("writes outcome table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Outcomes") {
			t.Error("expected output to contain outcomes header")
		}
		if !strings.Contains(output, "🟢 Accepted Male") {
			t.Error("expected output to contain accepted male row")
		}
	})

	t.Run("includes pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "pie") {
			t.Error("expected output to contain mermaid pie chart")
		}
	})

	t.Run("omits pie chart for an empty run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := model.NewRunSummary()
		summary.Finish()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "mermaid") {
			t.Error("expected no pie chart when no records were produced")
		}
	})

	t.Run("includes GitHub alert for error-heavy run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := model.NewRunSummary()
		summary.Attempted = 4
		summary.Add(model.StatusErrorInstagram, 2)
		summary.Add(model.StatusAcceptedMale, 2)
		summary.Finish()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected output to contain CAUTION alert for error-heavy run")
		}
	})

	t.Run("includes warning for partially errored run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!WARNING]") {
			t.Error("expected output to contain WARNING alert for errored usernames")
		}
	})

	t.Run("includes tip for clean run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := model.NewRunSummary()
		summary.Attempted = 3
		summary.Add(model.StatusAcceptedMale, 2)
		summary.Add(model.StatusRejectedNotMale, 1)
		summary.Finish()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected TIP alert for clean run")
		}
	})

	t.Run("includes note when nothing was attempted", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := model.NewRunSummary()
		summary.InputTotal = 5
		summary.AlreadySettled = 5
		summary.Finish()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!NOTE]") {
			t.Error("expected NOTE alert when everything was already settled")
		}
	})

	t.Run("handles drained run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := createTestSummary()
		summary.Drained = true

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Drained") {
			t.Error("expected output to indicate the drain")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := createTestSummary()

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "https://github.com/HansBhatia/genderscan") {
			t.Error("expected footer with repository link")
		}
	})
}

// TestStatusLabel tests the status heading helper.
func TestStatusLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   model.Status
		expected string
	}{
		{model.StatusAcceptedMale, "Accepted Male"},
		{model.StatusRejectedNotMale, "Rejected Not Male"},
		{model.StatusRejectedGibberish, "Rejected Gibberish"},
		{model.StatusErrorInstagram, "Error Instagram"},
		{model.StatusErrorClassification, "Error Classification"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			result := statusLabel(tt.status)
			if result != tt.expected {
				t.Errorf("statusLabel(%q) = %q, want %q", tt.status, result, tt.expected)
			}
		})
	}
}
