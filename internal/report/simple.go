package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/HansBhatia/genderscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether zero-count status rows are shown.
	showEmpty bool

	// projectionVolume, when positive, enables the projection section
	// that extrapolates the observed pace to this many usernames.
	projectionVolume int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show zero-count status rows.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithProjection enables the projection section, extrapolating the run's
// pace to the given username volume.
func WithProjection(volume int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.projectionVolume = volume
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:       newBaseWriter(output),
		showEmpty:        false,
		projectionVolume: 0,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, summary)

	// Input accounting
	w.writeInput(&sb, summary)

	// Per-status outcomes
	w.writeOutcomes(&sb, summary)

	// Pace projection
	w.writeProjection(&sb, summary)

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        GENDERSCAN RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run ID:    %s\n", summary.RunID))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Finished:  %s\n", summary.FinishedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:  %.1fs\n", summary.ElapsedSeconds))

	if summary.Drained {
		sb.WriteString("Status:    DRAINED (stopped at a batch boundary)\n")
	} else {
		sb.WriteString("Status:    Complete\n")
	}

	sb.WriteString("\n")
}

// writeInput writes the input accounting section.
func (w *SimpleWriter) writeInput(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("INPUT\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  %-18s%d\n", "Input lines:", summary.InputTotal))
	sb.WriteString(fmt.Sprintf("  %-18s%d\n", "Duplicates:", summary.Duplicates))
	sb.WriteString(fmt.Sprintf("  %-18s%d\n", "Already settled:", summary.AlreadySettled))
	sb.WriteString(fmt.Sprintf("  %-18s%d\n", "Attempted:", summary.Attempted))
	sb.WriteString(fmt.Sprintf("  %-18s%d\n", "Processed:", summary.Processed))
	sb.WriteString(fmt.Sprintf("  %-18s%d\n", "Batches:", summary.Batches))
	sb.WriteString("\n")
}

// writeOutcomes writes the per-status outcome counts.
func (w *SimpleWriter) writeOutcomes(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OUTCOMES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if summary.Records() == 0 && !w.showEmpty {
		sb.WriteString("  No records produced\n\n")
		return
	}

	for _, status := range model.AllStatuses() {
		count := summary.Count(status)
		if count == 0 && !w.showEmpty {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-24s%d\n", statusLabel(status)+":", count))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  %-24s%d\n", "TOTAL:", summary.Records()))
	sb.WriteString(fmt.Sprintf("  %-24s%d\n", "MALES FOUND:", summary.MaleFound))
	sb.WriteString("\n")
}

// writeProjection extrapolates the run's pace to the configured volume.
// The section is omitted when no volume was configured or the run was too
// small to establish a pace.
func (w *SimpleWriter) writeProjection(sb *strings.Builder, summary *model.RunSummary) {
	if w.projectionVolume <= 0 {
		return
	}
	hours := summary.EstimateHours(w.projectionVolume)
	if hours <= 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROJECTION\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  %-18s%.2f usernames/second\n", "Pace:", summary.PerSecond))
	sb.WriteString(fmt.Sprintf("  %d usernames at this pace: ~%.1f hours\n", w.projectionVolume, hours))
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by genderscan\n")
	sb.WriteString("https://github.com/HansBhatia/genderscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
