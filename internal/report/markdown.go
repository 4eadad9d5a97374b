package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/HansBhatia/genderscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// statusGlyphs decorate the status-count table and follow the outcome
// weight: green for the find, orange for the retryable error family.
var statusGlyphs = map[model.Status]string{
	model.StatusRejectedGibberish:   "⚪",
	model.StatusRejectedBusiness:    "⚪",
	model.StatusRejectedVerified:    "🔵",
	model.StatusAcceptedMale:        "🟢",
	model.StatusRejectedNotMale:     "🟡",
	model.StatusErrorInstagram:      "🟠",
	model.StatusErrorClassification: "🟠",
}

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, summary)

	// Input accounting
	w.writeInput(md, summary)

	// Per-status outcomes
	w.writeOutcomes(md, summary)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("GenderScan Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + summary.RunID + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", strconv.FormatFloat(summary.ElapsedSeconds, 'f', 1, 64) + "s"},
			{"Batches", strconv.Itoa(summary.Batches)},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on how the run ended.
func (w *MarkdownWriter) getStatusText(summary *model.RunSummary) string {
	if summary.Drained {
		return "⚠️ Drained (stopped at a batch boundary)"
	}
	return "✅ Complete"
}

// writeInput writes the input accounting section.
func (w *MarkdownWriter) writeInput(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Input")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Count"},
		Rows: [][]string{
			{"Input lines", strconv.Itoa(summary.InputTotal)},
			{"Duplicates dropped", strconv.Itoa(summary.Duplicates)},
			{"Already settled", strconv.Itoa(summary.AlreadySettled)},
			{"Attempted", strconv.Itoa(summary.Attempted)},
			{"Processed", strconv.Itoa(summary.Processed)},
		},
	})
	md.PlainText("")
}

// writeOutcomes writes the per-status outcome counts.
func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Outcomes")
	md.PlainText("")

	rows := make([][]string, 0, len(model.AllStatuses())+1)
	for _, status := range model.AllStatuses() {
		rows = append(rows, []string{
			statusGlyphs[status] + " " + statusLabel(status),
			strconv.Itoa(summary.Count(status)),
		})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(summary.Records()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	// Add pie chart if any records were produced
	if summary.Records() > 0 {
		w.writePieChart(md, summary)
	}

	// Add alert based on error volume
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Status Distribution"),
		piechart.WithShowData(true),
	)

	for _, status := range model.AllStatuses() {
		if count := summary.Count(status); count > 0 {
			chart.LabelAndIntValue(statusLabel(status), uint64(count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run's error volume.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	errors := summary.Errors()
	switch {
	case summary.Attempted == 0:
		md.Note("No new usernames to examine. Everything in the input was already settled.")
	case errors*2 >= summary.Attempted:
		md.Cautionf(
			"%d of %d attempted usernames errored. Check identity health before rerunning.",
			errors, summary.Attempted,
		)
	case errors > 0:
		md.Warningf(
			"%d username(s) errored and will be retried on the next run.",
			errors,
		)
	case summary.MaleFound > 0:
		md.Tip(fmt.Sprintf("Clean run. %d male account(s) found with no errors.", summary.MaleFound))
	default:
		md.Tip("Clean run with no errors.")
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [genderscan](https://github.com/HansBhatia/genderscan)*")
}
