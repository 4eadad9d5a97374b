package model

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary aggregates one pipeline run: where the input went, how fast
// the run moved, and when it happened. It is printed at the end of a run,
// stored as the checkpoint's last_run block, and archived for the history
// command.
type RunSummary struct {
	// RunID uniquely identifies the run across the checkpoint and the
	// archive database.
	RunID string `json:"run_id"`

	// StartedAt is when the run began loading input.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run reached its final state.
	FinishedAt time.Time `json:"finished_at"`

	// InputTotal is the number of non-blank lines read from the input
	// file, duplicates included.
	InputTotal int `json:"input_total"`

	// Duplicates is how many input lines were dropped by first-seen
	// deduplication.
	Duplicates int `json:"duplicates"`

	// AlreadySettled is how many usernames were skipped because the
	// checkpoint already holds a terminal verdict for them.
	AlreadySettled int `json:"already_settled"`

	// Attempted is how many usernames this run actually examined:
	// InputTotal - Duplicates - AlreadySettled.
	Attempted int `json:"attempted"`

	// StatusCounts holds the per-status record counts this run produced.
	StatusCounts map[Status]int `json:"status_counts"`

	// Processed is how many usernames went through the fetch/classify
	// stages (Attempted minus cheap-filter rejections).
	Processed int `json:"processed"`

	// MaleFound is the number of accepted_male records this run produced.
	MaleFound int `json:"male_found"`

	// Batches is how many fetch/classify/persist cycles the run executed.
	Batches int `json:"batches"`

	// ElapsedSeconds is the wall-clock duration of the run.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// PerSecond is Attempted divided by ElapsedSeconds. Zero for an
	// instant run.
	PerSecond float64 `json:"usernames_per_second"`

	// Drained is true when an external stop request ended the run at a
	// batch boundary before the input was exhausted.
	Drained bool `json:"drained,omitempty"`
}

// NewRunSummary returns a summary with a fresh run ID, stamped as started
// now, ready for the counters to accumulate.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		RunID:        uuid.New().String(),
		StartedAt:    time.Now().UTC(),
		StatusCounts: make(map[Status]int),
	}
}

// Add records n outcomes with the given status and keeps the derived
// MaleFound counter in step.
func (s *RunSummary) Add(status Status, n int) {
	if n == 0 {
		return
	}
	s.StatusCounts[status] += n
	if status.Accepted() {
		s.MaleFound += n
	}
}

// Count returns how many records with the given status this run produced.
func (s *RunSummary) Count(status Status) int {
	return s.StatusCounts[status]
}

// Errors returns the number of non-terminal records this run produced.
func (s *RunSummary) Errors() int {
	n := 0
	for status, c := range s.StatusCounts {
		if !status.Terminal() {
			n += c
		}
	}
	return n
}

// Records returns the total number of records this run produced.
func (s *RunSummary) Records() int {
	n := 0
	for _, c := range s.StatusCounts {
		n += c
	}
	return n
}

// Finish stamps the end of the run and computes the rate counters.
func (s *RunSummary) Finish() {
	s.FinishedAt = time.Now().UTC()
	s.ElapsedSeconds = s.FinishedAt.Sub(s.StartedAt).Seconds()
	if s.ElapsedSeconds > 0 {
		s.PerSecond = float64(s.Attempted) / s.ElapsedSeconds
	}
}

// EstimateHours linearly extrapolates the observed rate to a target
// volume of usernames. It answers "how long would N take at this pace"
// and returns zero when the run was too small or too fast to measure.
func (s *RunSummary) EstimateHours(volume int) float64 {
	if s.PerSecond <= 0 || volume <= 0 {
		return 0
	}
	return float64(volume) / s.PerSecond / 3600
}
