package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/HansBhatia/genderscan/internal/checkpoint"
	"github.com/HansBhatia/genderscan/internal/config"
	"github.com/HansBhatia/genderscan/internal/filter"
	"github.com/HansBhatia/genderscan/internal/model"
)

// State identifies what the runner is currently doing. States exist for
// observability; transitions are driven entirely by Run.
type State string

// Runner states in execution order. A run moves Loading through
// Summarizing and always ends Idle; the batch cycle repeats Fetching,
// Classifying and Persisting once per batch.
const (
	StateIdle          State = "idle"
	StateLoading       State = "loading"
	StateDeduplicating State = "deduplicating"
	StateResuming      State = "resuming"
	StateFiltering     State = "filtering"
	StateFetching      State = "fetching"
	StateClassifying   State = "classifying"
	StatePersisting    State = "persisting"
	StateSummarizing   State = "summarizing"
)

// RunArchiver mirrors a finished run into long-term storage.
// *archive.DB satisfies this interface.
type RunArchiver interface {
	SaveRun(ctx context.Context, summary *model.RunSummary, records []model.RunRecord) error
}

// Runner drives one end-to-end run: load input, dedupe, subtract settled
// usernames, apply the cheap filter, then fetch/classify/persist in
// fixed-size batches, and summarize.
//
// Per-username failures are recorded and never abort the run; only
// configuration and persistence errors do. An external stop request
// (Stop or context cancellation) drains at the next batch boundary.
type Runner struct {
	// cfg holds the validated run configuration.
	cfg *config.Config

	// store is the resumable checkpoint. Persist failures abort the run.
	store *checkpoint.Store

	// fetch is the per-identity fetch worker pool.
	fetch *FetchStage

	// classify is the bounded classification stage.
	classify *ClassifyStage

	// archive optionally mirrors finished runs. May be nil.
	archive RunArchiver

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// stop is the drain request flag, set by Stop.
	stop atomic.Bool

	mu    sync.Mutex
	state State
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets a custom logger for the runner.
// If not set, the default logger is used.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithArchive sets the archive that finished runs are mirrored into.
// Archive failures are logged and never abort a run; the checkpoint
// remains the sole resumption authority.
func WithArchive(archive RunArchiver) RunnerOption {
	return func(r *Runner) {
		r.archive = archive
	}
}

// NewRunner creates a Runner wired to the given stages and checkpoint.
func NewRunner(cfg *config.Config, store *checkpoint.Store, fetch *FetchStage, classify *ClassifyStage, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		store:    store,
		fetch:    fetch,
		classify: classify,
		state:    StateIdle,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Stop requests a graceful drain. The in-flight batch finishes and is
// persisted, then the run summarizes with Drained set. Safe to call from
// any goroutine, any number of times.
func (r *Runner) Stop() {
	r.stop.Store(true)
}

// State returns the runner's current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.logger.Debug("state change", "state", string(s))
}

// draining reports whether an external stop was requested, either via
// Stop or by cancelling the run context.
func (r *Runner) draining(ctx context.Context) bool {
	return r.stop.Load() || ctx.Err() != nil
}

// Run executes one complete run and returns its summary.
//
// The returned summary is non-nil whenever the run got far enough to
// produce one; it accompanies the error on persist failures so the caller
// can still report what happened before the abort.
func (r *Runner) Run(ctx context.Context) (*model.RunSummary, error) {
	defer r.setState(StateIdle)

	summary := model.NewRunSummary()

	// Loading
	r.setState(StateLoading)
	usernames, err := loadUsernames(r.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	summary.InputTotal = len(usernames)

	// Deduplicating
	r.setState(StateDeduplicating)
	usernames = dedupe(usernames)
	summary.Duplicates = summary.InputTotal - len(usernames)

	// Resuming
	r.setState(StateResuming)
	settled, err := r.store.AlreadyProcessed()
	if err != nil {
		return nil, err
	}
	fresh := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if _, ok := settled[u]; ok {
			summary.AlreadySettled++
			continue
		}
		fresh = append(fresh, u)
	}
	summary.Attempted = len(fresh)

	r.logger.Info("run starting",
		"run_id", summary.RunID,
		"input", summary.InputTotal,
		"duplicates", summary.Duplicates,
		"already_settled", summary.AlreadySettled,
		"attempted", summary.Attempted,
	)

	// Filtering: cheap rejections are settled without any network traffic.
	r.setState(StateFiltering)
	var history []model.RunRecord
	queue := make([]string, 0, len(fresh))
	for _, u := range fresh {
		verdict := filter.Classify(u)
		if verdict.Accepted {
			queue = append(queue, u)
			continue
		}
		history = append(history, model.NewRunRecord(u, verdict.Status, verdict.Reason))
		summary.Add(verdict.Status, 1)
	}

	if len(history) > 0 {
		r.setState(StatePersisting)
		if err := r.store.Append(history, summary); err != nil {
			return summary, err
		}
		r.logger.Info("filter rejections persisted",
			"rejected", len(history),
			"remaining", len(queue),
		)
	}

	// Batch cycle. Batch K+1 never starts before batch K is persisted,
	// and a drain request takes effect only here, between batches.
	for start := 0; start < len(queue); start += r.cfg.BatchSize {
		if r.draining(ctx) {
			summary.Drained = true
			r.logger.Warn("drain requested, stopping at batch boundary",
				"completed_batches", summary.Batches,
				"remaining", len(queue)-start,
			)
			break
		}

		end := min(start+r.cfg.BatchSize, len(queue))
		batch := queue[start:end]
		summary.Batches++

		r.logger.Info("processing batch",
			"batch", summary.Batches,
			"size", len(batch),
			"remaining", len(queue)-end,
		)

		records, accepted := r.runBatch(ctx, batch, summary)
		history = append(history, records...)

		r.setState(StatePersisting)
		if err := r.store.Append(records, summary); err != nil {
			return summary, err
		}
		if err := r.store.AppendAccepted(accepted); err != nil {
			return summary, err
		}
	}

	// Summarizing
	r.setState(StateSummarizing)
	summary.Finish()
	if err := r.store.Append(nil, summary); err != nil {
		return summary, err
	}

	if r.archive != nil {
		// The archive write must survive the cancellation that triggered
		// a drain; the checkpoint already has the data either way.
		if err := r.archive.SaveRun(context.WithoutCancel(ctx), summary, history); err != nil {
			r.logger.Warn("archive save failed", "error", err)
		}
	}

	r.logger.Info("run finished",
		"run_id", summary.RunID,
		"attempted", summary.Attempted,
		"male_found", summary.MaleFound,
		"errors", summary.Errors(),
		"batches", summary.Batches,
		"elapsed_seconds", summary.ElapsedSeconds,
		"drained", summary.Drained,
	)

	return summary, nil
}

// runBatch fetches and classifies one batch and assembles a complete
// record set: exactly one record per batch username, in batch order.
// It returns the records and the usernames destined for the accepted
// list.
func (r *Runner) runBatch(ctx context.Context, batch []string, summary *model.RunSummary) ([]model.RunRecord, []string) {
	r.setState(StateFetching)
	fetched := r.fetch.Run(ctx, batch)
	summary.Processed += len(batch)

	// Verified profiles are settled without spending a classification
	// call; only live unverified profiles move on.
	r.setState(StateClassifying)
	var toClassify []*model.FetchResult
	position := make(map[int]int, len(batch))
	for i, f := range fetched {
		if !f.Failed() && !f.IsVerified {
			position[i] = len(toClassify)
			toClassify = append(toClassify, f)
		}
	}
	verdicts := r.classify.Run(ctx, toClassify)

	records := make([]model.RunRecord, 0, len(batch))
	var accepted []string
	for i, username := range batch {
		f := fetched[i]

		var record model.RunRecord
		switch {
		case f.Failed():
			record = model.NewRunRecord(username, model.StatusErrorInstagram,
				fmt.Sprintf("%s: %s", f.ErrKind, f.ErrDetail))
		case f.IsVerified:
			record = model.NewRunRecord(username, model.StatusRejectedVerified, "verification badge")
		default:
			verdict := verdicts[position[i]]
			switch {
			case !verdict.Success:
				record = model.NewRunRecord(username, model.StatusErrorClassification, verdict.Reasoning)
			case verdict.IsMale:
				record = model.NewRunRecord(username, model.StatusAcceptedMale, "")
				accepted = append(accepted, username)
			default:
				record = model.NewRunRecord(username, model.StatusRejectedNotMale, "")
			}
			record.Classification = &verdict
		}
		record.Fetch = f.Meta()

		summary.Add(record.Status, 1)
		records = append(records, record)
	}

	return records, accepted
}

// loadUsernames reads the newline-delimited input list. Blank lines are
// skipped; surrounding whitespace is trimmed.
func loadUsernames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input list: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var usernames []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		usernames = append(usernames, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input list: %w", err)
	}

	return usernames, nil
}

// dedupe removes duplicate usernames, keeping the first occurrence of
// each and preserving input order.
func dedupe(usernames []string) []string {
	seen := make(map[string]struct{}, len(usernames))
	out := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
