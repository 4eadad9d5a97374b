package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/HansBhatia/genderscan/internal/config"
	"github.com/HansBhatia/genderscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// Fetcher looks up one username and always produces a result, never an
// error. *instagram.Session satisfies this interface.
type Fetcher interface {
	Lookup(ctx context.Context, username string) *model.FetchResult
}

// FetchStage runs profile lookups for one batch across a fixed set of
// fetchers. Worker w owns fetchers[w] exclusively and processes batch
// positions w, w+N, w+2N and so on, where N is the number of fetchers.
//
// Design decision: We use striding rather than a shared work queue
// because it makes two invariants structural: batch position i is always
// served by fetcher i mod N (deterministic routing), and each fetcher has
// at most one lookup in flight (sessions are single-owner and are paced
// per identity).
type FetchStage struct {
	// fetchers are the per-identity sessions, one worker each.
	fetchers []Fetcher

	// timeout bounds each individual lookup.
	timeout time.Duration

	// logger is used for worker-level logging.
	logger *slog.Logger
}

// NewFetchStage creates a FetchStage over the given fetchers, which must
// be non-empty (identity rosters reject emptiness at load time).
// A non-positive timeout falls back to the default fetch timeout.
func NewFetchStage(fetchers []Fetcher, timeout time.Duration, logger *slog.Logger) *FetchStage {
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStage{
		fetchers: fetchers,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run fetches every username in the batch and returns the results in
// batch order. It returns only after every worker has finished, so the
// caller observes a completed batch or nothing.
//
// The external context is deliberately not used for cancellation: a stop
// request drains at the batch boundary, it never abandons lookups
// mid-batch. Each lookup still runs under its own timeout.
func (s *FetchStage) Run(ctx context.Context, usernames []string) []*model.FetchResult {
	results := make([]*model.FetchResult, len(usernames))
	base := context.WithoutCancel(ctx)

	var g errgroup.Group
	for w := range s.fetchers {
		g.Go(func() error {
			processed := 0
			for i := w; i < len(usernames); i += len(s.fetchers) {
				callCtx, cancel := context.WithTimeout(base, s.timeout)
				results[i] = s.fetchers[w].Lookup(callCtx, usernames[i])
				cancel()
				processed++
			}
			s.logger.Debug("fetch worker finished",
				"worker", w,
				"processed", processed,
			)
			return nil
		})
	}

	// Workers never return errors; Wait is the batch barrier.
	_ = g.Wait()

	return results
}
