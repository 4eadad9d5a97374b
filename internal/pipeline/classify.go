package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/HansBhatia/genderscan/internal/classifier"
	"github.com/HansBhatia/genderscan/internal/config"
	"github.com/HansBhatia/genderscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// ClassifyStage runs classification calls for the fetched profiles of one
// batch under a concurrency ceiling.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because the ceiling is a counting semaphore, not an ownership question:
// unlike sessions, the classifier is safe for concurrent use, so any
// goroutine may serve any profile. The limit is independent of the
// identity count.
type ClassifyStage struct {
	// detector performs the actual classification.
	detector classifier.Classifier

	// limit is the maximum number of concurrent classification calls.
	limit int

	// timeout bounds each individual call.
	timeout time.Duration

	// logger is used for stage-level logging.
	logger *slog.Logger
}

// NewClassifyStage creates a ClassifyStage with the given concurrency
// ceiling. Non-positive values fall back to the defaults.
func NewClassifyStage(detector classifier.Classifier, limit int, timeout time.Duration, logger *slog.Logger) *ClassifyStage {
	if limit < 1 {
		limit = config.DefaultMaxConcurrentClassification
	}
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyStage{
		detector: detector,
		limit:    limit,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run classifies every fetched profile and returns the verdicts in input
// order. It returns only after every call has finished. Call failures
// come back as {Success: false} values inside the slice, never as errors.
//
// Like the fetch stage, classification is detached from external
// cancellation: an in-flight batch always settles.
func (s *ClassifyStage) Run(ctx context.Context, fetched []*model.FetchResult) []model.Classification {
	results := make([]model.Classification, len(fetched))
	base := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(s.limit)
	for i, f := range fetched {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(base, s.timeout)
			defer cancel()
			results[i] = s.detector.Detect(callCtx, classifier.Request{
				Username:   f.Username,
				FullName:   f.FullName,
				Avatar:     f.Avatar,
				AvatarMIME: f.AvatarMIME,
			})
			return nil
		})
	}

	// Calls never return errors; Wait is the batch barrier.
	_ = g.Wait()

	return results
}
