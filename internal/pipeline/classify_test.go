package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HansBhatia/genderscan/internal/classifier"
	"github.com/HansBhatia/genderscan/internal/model"
)

// stubClassifier is a test double for the Gemini classifier.
type stubClassifier struct {
	male  map[string]bool
	fail  map[string]string // username -> failure reasoning
	delay time.Duration

	current atomic.Int32

	mu   sync.Mutex
	peak int32
	seen []string
}

// Detect implements classifier.Classifier and tracks how many calls run
// at once.
func (s *stubClassifier) Detect(_ context.Context, req classifier.Request) model.Classification {
	current := s.current.Add(1)
	defer s.current.Add(-1)

	s.mu.Lock()
	if current > s.peak {
		s.peak = current
	}
	s.seen = append(s.seen, req.Username)
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if reasoning, ok := s.fail[req.Username]; ok {
		return model.Classification{Success: false, Reasoning: reasoning}
	}
	return model.Classification{Success: true, IsMale: s.male[req.Username], Reasoning: "stub verdict"}
}

// Close implements classifier.Classifier.
func (s *stubClassifier) Close() error { return nil }

// usernames returns a copy of the usernames this classifier has seen.
func (s *stubClassifier) usernames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.seen))
	copy(out, s.seen)
	return out
}

// maxConcurrent returns the peak number of simultaneous Detect calls.
func (s *stubClassifier) maxConcurrent() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

func fetchedProfiles(usernames ...string) []*model.FetchResult {
	results := make([]*model.FetchResult, 0, len(usernames))
	for _, u := range usernames {
		results = append(results, &model.FetchResult{
			Username: u,
			Exists:   true,
			FullName: "Profile " + u,
		})
	}
	return results
}

// TestClassifyStageConcurrency tests the in-flight call ceiling.
func TestClassifyStageConcurrency(t *testing.T) {
	t.Parallel()

	t.Run("respects the concurrency limit", func(t *testing.T) {
		t.Parallel()

		detector := &stubClassifier{delay: 50 * time.Millisecond}
		stage := NewClassifyStage(detector, 2, time.Minute, discardLogger())

		fetched := fetchedProfiles("u1", "u2", "u3", "u4", "u5", "u6")
		results := stage.Run(context.Background(), fetched)

		if len(results) != 6 {
			t.Fatalf("expected 6 verdicts, got %d", len(results))
		}
		if got := detector.maxConcurrent(); got > 2 {
			t.Errorf("max concurrent calls = %d, want <= 2", got)
		}
		if got := len(detector.usernames()); got != 6 {
			t.Errorf("expected 6 Detect calls, got %d", got)
		}
	})
}

// TestClassifyStageOrder tests verdict-to-input alignment.
func TestClassifyStageOrder(t *testing.T) {
	t.Parallel()

	t.Run("returns verdicts in input order", func(t *testing.T) {
		t.Parallel()

		detector := &stubClassifier{male: map[string]bool{"u1": true, "u3": true}}
		stage := NewClassifyStage(detector, 4, time.Minute, discardLogger())

		results := stage.Run(context.Background(), fetchedProfiles("u1", "u2", "u3"))

		want := []bool{true, false, true}
		for i, verdict := range results {
			if !verdict.Success {
				t.Errorf("verdict[%d] unexpectedly failed: %s", i, verdict.Reasoning)
			}
			if verdict.IsMale != want[i] {
				t.Errorf("verdict[%d].IsMale = %v, want %v", i, verdict.IsMale, want[i])
			}
		}
	})
}

// TestClassifyStageFailure tests that failures stay values.
func TestClassifyStageFailure(t *testing.T) {
	t.Parallel()

	t.Run("a failed classification fills its position", func(t *testing.T) {
		t.Parallel()

		detector := &stubClassifier{
			male: map[string]bool{"u1": true},
			fail: map[string]string{"u2": "quota exhausted"},
		}
		stage := NewClassifyStage(detector, 4, time.Minute, discardLogger())

		results := stage.Run(context.Background(), fetchedProfiles("u1", "u2", "u3"))

		if !results[0].Success || !results[0].IsMale {
			t.Error("expected u1 to classify as male")
		}
		if results[1].Success {
			t.Error("expected u2 to fail")
		}
		if results[1].Reasoning != "quota exhausted" {
			t.Errorf("failure reasoning = %q, want %q", results[1].Reasoning, "quota exhausted")
		}
		if !results[2].Success {
			t.Error("expected u3 to succeed despite the u2 failure")
		}
	})
}

// TestClassifyStageDrainIsolation tests that external cancellation does
// not reach in-flight classifications.
func TestClassifyStageDrainIsolation(t *testing.T) {
	t.Parallel()

	t.Run("completes the batch under a cancelled context", func(t *testing.T) {
		t.Parallel()

		detector := &stubClassifier{male: map[string]bool{"u1": true}}
		stage := NewClassifyStage(detector, 4, time.Minute, discardLogger())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results := stage.Run(ctx, fetchedProfiles("u1", "u2"))

		if len(detector.usernames()) != 2 {
			t.Fatalf("expected 2 Detect calls despite cancellation, got %d", len(detector.usernames()))
		}
		for i, verdict := range results {
			if !verdict.Success {
				t.Errorf("verdict[%d] failed under a cancelled parent: %s", i, verdict.Reasoning)
			}
		}
	})
}
