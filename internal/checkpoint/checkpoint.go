package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/HansBhatia/genderscan/internal/model"
)

// Store reads and writes the checkpoint file and the accepted list.
type Store struct {
	// path is the checkpoint JSON file.
	path string

	// acceptedPath is the newline-delimited accepted usernames file.
	acceptedPath string

	// retryNotMale widens resumption: when set, usernames whose latest
	// verdict was rejected_not_male are offered to the pipeline again.
	retryNotMale bool

	logger *slog.Logger
}

// New returns a store over the given files. Nothing is read or created
// until the first operation.
func New(path, acceptedPath string, retryNotMale bool, logger *slog.Logger) *Store {
	return &Store{
		path:         path,
		acceptedPath: acceptedPath,
		retryNotMale: retryNotMale,
		logger:       logger,
	}
}

// Cumulative aggregates the full record history across every run that
// ever wrote to this checkpoint.
type Cumulative struct {
	// TotalResults is the total number of records in the checkpoint.
	TotalResults int `json:"total_results"`

	// TotalMale is the number of accepted_male records.
	TotalMale int `json:"total_male"`

	// ByStatus is the per-status record count.
	ByStatus map[model.Status]int `json:"by_status,omitempty"`
}

// Snapshot is the decoded checkpoint content.
type Snapshot struct {
	// LastRun is the summary of the most recent run, nil for a fresh
	// checkpoint.
	LastRun *model.RunSummary

	// Cumulative aggregates all records.
	Cumulative Cumulative

	// Records is the full append-only record history, oldest first.
	Records []model.RunRecord
}

// fileState is the on-disk layout.
type fileState struct {
	Summary struct {
		LastRun    *model.RunSummary `json:"last_run,omitempty"`
		Cumulative Cumulative        `json:"cumulative"`
	} `json:"summary"`
	Results []model.RunRecord `json:"results"`
}

// Load reads the checkpoint. A missing file is an empty store, not an
// error; an undecodable file is ErrCorrupt because overwriting history
// that merely failed to parse would throw away paid-for work.
func (s *Store) Load() (*Snapshot, error) {
	state, err := s.load()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		LastRun:    state.Summary.LastRun,
		Cumulative: state.Summary.Cumulative,
		Records:    state.Results,
	}, nil
}

func (s *Store) load() (*fileState, error) {
	var state fileState

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", s.path, err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrCorrupt, s.path, err)
	}
	return &state, nil
}

// AlreadyProcessed returns the usernames that need no further work: those
// whose most recent record carries a terminal status. Usernames whose
// latest attempt errored are absent from the set so the next run retries
// them. With retryNotMale set, rejected_not_male also counts as
// unsettled.
func (s *Store) AlreadyProcessed() (map[string]struct{}, error) {
	state, err := s.load()
	if err != nil {
		return nil, err
	}

	// Records are append-only and oldest-first, so the last write per
	// username wins.
	latest := make(map[string]model.Status, len(state.Results))
	for _, r := range state.Results {
		latest[r.Username] = r.Status
	}

	settled := make(map[string]struct{}, len(latest))
	for username, status := range latest {
		if !status.Terminal() {
			continue
		}
		if s.retryNotMale && status == model.StatusRejectedNotMale {
			continue
		}
		settled[username] = struct{}{}
	}
	return settled, nil
}

// Append merges new records into the checkpoint and atomically replaces
// the file. History is never rewritten: records are appended after
// everything already there, the cumulative block is recomputed over the
// merged history, and lastRun replaces the previous run summary.
func (s *Store) Append(records []model.RunRecord, lastRun *model.RunSummary) error {
	state, err := s.load()
	if err != nil {
		return err
	}

	state.Results = append(state.Results, records...)
	state.Summary.LastRun = lastRun
	state.Summary.Cumulative = recompute(state.Results)

	if err := s.writeAtomic(state); err != nil {
		return err
	}

	s.logger.Debug("checkpoint appended",
		slog.Int("new_records", len(records)),
		slog.Int("total_records", state.Summary.Cumulative.TotalResults))
	return nil
}

// recompute rebuilds the cumulative block from the full history.
func recompute(records []model.RunRecord) Cumulative {
	cum := Cumulative{ByStatus: make(map[model.Status]int)}
	for _, r := range records {
		cum.TotalResults++
		cum.ByStatus[r.Status]++
		if r.Status.Accepted() {
			cum.TotalMale++
		}
	}
	return cum
}

// writeAtomic writes the state to a temp file in the checkpoint's
// directory, syncs it, and renames it over the target. Readers and
// crash recovery only ever see a complete file.
func (s *Store) writeAtomic(state *fileState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s", ErrPersist, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPersist, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after successful rename

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encode: %s", ErrPersist, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync: %s", ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %s", ErrPersist, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: rename: %s", ErrPersist, err)
	}
	return nil
}

// AppendAccepted appends usernames to the accepted list, one per line,
// in the order given. The file is opened O_APPEND and never truncated,
// so earlier runs' lines survive everything short of operator deletion.
func (s *Store) AppendAccepted(usernames []string) error {
	if len(usernames) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.acceptedPath), 0o755); err != nil {
		return fmt.Errorf("%w: %s", ErrPersist, err)
	}

	f, err := os.OpenFile(s.acceptedPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPersist, err)
	}

	for _, username := range usernames {
		if _, err := f.WriteString(username + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("%w: %s", ErrPersist, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s", ErrPersist, err)
	}
	return nil
}
