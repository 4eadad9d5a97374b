package checkpoint

import "errors"

var (
	// ErrCorrupt is returned when the checkpoint file exists but cannot
	// be decoded. The store never silently discards history: a corrupt
	// file needs an operator decision, not an overwrite.
	ErrCorrupt = errors.New("checkpoint: corrupt checkpoint file")

	// ErrPersist is returned when checkpoint or accepted-list state
	// could not be written. Persistence failures abort the run; carrying
	// on would reprocess (and re-bill) everything after the failure.
	ErrPersist = errors.New("checkpoint: persist failed")
)
