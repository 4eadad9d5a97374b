package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration. Every one of
// them is fatal: the pipeline refuses to start rather than degrade.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoInput is returned when no input username list is specified.
	ErrNoInput = errors.New("no input specified: provide a username list with --input")

	// ErrNoIdentities is returned when the identity roster path is empty.
	// At least one identity is required to run the fetch stage.
	ErrNoIdentities = errors.New("no identity roster specified: provide one with --identities")

	// ErrNoAcceptedPath is returned when the accepted output path is blank.
	ErrNoAcceptedPath = errors.New("no accepted output path: provide one with --accepted")

	// ErrNoCheckpointPath is returned when the checkpoint path is blank.
	// Without a checkpoint the pipeline cannot resume and would reprocess
	// everything on every run.
	ErrNoCheckpointPath = errors.New("no checkpoint path: provide one with --checkpoint")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no usernames per cycle, effectively
	// stopping the pipeline.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidConcurrency is returned when the classification
	// concurrency ceiling is not positive. A ceiling of zero would
	// deadlock the classification stage.
	ErrInvalidConcurrency = errors.New("invalid classification concurrency: must be positive")

	// ErrInvalidFetchTimeout is returned when the fetch timeout is not
	// positive. A zero timeout would fail every profile lookup instantly.
	ErrInvalidFetchTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrNoAPIKey is returned when no Gemini API key is available from
	// either the --api-key flag or the GEMINI_API_KEY environment variable.
	ErrNoAPIKey = errors.New("no API key: set GEMINI_API_KEY or use --api-key")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidReferenceVolume is returned when the reference volume for
	// the completion estimate is negative. Use 0 to disable the estimate.
	ErrInvalidReferenceVolume = errors.New("invalid reference volume: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
