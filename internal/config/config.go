package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to match Instagram's observed tolerance for
// automated traffic and the Gemini API's rate limits where applicable.
const (
	// DefaultBatchSize of 100 usernames per fetch/classify/persist cycle
	// keeps checkpoint appends frequent enough that a crash loses at most
	// a couple of minutes of work, without paying the read-merge-write
	// cost of the checkpoint file for every username.
	DefaultBatchSize = 100

	// DefaultMaxConcurrentClassification caps in-flight classifier calls.
	// 50 stays comfortably inside Gemini's default requests-per-minute
	// quota while keeping the classification stage far from being the
	// bottleneck (profile fetching is).
	DefaultMaxConcurrentClassification = 50

	// DefaultFetchTimeout bounds a single profile lookup, including the
	// avatar download. Instagram responses through residential proxies
	// can be slow; 60 seconds tolerates that while guaranteeing a wedged
	// connection cannot stall its worker forever.
	DefaultFetchTimeout = 60 * time.Second

	// DefaultReferenceVolume is the target volume used for the
	// time-to-completion estimate printed after each run. Production
	// username dumps run around two million entries.
	DefaultReferenceVolume = 2_000_000

	// DefaultModel is the Gemini model used for gender classification.
	// The flash tier is cheap and fast, and the YES/NO task needs no
	// stronger reasoning.
	DefaultModel = "gemini-1.5-flash"

	// DefaultAcceptedFile is the append-only output list of accepted
	// usernames, relative to the working directory unless overridden.
	DefaultAcceptedFile = "male_usernames.txt"

	// DefaultCheckpointFile is the JSON checkpoint written after every
	// batch, relative to the working directory unless overridden.
	DefaultCheckpointFile = "checkpoint.json"

	// DefaultIdentitiesFile is the identity roster consulted when the
	// --identities flag is not given.
	DefaultIdentitiesFile = "identities.yaml"

	// DefaultUserAgent is the browser identity presented to Instagram.
	// The web profile endpoint rejects obviously non-browser agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// DefaultMaxBodySize limits the response body size read from any
	// endpoint, avatar downloads included. 5MB covers every legitimate
	// profile payload while preventing memory exhaustion from an
	// unexpected response.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "genderscan"

	// APIKeyEnv is the environment variable consulted for the Gemini API
	// key when --api-key is not given. A .env file in the working
	// directory is loaded at startup, so the key can live there too.
	APIKeyEnv = "GEMINI_API_KEY"
)

// Config holds all configuration options for a genderscan run.
// This struct is designed to be populated from CLI flags and an optional
// config file, then passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// InputPath is the newline-delimited username list to process.
	// Required.
	InputPath string

	// IdentitiesPath is the YAML roster of Instagram identities used for
	// profile fetching. The fetch stage runs one worker per identity.
	IdentitiesPath string

	// AcceptedPath is the append-only output file that accumulates
	// accepted usernames, one per line, across runs.
	AcceptedPath string

	// CheckpointPath is the JSON checkpoint file that makes runs
	// resumable. It is replaced atomically after every batch.
	CheckpointPath string

	// BatchSize is the number of usernames per fetch/classify/persist
	// cycle. Must be positive.
	BatchSize int

	// MaxConcurrentClassification caps in-flight classifier calls.
	// Independent of the identity count. Must be positive.
	MaxConcurrentClassification int

	// FetchTimeout bounds one profile lookup including the avatar
	// download. Applied per call, not per batch.
	FetchTimeout time.Duration

	// APIKey is the Gemini API key. Falls back to the GEMINI_API_KEY
	// environment variable when empty at flag-parsing time.
	APIKey string

	// Model is the Gemini model name used for classification.
	Model string

	// ReferenceVolume is the username volume used for the
	// time-to-completion estimate in the run summary. Zero disables the
	// estimate.
	ReferenceVolume int

	// ReclassifyNotMale opts previously rejected_not_male usernames back
	// into processing. Verdicts in the error family are always retried;
	// this flag additionally retries the one terminal status that a
	// better classifier might overturn.
	ReclassifyNotMale bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .genderscan in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the run report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// ArchiveDir is the directory path for storing the SQLite run
	// archive. Defaults to the XDG data directory
	// (~/.local/share/genderscan on Linux).
	ArchiveDir string

	// SaveToArchive indicates whether to mirror run results into the
	// archive database for the history command. The JSON checkpoint is
	// always written regardless.
	SaveToArchive bool

	// SessionDir is the directory where per-identity session cookies are
	// cached between runs. Defaults to the XDG state directory
	// (~/.local/state/genderscan/sessions on Linux).
	SessionDir string

	// UserAgent is the User-Agent header sent with Instagram requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory
	// exhaustion. Set to 0 to use the default (5MB).
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., batch size,
// timeout). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		IdentitiesPath:              DefaultIdentitiesFile,
		AcceptedPath:                DefaultAcceptedFile,
		CheckpointPath:              DefaultCheckpointFile,
		BatchSize:                   DefaultBatchSize,
		MaxConcurrentClassification: DefaultMaxConcurrentClassification,
		FetchTimeout:                DefaultFetchTimeout,
		Model:                       DefaultModel,
		ReferenceVolume:             DefaultReferenceVolume,
		ArchiveDir:                  XDGDataDir(),
		SaveToArchive:               true,
		SessionDir:                  DefaultSessionDir(),
		UserAgent:                   DefaultUserAgent,
		MaxBodySize:                 DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for genderscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/genderscan
// On macOS: ~/Library/Application Support/genderscan
// On Windows: %LOCALAPPDATA%\genderscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGStateDir returns the XDG state directory for genderscan.
// Session cookies live here: they are mutable machine-local state, not
// data worth backing up.
// On Linux: ~/.local/state/genderscan
func XDGStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultSessionDir returns the default directory for cached identity
// sessions.
func DefaultSessionDir() string {
	return filepath.Join(XDGStateDir(), "sessions")
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any work begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have an input list to process
	if c.InputPath == "" {
		return ErrNoInput
	}

	// The fetch stage cannot exist without identities
	if c.IdentitiesPath == "" {
		return ErrNoIdentities
	}

	// Both persistence paths must be set; defaults guarantee this unless
	// the user explicitly blanks them
	if c.AcceptedPath == "" {
		return ErrNoAcceptedPath
	}
	if c.CheckpointPath == "" {
		return ErrNoCheckpointPath
	}

	// BatchSize must be positive; zero would mean no progress
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// The classification ceiling must be positive; zero would deadlock
	// the classification stage
	if c.MaxConcurrentClassification <= 0 {
		return ErrInvalidConcurrency
	}

	// FetchTimeout must be positive; zero would fail every fetch instantly
	if c.FetchTimeout <= 0 {
		return ErrInvalidFetchTimeout
	}

	// Classification cannot run without an API key
	if c.APIKey == "" {
		return ErrNoAPIKey
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// ReferenceVolume must be non-negative; zero disables the estimate
	if c.ReferenceVolume < 0 {
		return ErrInvalidReferenceVolume
	}

	// MaxBodySize must be non-negative if set
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
