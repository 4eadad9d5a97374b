package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/HansBhatia/genderscan/internal/archive"
	"github.com/HansBhatia/genderscan/internal/checkpoint"
	"github.com/HansBhatia/genderscan/internal/classifier"
	"github.com/HansBhatia/genderscan/internal/config"
	"github.com/HansBhatia/genderscan/internal/identity"
	"github.com/HansBhatia/genderscan/internal/instagram"
	"github.com/HansBhatia/genderscan/internal/log"
	"github.com/HansBhatia/genderscan/internal/model"
	"github.com/HansBhatia/genderscan/internal/pipeline"
	"github.com/HansBhatia/genderscan/internal/report"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a username list through the classification pipeline",
		Long: `Run processes a newline-delimited list of Instagram usernames.

Each username passes through three stages:
- Local filters reject gibberish and business-looking handles for free
- Remaining profiles are fetched through a pool of logged-in identities
- Gemini classifies each fetched name and avatar as male or not

Progress is written to a JSON checkpoint after every batch, so Ctrl+C
finishes the current batch, saves, and exits; the next run picks up the
unprocessed remainder. Accepted usernames are appended to a plain-text
list as they are found.

Examples:
  # Process a username list with the default settings
  genderscan run --input usernames.txt

  # Use a specific identity roster and a smaller batch size
  genderscan run --input usernames.txt --identities accounts.yaml --batch 50

  # Re-examine usernames previously classified as not male
  genderscan run --input usernames.txt --reclassify-not-male

  # Write a Markdown report to a file
  genderscan run --input usernames.txt --markdown --output reports/run.md

  # Use a custom configuration file
  genderscan run -c myconfig.yaml --input usernames.txt

Configuration file (.genderscan) example:
  input: usernames.txt
  identities: identities.yaml
  batchSize: 100
  fetchTimeout: 60s
  model: gemini-1.5-flash`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	// Input and persistence flags
	cmd.Flags().StringP("input", "i", "",
		"Newline-delimited username list to process")
	cmd.Flags().StringP("identities", "I", config.DefaultIdentitiesFile,
		"YAML roster of Instagram identities to fetch with")
	cmd.Flags().StringP("accepted", "a", config.DefaultAcceptedFile,
		"Append-only output list of accepted male usernames")
	cmd.Flags().StringP("checkpoint", "C", config.DefaultCheckpointFile,
		"JSON checkpoint file for crash-safe resumption")

	// Pipeline behavior flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Usernames per batch (progress is saved at batch boundaries)")
	cmd.Flags().IntP("max-ai", "M", config.DefaultMaxConcurrentClassification,
		"Maximum concurrent classification calls")
	cmd.Flags().DurationP("fetch-timeout", "t", config.DefaultFetchTimeout,
		"Timeout for one profile fetch")
	cmd.Flags().Bool("reclassify-not-male", false,
		"Re-examine usernames previously classified as not male")

	// Classifier flags
	cmd.Flags().String("api-key", "",
		"Gemini API key (defaults to the GEMINI_API_KEY environment variable)")
	cmd.Flags().String("model", config.DefaultModel,
		"Gemini model used for classification")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .genderscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Int("reference-volume", config.DefaultReferenceVolume,
		"Username volume for the completion estimate in the text report (0 disables it)")

	// Archive flags
	cmd.Flags().Bool("no-archive", false,
		"Skip mirroring the run into the history archive")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	// Build config from the config file and flags
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for a graceful drain
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A shutdown signal drains: the in-flight batch completes, progress
	// is checkpointed, then the run stops.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, draining at the batch boundary")
		fmt.Fprintln(os.Stderr, "\nStopping after the current batch; progress is saved.")
		cancel()
	}()

	return runPipeline(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the config file and cobra flags.
// Precedence: built-in defaults < config file < explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the config file before flags so flags win.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently continue without one.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.ApplyTo(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if err := applyStringFlag(cmd, "input", &cfg.InputPath); err != nil {
		return nil, err
	}
	if err := applyStringFlag(cmd, "identities", &cfg.IdentitiesPath); err != nil {
		return nil, err
	}
	if err := applyStringFlag(cmd, "accepted", &cfg.AcceptedPath); err != nil {
		return nil, err
	}
	if err := applyStringFlag(cmd, "checkpoint", &cfg.CheckpointPath); err != nil {
		return nil, err
	}
	if err := applyIntFlag(cmd, "batch", &cfg.BatchSize); err != nil {
		return nil, err
	}
	if err := applyIntFlag(cmd, "max-ai", &cfg.MaxConcurrentClassification); err != nil {
		return nil, err
	}
	if err := applyDurationFlag(cmd, "fetch-timeout", &cfg.FetchTimeout); err != nil {
		return nil, err
	}
	if err := applyStringFlag(cmd, "model", &cfg.Model); err != nil {
		return nil, err
	}
	if err := applyIntFlag(cmd, "reference-volume", &cfg.ReferenceVolume); err != nil {
		return nil, err
	}

	// The API key comes from the flag or the environment, never the
	// config file: secrets do not belong in a file meant to be shared.
	cfg.APIKey, err = cmd.Flags().GetString("api-key")
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(config.APIKeyEnv)
	}

	cfg.ReclassifyNotMale, err = cmd.Flags().GetBool("reclassify-not-male")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noArchive, err := cmd.Flags().GetBool("no-archive")
	if err != nil {
		return nil, err
	}
	cfg.SaveToArchive = !noArchive

	return cfg, nil
}

// applyStringFlag copies a string flag into dst only when the user set
// it, so config-file values survive unset flags.
func applyStringFlag(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// applyIntFlag copies an int flag into dst only when the user set it.
func applyIntFlag(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// applyDurationFlag copies a duration flag into dst only when the user
// set it.
func applyDurationFlag(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The secure handler masks passwords, OTP seeds, and API keys before
// they can reach the terminal.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// runPipeline wires the pipeline from the config and executes it.
func runPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	roster, err := identity.LoadRoster(cfg.IdentitiesPath)
	if err != nil {
		return fmt.Errorf("failed to load identity roster: %w", err)
	}

	logger.Info("identity roster loaded",
		slog.Int("identities", roster.Size()),
		slog.String("path", cfg.IdentitiesPath))

	fmt.Printf("Preparing %d Instagram session(s)...\n", roster.Size())

	pool, err := instagram.NewPool(ctx, cfg, roster, logger)
	if err != nil {
		return fmt.Errorf("failed to prepare sessions: %w", err)
	}
	defer func() {
		// Closing persists session cookies for the next run.
		if err := pool.Close(); err != nil {
			logger.Error("failed to close session pool", slog.String("error", err.Error()))
		}
	}()

	detector, err := classifier.NewGemini(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}
	defer detector.Close()

	fetchers := make([]pipeline.Fetcher, 0, pool.Size())
	for i := 0; i < pool.Size(); i++ {
		fetchers = append(fetchers, pool.Session(i))
	}

	store := checkpoint.New(cfg.CheckpointPath, cfg.AcceptedPath, cfg.ReclassifyNotMale, logger)
	fetchStage := pipeline.NewFetchStage(fetchers, cfg.FetchTimeout, logger)
	classifyStage := pipeline.NewClassifyStage(detector, cfg.MaxConcurrentClassification, cfg.FetchTimeout, logger)

	opts := []pipeline.RunnerOption{pipeline.WithLogger(logger)}
	if cfg.SaveToArchive {
		// The archive is a best-effort mirror; a run proceeds without it.
		mirror, err := archive.Open(cfg.ArchiveDir, archive.DefaultOptions())
		if err != nil {
			logger.Warn("archive unavailable, continuing without it",
				slog.String("error", err.Error()))
		} else {
			defer mirror.Close()
			opts = append(opts, pipeline.WithArchive(mirror))
		}
	}

	runner := pipeline.NewRunner(cfg, store, fetchStage, classifyStage, opts...)

	fmt.Printf("Processing %s...\n\n", cfg.InputPath)

	summary, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if err := outputReport(cfg, summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if summary.MaleFound > 0 {
		fmt.Printf("\nAccepted usernames appended to %s\n", cfg.AcceptedPath)
	}

	return nil
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, summary *model.RunSummary) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with owner-only permissions;
		// run reports reference the operator's username lists.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (version-stamped envelope around the full summary)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(summary)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(summary)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithProjection(cfg.ReferenceVolume))
	_, err := writer.Write(summary)
	return err
}
