package config

import (
	"fmt"
	"time"
)

// File represents the structure of the .genderscan configuration file.
// Every field is optional; a present field overrides the built-in default
// and is in turn overridden by an explicit CLI flag.
//
// Design decision: durations are YAML strings ("60s", "2m") parsed with
// time.ParseDuration rather than raw integers, so the file reads the same
// way the flags do.
type File struct {
	// Input is the newline-delimited username list to process.
	Input string `yaml:"input,omitempty"`

	// Identities is the YAML identity roster path.
	Identities string `yaml:"identities,omitempty"`

	// AcceptedOutput is the append-only accepted username list path.
	AcceptedOutput string `yaml:"acceptedOutput,omitempty"`

	// Checkpoint is the JSON checkpoint file path.
	Checkpoint string `yaml:"checkpoint,omitempty"`

	// BatchSize is the number of usernames per pipeline cycle.
	BatchSize int `yaml:"batchSize,omitempty"`

	// MaxConcurrentClassification caps in-flight classifier calls.
	MaxConcurrentClassification int `yaml:"maxConcurrentClassification,omitempty"`

	// FetchTimeout bounds one profile lookup ("60s", "2m").
	FetchTimeout string `yaml:"fetchTimeout,omitempty"`

	// Model is the Gemini model name.
	Model string `yaml:"model,omitempty"`

	// ReferenceVolume is the username volume for the completion estimate.
	ReferenceVolume int `yaml:"referenceVolume,omitempty"`

	// ArchiveDir overrides the run archive directory.
	ArchiveDir string `yaml:"archiveDir,omitempty"`

	// SessionDir overrides the session cache directory.
	SessionDir string `yaml:"sessionDir,omitempty"`

	// UserAgent overrides the User-Agent header sent to Instagram.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// ApplyTo overlays the file's present fields onto c. Zero-valued fields
// are skipped so the file only overrides what it mentions.
func (f *File) ApplyTo(c *Config) error {
	if f.Input != "" {
		c.InputPath = f.Input
	}
	if f.Identities != "" {
		c.IdentitiesPath = f.Identities
	}
	if f.AcceptedOutput != "" {
		c.AcceptedPath = f.AcceptedOutput
	}
	if f.Checkpoint != "" {
		c.CheckpointPath = f.Checkpoint
	}
	if f.BatchSize != 0 {
		c.BatchSize = f.BatchSize
	}
	if f.MaxConcurrentClassification != 0 {
		c.MaxConcurrentClassification = f.MaxConcurrentClassification
	}
	if f.FetchTimeout != "" {
		d, err := time.ParseDuration(f.FetchTimeout)
		if err != nil {
			return fmt.Errorf("parse fetchTimeout: %w", err)
		}
		c.FetchTimeout = d
	}
	if f.Model != "" {
		c.Model = f.Model
	}
	if f.ReferenceVolume != 0 {
		c.ReferenceVolume = f.ReferenceVolume
	}
	if f.ArchiveDir != "" {
		c.ArchiveDir = f.ArchiveDir
	}
	if f.SessionDir != "" {
		c.SessionDir = f.SessionDir
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	return nil
}
