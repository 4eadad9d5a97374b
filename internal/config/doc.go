// Package config provides configuration structures and utilities for genderscan.
// It defines the main configuration options for the classification pipeline,
// identity and persistence paths, and report generation preferences.
package config
