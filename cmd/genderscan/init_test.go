package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/HansBhatia/genderscan/internal/config"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "init" {
			t.Errorf("expected use 'init', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultConfigFile {
			t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
		}
	})

	t.Run("has identities flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("identities")
		if flag == nil {
			t.Fatal("expected identities flag")
		}
		if flag.DefValue != config.DefaultIdentitiesFile {
			t.Errorf("expected default %q, got %q", config.DefaultIdentitiesFile, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Run("creates config and roster files", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".genderscan")
		rosterPath := filepath.Join(tmpDir, "identities.yaml")

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", configPath, "--identities", rosterPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		configContent, err := os.ReadFile(configPath)
		if err != nil {
			t.Fatalf("failed to read config file: %v", err)
		}
		if !strings.Contains(string(configContent), "batchSize") {
			t.Error("expected config template to document 'batchSize'")
		}
		if !strings.Contains(string(configContent), "fetchTimeout") {
			t.Error("expected config template to document 'fetchTimeout'")
		}

		rosterContent, err := os.ReadFile(rosterPath)
		if err != nil {
			t.Fatalf("failed to read roster file: %v", err)
		}
		if !strings.Contains(string(rosterContent), "identities:") {
			t.Error("expected roster template to contain 'identities:'")
		}
	})

	t.Run("fails if config file exists without force", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".genderscan")
		rosterPath := filepath.Join(tmpDir, "identities.yaml")

		if err := os.WriteFile(configPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", configPath, "--identities", rosterPath})

		err := cmd.Execute()
		if err == nil {
			t.Error("expected error when file exists")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected 'already exists' error, got %v", err)
		}
	})

	t.Run("fails if roster file exists without force", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".genderscan")
		rosterPath := filepath.Join(tmpDir, "identities.yaml")

		if err := os.WriteFile(rosterPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", configPath, "--identities", rosterPath})

		err := cmd.Execute()
		if err == nil {
			t.Error("expected error when roster file exists")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected 'already exists' error, got %v", err)
		}
	})

	t.Run("overwrites files with force flag", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".genderscan")
		rosterPath := filepath.Join(tmpDir, "identities.yaml")

		if err := os.WriteFile(configPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
		if err := os.WriteFile(rosterPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", configPath, "--identities", rosterPath, "-f"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(content) == "existing" {
			t.Error("expected config file to be overwritten")
		}

		content, err = os.ReadFile(rosterPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(content) == "existing" {
			t.Error("expected roster file to be overwritten")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "subdir", "nested", ".genderscan")
		rosterPath := filepath.Join(tmpDir, "subdir", "nested", "identities.yaml")

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", configPath, "--identities", rosterPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			t.Error("expected config file to be created in nested directory")
		}
	})

	t.Run("files have correct permissions", func(t *testing.T) {
		// Skip on Windows as it doesn't support Unix-style file permissions
		if runtime.GOOS == "windows" {
			t.Skip("skipping permission test on Windows")
		}

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".genderscan")
		rosterPath := filepath.Join(tmpDir, "identities.yaml")

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", configPath, "--identities", rosterPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, path := range []string{configPath, rosterPath} {
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("failed to stat %s: %v", path, err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("expected permissions 0600 on %s, got %o", path, perm)
			}
		}
	})
}

// TestConfigTemplates tests the embedded templates.
func TestConfigTemplates(t *testing.T) {
	t.Parallel()

	configContent, err := configTemplates.ReadFile("templates/genderscan.yaml")
	if err != nil {
		t.Fatalf("failed to read config template: %v", err)
	}
	rosterContent, err := configTemplates.ReadFile("templates/identities.yaml")
	if err != nil {
		t.Fatalf("failed to read roster template: %v", err)
	}

	t.Run("config template is not empty", func(t *testing.T) {
		t.Parallel()
		if len(configContent) == 0 {
			t.Error("expected non-empty config template")
		}
	})

	t.Run("config template documents every file key", func(t *testing.T) {
		t.Parallel()
		str := string(configContent)
		for _, key := range []string{
			"input", "identities", "acceptedOutput", "checkpoint",
			"batchSize", "maxConcurrentClassification", "fetchTimeout",
			"model", "referenceVolume", "archiveDir", "sessionDir", "userAgent",
		} {
			if !strings.Contains(str, key) {
				t.Errorf("expected config template to document %q", key)
			}
		}
	})

	t.Run("config template keeps the API key out", func(t *testing.T) {
		t.Parallel()
		if strings.Contains(string(configContent), "apiKey:") {
			t.Error("config template must not offer an apiKey key")
		}
	})

	t.Run("roster template documents the identity fields", func(t *testing.T) {
		t.Parallel()
		str := string(rosterContent)
		for _, key := range []string{
			"id", "username", "password", "proxy", "otpSeed", "minDelay", "maxDelay",
		} {
			if !strings.Contains(str, key) {
				t.Errorf("expected roster template to document %q", key)
			}
		}
	})

	t.Run("templates contain documentation comments", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(string(configContent), "#") {
			t.Error("expected config template to contain documentation comments")
		}
		if !strings.Contains(string(rosterContent), "#") {
			t.Error("expected roster template to contain documentation comments")
		}
	})
}
