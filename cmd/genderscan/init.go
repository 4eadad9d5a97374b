package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HansBhatia/genderscan/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/genderscan.yaml templates/identities.yaml
var configTemplates embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and identity roster files",
		Long: `Initialize creates a .genderscan configuration file and an
identities.yaml roster template in the current directory.

The configuration file documents every available option with its
default. The roster template documents the identity fields and is
created with owner-only permissions because it will hold credentials.

Examples:
  # Create .genderscan and identities.yaml in the current directory
  genderscan init

  # Create the files at specific paths
  genderscan init -o myconfig.yaml --identities accounts.yaml

  # Force overwrite existing files
  genderscan init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().String("identities", config.DefaultIdentitiesFile,
		"Output file path for the identity roster template")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	identitiesPath, err := cmd.Flags().GetString("identities")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeTemplate("templates/genderscan.yaml", outputPath, force); err != nil {
		return err
	}
	fmt.Printf("Created configuration file: %s\n", outputPath)

	if err := writeTemplate("templates/identities.yaml", identitiesPath, force); err != nil {
		return err
	}
	fmt.Printf("Created identity roster template: %s\n", identitiesPath)

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Add at least one Instagram account to %s\n", identitiesPath)
	fmt.Println("  2. Put your Gemini API key in the GEMINI_API_KEY environment variable")
	fmt.Println("  3. Run 'genderscan run --input <username list>'")

	return nil
}

// writeTemplate writes one embedded template to dst, creating parent
// directories as needed. Both files get owner-only permissions: the
// roster holds credentials and the config may name private file paths.
func writeTemplate(src, dst string, force bool) error {
	// Check if file already exists
	if !force {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", dst)
		}
	}

	content, err := configTemplates.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(dst)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(dst, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}

	return nil
}
