// Package main provides the entry point for the genderscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for genderscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genderscan",
		Short: "Classify Instagram usernames by probable gender",
		Long: `genderscan classifies large Instagram username lists by probable gender.

Each username passes through three stages: cheap linguistic filters that
reject gibberish and business accounts locally, a profile fetch through a
pool of logged-in Instagram identities, and a Gemini classification of the
profile name and avatar. Progress is checkpointed after every batch, so an
interrupted run resumes where it left off.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
