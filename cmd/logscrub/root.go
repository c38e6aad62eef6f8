package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for logscrub.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logscrub",
		Short: "Remove secrets from NDJSON log files",
		Long: `logscrub sanitizes newline-delimited JSON logs before they are shared.

Secret fields (token, password, npmToken, ...) are masked, large content
fields and binary values are elided, and credentials embedded in
strings (URL passwords, bearer tokens, private keys) are redacted.

Error-level records can be reported and archived in a local database
for later review with "logscrub errors".`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScrubCmd())
	cmd.AddCommand(NewErrorsCmd())
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
