package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/logscrub/internal/config"
	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/report"
	"github.com/nao1215/logscrub/internal/store"
)

// defaultErrorsLimit is the number of archived records listed by default.
const defaultErrorsLimit = 50

// NewErrorsCmd creates the errors command.
func NewErrorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "List archived error records",
		Long: `Errors lists the error records archived by "logscrub scrub --save".

Records are already sanitized. Identical records are stored once with an
occurrence count, most recently seen first.

Examples:
  # List the latest archived errors
  logscrub errors

  # Only fatal records from one input, as Markdown
  logscrub errors --level fatal --source renovate.log --markdown

  # Drop records not seen for 30 days
  logscrub errors --purge 720h`,
		Args: cobra.NoArgs,
		RunE: runErrorsCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the error archive database")
	cmd.Flags().IntP("limit", "l", defaultErrorsLimit,
		"Maximum number of records to list (0 for all)")
	cmd.Flags().String("level", record.LevelName(record.LevelError),
		"Lowest level listed")
	cmd.Flags().String("source", "",
		"Only list records captured from this input")
	cmd.Flags().Duration("purge", 0,
		"Delete records not seen within this duration instead of listing")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runErrorsCmd executes the errors command.
func runErrorsCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	levelName, err := flags.GetString("level")
	if err != nil {
		return err
	}
	source, err := flags.GetString("source")
	if err != nil {
		return err
	}
	purge, err := flags.GetDuration("purge")
	if err != nil {
		return err
	}
	jsonFormat, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownFormat, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}

	if jsonFormat && markdownFormat {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}
	level, ok := record.ParseLevel(levelName)
	if !ok {
		return fmt.Errorf("%w: %q", config.ErrInvalidCaptureLevel, levelName)
	}

	opts := store.DefaultOptions()
	opts.CreateIfNotExists = false
	archive, err := store.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database (run \"logscrub scrub --save\" first): %w", err)
	}
	defer archive.Close()

	ctx := cmd.Context()
	if purge > 0 {
		n, err := archive.Purge(ctx, purge)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d record(s)\n", n)
		return nil
	}

	entries, err := archive.List(ctx, store.ListOptions{
		MinLevel: level,
		Source:   source,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	w := newReportWriter(cmd.OutOrStdout(), jsonFormat, markdownFormat, getVerboseFlag(cmd))
	_, err = w.Write(report.FromEntries(entries))
	return err
}
