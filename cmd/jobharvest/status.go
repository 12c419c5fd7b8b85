package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/nao1215/jobharvest/internal/database"
	"github.com/nao1215/jobharvest/internal/model"
	"github.com/nao1215/jobharvest/internal/report"
	"github.com/nao1215/jobharvest/internal/state"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved progress of earlier crawls",
		Long: `Status prints the run state saved by the last crawl: how many records have
been saved so far and the statistics of that run. When the SQLite database
exists, the number of stored postings and URL stubs is shown as well.

Examples:
  # Show the state saved in the default database
  jobharvest status

  # Show the state kept in a JSON file as Markdown
  jobharvest status --state file --state-file ./state.json --format markdown

  # List the 10 most recently scraped postings
  jobharvest status --recent 10`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	addStorageFlags(cmd)
	cmd.Flags().StringP("format", "f", config.DefaultReportFormat,
		"Output format: text, json or markdown")
	cmd.Flags().Int("recent", 0,
		"Also list this many of the most recently scraped postings")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if err := applyStorageFlags(cmd, cfg); err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	recent, err := cmd.Flags().GetInt("recent")
	if err != nil {
		return err
	}

	return showStatus(cmd.Context(), cmd.OutOrStdout(), cfg, format, recent)
}

// showStatus loads the persisted state and writes it in the given format.
func showStatus(ctx context.Context, out io.Writer, cfg *config.Config, format string, recent int) (err error) {
	w, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}

	// Only read an existing database; status never creates one.
	var db *database.CrawlDB
	if _, statErr := os.Stat(filepath.Join(cfg.DataDir, database.FileName)); statErr == nil {
		db, err = database.Open(cfg.DataDir, database.Options{})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { err = errors.Join(err, db.Close()) }()
	}

	var st model.RunState
	found := false
	if cfg.StateBackend != config.StateSQLite || db != nil {
		var store state.Store
		store, err = state.Open(cfg, db)
		if err != nil {
			return fmt.Errorf("failed to open %s state store: %w", cfg.StateBackend, err)
		}
		defer func() { err = errors.Join(err, store.Close()) }()

		st, found, err = store.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load run state: %w", err)
		}
	}

	if !found && db == nil {
		fmt.Fprintln(out, "No saved run state. Run 'jobharvest crawl' first.")
		return nil
	}

	summary := report.FromState(st)
	if db != nil {
		counts, err := db.CountRecords(ctx)
		if err != nil {
			return err
		}
		summary.Dataset = &report.DatasetCounts{Jobs: counts.Jobs, Stubs: counts.Stubs}
	}

	if _, err := w.Write(summary); err != nil {
		return err
	}

	if recent > 0 && db != nil {
		jobs, err := db.ListJobs(ctx, recent)
		if err != nil {
			return err
		}
		return writeRecent(out, jobs)
	}
	return nil
}

// writeRecent prints one block per posting.
func writeRecent(out io.Writer, jobs []*model.JobPosting) error {
	var sb strings.Builder
	sb.WriteString("Recent postings:\n")
	if len(jobs) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, j := range jobs {
		title := j.Title
		if title == "" {
			title = "(untitled)"
		}
		sb.WriteString(fmt.Sprintf("  - %s", title))
		if j.Company != "" {
			sb.WriteString(" @ " + j.Company)
		}
		if j.Location != "" {
			sb.WriteString(" (" + j.Location + ")")
		}
		sb.WriteString("\n    " + j.URL + "\n")
	}
	_, err := io.WriteString(out, sb.String())
	return err
}
