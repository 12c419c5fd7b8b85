package main

import (
	"fmt"
	"os"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for jobharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobharvest",
		Short: "Job posting crawler for the xing.com job board",
		Long: `jobharvest crawls job postings from the xing.com job board.

It expands search result pages into posting pages, extracts title, company,
location, salary and description from each posting, and stops once the
requested number of records has been saved. Blocking responses slow the
crawl down and rotate the client identity.

Progress is persisted, so a later run continues counting from where the
previous one stopped.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", config.LogText, "Log format: text or json")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Input file path (default: "+config.DefaultConfigFile+" in current, config or home directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewStatusCmd())
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

// persistentString reads a persistent flag from the command or its root.
func persistentString(cmd *cobra.Command, name string) string {
	if v, err := cmd.Flags().GetString(name); err == nil {
		return v
	}
	v, err := cmd.Root().PersistentFlags().GetString(name)
	if err != nil {
		return ""
	}
	return v
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
