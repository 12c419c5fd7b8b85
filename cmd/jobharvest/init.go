package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/jobharvest.yaml
var inputTemplate embed.FS

const templatePath = "templates/jobharvest.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a jobharvest input file",
		Long: `Init writes a commented ` + config.DefaultConfigFile + ` input file to the current directory.

The generated file covers:
- The search keyword, location and discipline
- How many records to save and how many result pages to follow
- Explicit seed URLs
- Proxy settings

Examples:
  # Create .jobharvest.yaml in current directory
  jobharvest init

  # Create the input file at a specific path
  jobharvest init -o searches/berlin.yaml

  # Force overwrite existing file
  jobharvest init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the input file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing input file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("input file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := inputTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read input template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Proxy URLs may carry credentials.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write input file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created input file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to set:")
	fmt.Fprintln(out, "  - The search keyword and location")
	fmt.Fprintln(out, "  - The number of records to save")
	fmt.Fprintln(out, "  - Proxies for larger crawls")
	fmt.Fprintf(out, "\nThen run: jobharvest crawl -c %s\n", outputPath)

	return nil
}
