// Package main provides the htmlint command line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "htmlint",
	Short: "HTML conformance linter for pages and templates",
	Long: `htmlint submits HTML pages and template fragments to the Nu HTML checker,
drops the messages that are expected for the configured template dialect and
writes a JSON report of the files that still fail.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Lint failures have already been printed
		if !errors.Is(err, errLintFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
