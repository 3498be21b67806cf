package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/htmlint/internal/schemas"
)

func init() {
	rootCmd.AddCommand(newCheckReportCommand())
}

func newCheckReportCommand() *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "check-report <report.json>",
		Short: "Validate a report file against the report JSON schema",
		Long:  "Validates an htmlint report file against the embedded report schema, or against the schema given with --schema.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportPath := args[0]
			out := cmd.OutOrStdout()

			var err error
			if schemaPath != "" {
				err = schemas.ValidateJSON(schemaPath, reportPath)
			} else {
				err = schemas.ValidateReportFile(reportPath)
			}
			if err != nil {
				var validationErr *schemas.ValidationError
				if errors.As(err, &validationErr) {
					_, _ = fmt.Fprintf(out, "Validation failed: %s\n", reportPath)
					_, _ = fmt.Fprint(out, validationErr.Error())
				}
				return err
			}

			_, _ = fmt.Fprintf(out, "Validation passed: %s\n", reportPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "Path to a JSON Schema file (defaults to the embedded report schema)")

	return cmd
}
