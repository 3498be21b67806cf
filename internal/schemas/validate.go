// Package schemas provides JSON Schema validation for the run report.
package schemas

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed report.schema.json
var reportSchema string

// ReportSchema returns the JSON Schema every written report must satisfy
func ReportSchema() string {
	return reportSchema
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}

	documentLoader, err := fileLoader(jsonPath)
	if err != nil {
		return err
	}

	return validate(gojsonschema.NewReferenceLoader("file://"+schemaAbsPath), documentLoader, schemaAbsPath)
}

// ValidateReportFile validates a report file against the embedded report schema
func ValidateReportFile(jsonPath string) error {
	documentLoader, err := fileLoader(jsonPath)
	if err != nil {
		return err
	}
	return validate(gojsonschema.NewStringLoader(reportSchema), documentLoader, "(report schema)")
}

// ValidateReport validates serialized report content against the embedded report schema
func ValidateReport(jsonContent []byte) error {
	return validate(gojsonschema.NewStringLoader(reportSchema), gojsonschema.NewBytesLoader(jsonContent), "(report schema)")
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	return validate(gojsonschema.NewStringLoader(schemaContent), gojsonschema.NewStringLoader(jsonContent), "(string schema)")
}

func fileLoader(jsonPath string) (gojsonschema.JSONLoader, error) {
	jsonAbsPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve JSON path: %w", err)
	}
	if _, err := os.Stat(jsonAbsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("JSON file not found: %s", jsonAbsPath)
	}
	return gojsonschema.NewReferenceLoader("file://" + jsonAbsPath), nil
}

func validate(schemaLoader, documentLoader gojsonschema.JSONLoader, schemaLabel string) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaLabel,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
